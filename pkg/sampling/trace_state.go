package sampling

import (
	"context"
	"strings"

	"mercator-hq/tailsim/pkg/tracemodel"
)

const maxTraceStateLen = 256

type traceStateFilter struct {
	key     string
	allowed map[string]struct{}
}

// NewTraceStateFilter creates an evaluator that samples traces containing a
// span whose tracestate holds key with one of values. Values whose
// key=value length would reach 256 characters are discarded.
//
// The tracestate is split into comma separated key=value members and each
// member is read on its own, so one malformed member does not hide the
// others.
func NewTraceStateFilter(key string, values []string) (PolicyEvaluator, error) {
	if key == "" {
		return nil, invalidf("trace_state requires a key")
	}

	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		if len(key)+len(v) < maxTraceStateLen {
			allowed[v] = struct{}{}
		}
	}
	return &traceStateFilter{key: key, allowed: allowed}, nil
}

func (f *traceStateFilter) Evaluate(_ context.Context, t *tracemodel.Trace) (Decision, error) {
	return hasSpanWithCondition(t, func(span *tracemodel.Span) bool {
		for _, member := range strings.Split(span.TraceState, ",") {
			k, v, ok := strings.Cut(strings.TrimSpace(member), "=")
			if !ok || k != f.key {
				continue
			}
			if _, allowed := f.allowed[v]; allowed {
				return true
			}
		}
		return false
	}), nil
}
