package sampling

import (
	"context"

	"mercator-hq/tailsim/pkg/tracemodel"
)

type booleanAttributeFilter struct {
	key         string
	value       bool
	invertMatch bool
}

// NewBooleanAttributeFilter creates an evaluator that samples traces whose
// resource or span attribute key equals value. A non-bool attribute never
// matches.
func NewBooleanAttributeFilter(key string, value, invertMatch bool) PolicyEvaluator {
	return &booleanAttributeFilter{key: key, value: value, invertMatch: invertMatch}
}

func (f *booleanAttributeFilter) Evaluate(_ context.Context, trace *tracemodel.Trace) (Decision, error) {
	matches := func(attrs tracemodel.Attributes) bool {
		raw, ok := attrs.Get(f.key)
		if !ok {
			return false
		}
		b, ok := tracemodel.BoolValue(raw)
		return ok && b == f.value
	}

	if f.invertMatch {
		return invertHasResourceOrSpanWithCondition(
			trace,
			func(r *tracemodel.Resource) bool { return !matches(r.Attributes) },
			func(s *tracemodel.Span) bool { return !matches(s.Attributes) },
		), nil
	}
	return hasResourceOrSpanWithCondition(
		trace,
		func(r *tracemodel.Resource) bool { return matches(r.Attributes) },
		func(s *tracemodel.Span) bool { return matches(s.Attributes) },
	), nil
}
