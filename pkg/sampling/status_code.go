package sampling

import (
	"context"

	"mercator-hq/tailsim/pkg/tracemodel"
)

type statusCodeFilter struct {
	statusCodes []tracemodel.StatusCode
}

// NewStatusCodeFilter creates an evaluator that samples traces containing a
// span whose status code is one of statusCodes ("OK", "ERROR", "UNSET").
func NewStatusCodeFilter(statusCodes []string) (PolicyEvaluator, error) {
	if len(statusCodes) == 0 {
		return nil, invalidf("status_code requires at least one status code")
	}

	codes := make([]tracemodel.StatusCode, 0, len(statusCodes))
	for _, s := range statusCodes {
		code, ok := tracemodel.ParseStatusCode(s)
		if !ok {
			return nil, invalidf("unknown status code %q, supported: OK, ERROR, UNSET", s)
		}
		codes = append(codes, code)
	}
	return &statusCodeFilter{statusCodes: codes}, nil
}

func (f *statusCodeFilter) Evaluate(_ context.Context, trace *tracemodel.Trace) (Decision, error) {
	return hasSpanWithCondition(trace, func(span *tracemodel.Span) bool {
		for _, code := range f.statusCodes {
			if span.Status.Code == code {
				return true
			}
		}
		return false
	}), nil
}
