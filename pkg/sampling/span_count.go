package sampling

import (
	"context"

	"mercator-hq/tailsim/pkg/tracemodel"
)

type spanCount struct {
	minSpans int
	maxSpans int
}

// NewSpanCount creates an evaluator that samples traces whose total span
// count is within [minSpans, maxSpans]. A maxSpans of zero leaves the range
// unbounded above.
func NewSpanCount(minSpans, maxSpans int) (PolicyEvaluator, error) {
	if minSpans < 0 || maxSpans < 0 {
		return nil, invalidf("span_count bounds must not be negative")
	}
	if maxSpans != 0 && maxSpans < minSpans {
		return nil, invalidf("span_count max_spans %d is less than min_spans %d", maxSpans, minSpans)
	}
	return &spanCount{minSpans: minSpans, maxSpans: maxSpans}, nil
}

func (c *spanCount) Evaluate(_ context.Context, trace *tracemodel.Trace) (Decision, error) {
	count := trace.SpanCount()
	if count >= c.minSpans && (c.maxSpans == 0 || count <= c.maxSpans) {
		return Sampled, nil
	}
	return NotSampled, nil
}
