package sampling

import (
	"context"

	"mercator-hq/tailsim/pkg/tracemodel"
)

type alwaysSample struct{}

// NewAlwaysSample creates an evaluator that samples every trace.
func NewAlwaysSample() PolicyEvaluator {
	return &alwaysSample{}
}

func (*alwaysSample) Evaluate(context.Context, *tracemodel.Trace) (Decision, error) {
	return Sampled, nil
}

type notSampled struct{}

// NewNotSampled creates an evaluator that never samples. The builder
// substitutes it for unrecognised policy types.
func NewNotSampled() PolicyEvaluator {
	return &notSampled{}
}

func (*notSampled) Evaluate(context.Context, *tracemodel.Trace) (Decision, error) {
	return NotSampled, nil
}
