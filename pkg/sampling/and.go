package sampling

import (
	"context"

	"mercator-hq/tailsim/pkg/tracemodel"
)

type and struct {
	subpolicies []PolicyEvaluator
}

// NewAnd creates an evaluator that samples only when every sub-policy
// samples. Evaluation stops at the first sub-policy that does not.
func NewAnd(subpolicies []PolicyEvaluator) (PolicyEvaluator, error) {
	if len(subpolicies) == 0 {
		return nil, ErrNoSubPolicies
	}
	return &and{subpolicies: subpolicies}, nil
}

func (c *and) Evaluate(ctx context.Context, trace *tracemodel.Trace) (Decision, error) {
	for _, sub := range c.subpolicies {
		decision, err := sub.Evaluate(ctx, trace)
		if err != nil {
			return NotSampled, err
		}
		if decision != Sampled {
			return NotSampled, nil
		}
	}
	return Sampled, nil
}
