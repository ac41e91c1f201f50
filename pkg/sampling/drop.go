package sampling

import (
	"context"

	"mercator-hq/tailsim/pkg/tracemodel"
)

type drop struct {
	subpolicies []PolicyEvaluator
}

// NewDrop creates an evaluator that returns Dropped when every sub-policy
// samples the trace, and NotSampled otherwise. Every sub-policy is evaluated,
// even after one fails; the first failure is then returned with NotSampled.
func NewDrop(subpolicies []PolicyEvaluator) (PolicyEvaluator, error) {
	if len(subpolicies) == 0 {
		return nil, ErrNoSubPolicies
	}
	return &drop{subpolicies: subpolicies}, nil
}

func (d *drop) Evaluate(ctx context.Context, trace *tracemodel.Trace) (Decision, error) {
	allSampled := true
	var firstErr error
	for _, sub := range d.subpolicies {
		decision, err := sub.Evaluate(ctx, trace)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			allSampled = false
			continue
		}
		if decision != Sampled {
			allSampled = false
		}
	}
	if firstErr != nil {
		return NotSampled, firstErr
	}
	if allSampled {
		return Dropped, nil
	}
	return NotSampled, nil
}
