package sampling

import (
	"context"

	"mercator-hq/tailsim/pkg/tracemodel"
)

// SubPolicyEvalParams pairs a composite sub-policy with its share of the
// composite's spans-per-second budget.
type SubPolicyEvalParams struct {
	Name              string
	Evaluator         PolicyEvaluator
	MaxSpansPerSecond int64
}

// CompositeEvaluator is the evaluator of a composite policy. It samples only when
// every sub-policy samples, stopping at the first that does not.
//
// The per-sub-policy budgets are carried for inspection through Allocations.
// They are not consulted when evaluating.
type CompositeEvaluator struct {
	maxTotalSPS int64
	subpolicies []SubPolicyEvalParams
}

// NewComposite creates a composite evaluator over subpolicies.
func NewComposite(maxTotalSPS int64, subpolicies []SubPolicyEvalParams) (*CompositeEvaluator, error) {
	if len(subpolicies) == 0 {
		return nil, ErrNoSubPolicies
	}
	return &CompositeEvaluator{maxTotalSPS: maxTotalSPS, subpolicies: subpolicies}, nil
}

// Evaluate implements PolicyEvaluator.
func (c *CompositeEvaluator) Evaluate(ctx context.Context, trace *tracemodel.Trace) (Decision, error) {
	for _, sub := range c.subpolicies {
		decision, err := sub.Evaluator.Evaluate(ctx, trace)
		if err != nil {
			return NotSampled, err
		}
		if decision != Sampled {
			return NotSampled, nil
		}
	}
	return Sampled, nil
}

// MaxTotalSpansPerSecond returns the composite's total budget.
func (c *CompositeEvaluator) MaxTotalSpansPerSecond() int64 {
	return c.maxTotalSPS
}

// Allocations returns the spans-per-second budget of each sub-policy by name.
func (c *CompositeEvaluator) Allocations() map[string]int64 {
	out := make(map[string]int64, len(c.subpolicies))
	for _, sub := range c.subpolicies {
		out[sub.Name] = sub.MaxSpansPerSecond
	}
	return out
}
