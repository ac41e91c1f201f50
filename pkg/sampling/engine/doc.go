// Package engine runs an ordered list of sampling policies against one trace
// and folds their decisions into a single final decision.
//
// # Decision Combination
//
// Policies are evaluated in configuration order. Each policy's decision is
// recorded in the result's PolicyDecisions map under the policy name. A
// policy that fails is recorded as sampling.Error, logged, and evaluation
// continues with the next policy. A Dropped decision stops evaluation
// immediately; policies after it do not appear in the result.
//
// The final decision is resolved by precedence:
//
//	Dropped                              -> Dropped
//	InvertNotSampled                     -> NotSampled
//	Sampled                              -> Sampled
//	InvertSampled and no NotSampled      -> Sampled
//	otherwise                            -> NotSampled
//
// # Usage
//
//	builder := sampling.NewBuilder(logger)
//	policies, err := builder.BuildPolicies(cfgs)
//	if err != nil {
//	    return err
//	}
//
//	eng, err := engine.New(engine.DefaultEngineConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	if err := eng.SetPolicies(policies); err != nil {
//	    return err
//	}
//
//	result := eng.MakeDecision(ctx, trace)
//
// For one-off use without an Engine, the package-level MakeDecision runs the
// same algorithm with no metrics or tracing.
//
// # Hot Reload
//
// An engine created with NewWithSource loads its policies from a
// PolicySource and reloads them whenever the source reports a change. The
// policy list is swapped atomically; a decision run in progress keeps the
// list it started with.
package engine
