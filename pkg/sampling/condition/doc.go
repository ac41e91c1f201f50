// Package condition defines the boundary to an external condition engine
// used by ottl_condition policies.
//
// The engine is opaque to the sampler. It receives the trace as OTLP JSON
// together with span and span-event condition expressions and answers
// whether the trace matches. Implementations may live out of process or in a
// sandbox and usually need a one-time setup, which is why Runtime carries an
// explicit Init and Close and Lazy defers Init to the first call:
//
//	rt := condition.NewLazy(condition.NewCommand("ottl-eval"), logger)
//	defer rt.Close()
//	builder := sampling.NewBuilder(logger, sampling.WithConditionEvaluator(rt))
package condition
