// Package sampling implements the tail-sampling policy evaluators and the
// builder that turns declarative policy configuration into evaluator trees.
//
// # Evaluators
//
// Each policy kind has one evaluator implementing PolicyEvaluator:
//
//	always_sample      Sampled unconditionally
//	string_attribute   resource attribute in a value set (exact or regex), optional invert
//	boolean_attribute  resource or span attribute equals a bool, optional invert
//	numeric_attribute  resource or span attribute within [min, max], optional invert
//	status_code        any span status in a set
//	latency            overall trace duration within thresholds
//	probabilistic      salted FNV-1a hash of the trace id below a threshold
//	trace_state        a tracestate key holds one of the configured values
//	span_count         total span count within [min, max]
//	ottl_condition     delegated to an external condition engine
//	and                all sub-policies sampled
//	drop               all sub-policies sampled turns into a hard Dropped veto
//	composite          like and, carrying a per-sub-policy spans/sec budget
//
// Evaluators are built once and are safe for concurrent use. The only mutable
// state is the compiled-pattern cache of the string attribute evaluator,
// which is guarded by a lock.
//
// # Building
//
//	builder := sampling.NewBuilder(logger, sampling.WithConditionEvaluator(cond))
//	policies, err := builder.BuildPolicies(cfgs)
//
// Unknown policy types never fail the build. They are logged and replaced by
// an evaluator that always returns NotSampled.
package sampling
