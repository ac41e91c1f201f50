// Package metrics provides Prometheus metrics collection for tailsim.
//
// # Overview
//
// The collector records the outcome of every decision run: the decision each
// policy produced, the final decision, evaluation errors and run latency. It
// owns its registry so tests and embedded uses never touch the global one.
//
// # Metrics
//
//   - tailsim_sampling_policy_decisions_total{policy, decision}
//   - tailsim_sampling_policy_evaluation_duration_seconds{policy}
//   - tailsim_sampling_policy_evaluation_errors_total{policy}
//   - tailsim_sampling_final_decisions_total{decision}
//   - tailsim_sampling_decision_duration_seconds
//   - tailsim_sampling_policies_loaded
//   - tailsim_sampling_policy_reloads_total{result}
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	eng, _ := engine.New(policies, engine.DefaultEngineConfig().WithMetrics(collector), logger)
//
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// When metrics are disabled every Record method returns immediately.
//
// # Cardinality
//
// Policy names come from configuration, but a runaway configuration could
// still create many label sets. The collector caps distinct policy labels and
// folds the excess into "other".
package metrics
