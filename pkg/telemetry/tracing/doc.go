// Package tracing provides OpenTelemetry tracing for tailsim.
//
// # Overview
//
// Every decision run can emit its own spans: one "sampling.make_decision"
// span per trace evaluated, with a child "sampling.policy" span per policy.
// Spans are exported over OTLP gRPC to any OpenTelemetry collector.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "sampling.make_decision")
//	defer span.End()
//
// When tracing is disabled a noop tracer is returned, so callers never need
// to check Enabled before starting spans.
//
// # Sampling Strategies
//
// The tracer's own spans are sampled with one of three strategies:
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces
//   - ratio: Sample a fraction of traces by trace ID
//
// All strategies are wrapped in ParentBased so a sampled parent always
// yields sampled children.
package tracing
