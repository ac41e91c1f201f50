// Package telemetry groups the observability packages of tailsim.
//
// # Components
//
//   - logging: slog loggers with run, trace and policy context fields
//   - metrics: Prometheus counters and histograms for policy decisions
//   - tracing: OpenTelemetry spans for decision runs, exported over OTLP/gRPC
//   - health: liveness and readiness endpoints for watch mode
//
// Every component can be disabled from configuration. Disabled metrics and
// tracing fall back to no-op implementations.
package telemetry
