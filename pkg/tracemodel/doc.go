// Package tracemodel defines the in-memory representation of a fully buffered
// trace as consumed by the sampling engine.
//
// A Trace is an ordered list of ResourceSpans. Each ResourceSpans holds one
// Resource and an ordered list of ScopeSpans, which in turn hold the Spans:
//
//	Trace
//	 └─ ResourceSpans (resource attributes)
//	     └─ ScopeSpans (instrumentation scope)
//	         └─ Span (ids, timing, attributes, status, trace state, events)
//
// Timestamps are kept as uint64 nanoseconds since the Unix epoch so that no
// precision is lost when converting from OTLP.
//
// # OTLP Interop
//
// Traces can be converted from and to the OpenTelemetry collector pdata model
// (FromTraces, ToTraces) and read or written as OTLP/JSON (UnmarshalJSON,
// MarshalJSON). The sampling engine only ever sees the tracemodel types.
//
// Values in this package are treated as immutable once constructed. The
// engine never mutates a Trace it is asked to evaluate.
package tracemodel
