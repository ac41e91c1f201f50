package tracemodel

// StatusCode is the status of a completed span.
type StatusCode int32

const (
	// StatusCodeUnset is the default status.
	StatusCodeUnset StatusCode = iota
	// StatusCodeOK marks a span as explicitly successful.
	StatusCodeOK
	// StatusCodeError marks a span as failed.
	StatusCodeError
)

// String returns the OTLP name of the status code ("UNSET", "OK", "ERROR").
func (c StatusCode) String() string {
	switch c {
	case StatusCodeOK:
		return "OK"
	case StatusCodeError:
		return "ERROR"
	default:
		return "UNSET"
	}
}

// ParseStatusCode parses "OK", "ERROR" or "UNSET".
func ParseStatusCode(s string) (StatusCode, bool) {
	switch s {
	case "OK":
		return StatusCodeOK, true
	case "ERROR":
		return StatusCodeError, true
	case "UNSET":
		return StatusCodeUnset, true
	default:
		return StatusCodeUnset, false
	}
}

// SpanKind describes the relationship between a span and its parent/children.
type SpanKind int32

const (
	SpanKindUnspecified SpanKind = iota
	SpanKindInternal
	SpanKindServer
	SpanKindClient
	SpanKindProducer
	SpanKindConsumer
)

// String returns the name of the span kind.
func (k SpanKind) String() string {
	switch k {
	case SpanKindInternal:
		return "Internal"
	case SpanKindServer:
		return "Server"
	case SpanKindClient:
		return "Client"
	case SpanKindProducer:
		return "Producer"
	case SpanKindConsumer:
		return "Consumer"
	default:
		return "Unspecified"
	}
}

// Status is the outcome of a span.
type Status struct {
	Code    StatusCode
	Message string
}

// Event is a timestamped annotation recorded on a span.
type Event struct {
	Name         string
	TimeUnixNano uint64
	Attributes   Attributes
}

// Span is a single operation within a trace.
type Span struct {
	// TraceID is the hex-encoded trace identifier. Dashes are tolerated.
	TraceID string

	// SpanID is the hex-encoded span identifier.
	SpanID string

	// ParentSpanID is empty for root spans.
	ParentSpanID string

	Name string
	Kind SpanKind

	StartTimeUnixNano uint64
	EndTimeUnixNano   uint64

	Attributes Attributes
	Status     Status

	// TraceState is the raw W3C tracestate header value
	// (comma-separated key=value pairs).
	TraceState string

	Events []Event
}

// Resource describes the entity that produced a group of spans.
type Resource struct {
	Attributes Attributes
}

// Scope identifies the instrumentation library that produced spans.
type Scope struct {
	Name    string
	Version string
}

// ScopeSpans groups the spans produced by one instrumentation scope.
type ScopeSpans struct {
	Scope Scope
	Spans []Span
}

// ResourceSpans groups the scope spans produced by one resource.
type ResourceSpans struct {
	Resource   Resource
	ScopeSpans []ScopeSpans
}

// Trace is the full set of resource/scope/span records of one logical request.
// A trace with no ResourceSpans is valid.
type Trace struct {
	ResourceSpans []ResourceSpans
}

// SpanCount returns the number of spans across all resource and scope groups.
func (t *Trace) SpanCount() int {
	if t == nil {
		return 0
	}
	count := 0
	for i := range t.ResourceSpans {
		for j := range t.ResourceSpans[i].ScopeSpans {
			count += len(t.ResourceSpans[i].ScopeSpans[j].Spans)
		}
	}
	return count
}

// FirstSpan returns the first span in traversal order, or nil if the trace
// has no spans.
func (t *Trace) FirstSpan() *Span {
	if t == nil {
		return nil
	}
	for i := range t.ResourceSpans {
		for j := range t.ResourceSpans[i].ScopeSpans {
			if spans := t.ResourceSpans[i].ScopeSpans[j].Spans; len(spans) > 0 {
				return &spans[0]
			}
		}
	}
	return nil
}

// TraceID returns the trace ID of the first span, or "" for an empty trace.
func (t *Trace) TraceID() string {
	if span := t.FirstSpan(); span != nil {
		return span.TraceID
	}
	return ""
}
