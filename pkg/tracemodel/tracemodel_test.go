package tracemodel

import (
	"encoding/json"
	"testing"
)

func sampleTrace() *Trace {
	return &Trace{
		ResourceSpans: []ResourceSpans{
			{
				Resource: Resource{Attributes: Attributes{"service.name": "checkout", "env": "prod"}},
				ScopeSpans: []ScopeSpans{
					{
						Scope: Scope{Name: "io.opentelemetry.http", Version: "1.2.0"},
						Spans: []Span{
							{
								TraceID:           "5b8efff798038103d269b633813fc60c",
								SpanID:            "eee19b7ec3c1b174",
								Name:              "GET /cart",
								Kind:              SpanKindServer,
								StartTimeUnixNano: 1_700_000_000_000_000_000,
								EndTimeUnixNano:   1_700_000_000_250_000_000,
								Attributes:        Attributes{"http.status_code": int64(200), "cached": true},
								Status:            Status{Code: StatusCodeOK},
								TraceState:        "vendor=A,other=B",
								Events: []Event{
									{Name: "cache.miss", TimeUnixNano: 1_700_000_000_100_000_000, Attributes: Attributes{"key": "cart:1"}},
								},
							},
						},
					},
				},
			},
			{
				Resource: Resource{Attributes: Attributes{"service.name": "payments"}},
				ScopeSpans: []ScopeSpans{
					{
						Spans: []Span{
							{
								TraceID:      "5b8efff798038103d269b633813fc60c",
								SpanID:       "aaa19b7ec3c1b174",
								ParentSpanID: "eee19b7ec3c1b174",
								Name:         "charge",
								Kind:         SpanKindClient,
								Status:       Status{Code: StatusCodeError, Message: "card declined"},
								Attributes:   Attributes{"amount": 12.5},
							},
						},
					},
				},
			},
		},
	}
}

func TestTrace_SpanCount(t *testing.T) {
	tests := []struct {
		name  string
		trace *Trace
		want  int
	}{
		{name: "nil trace", trace: nil, want: 0},
		{name: "empty trace", trace: &Trace{}, want: 0},
		{name: "two resources", trace: sampleTrace(), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.trace.SpanCount(); got != tt.want {
				t.Errorf("SpanCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTrace_FirstSpan(t *testing.T) {
	empty := &Trace{ResourceSpans: []ResourceSpans{{ScopeSpans: []ScopeSpans{{}}}}}
	if empty.FirstSpan() != nil {
		t.Error("FirstSpan() on trace without spans should be nil")
	}
	if empty.TraceID() != "" {
		t.Errorf("TraceID() = %q, want empty", empty.TraceID())
	}

	tr := sampleTrace()
	if got := tr.FirstSpan(); got == nil || got.Name != "GET /cart" {
		t.Errorf("FirstSpan() = %+v, want GET /cart", got)
	}
	if got := tr.TraceID(); got != "5b8efff798038103d269b633813fc60c" {
		t.Errorf("TraceID() = %q", got)
	}
}

func TestStatusCode(t *testing.T) {
	for _, s := range []string{"OK", "ERROR", "UNSET"} {
		code, ok := ParseStatusCode(s)
		if !ok {
			t.Fatalf("ParseStatusCode(%q) not ok", s)
		}
		if code.String() != s {
			t.Errorf("String() = %q, want %q", code.String(), s)
		}
	}
	if _, ok := ParseStatusCode("FAILED"); ok {
		t.Error("ParseStatusCode(FAILED) should fail")
	}
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   float64
		wantOK bool
	}{
		{name: "int", value: 42, want: 42, wantOK: true},
		{name: "int64", value: int64(-7), want: -7, wantOK: true},
		{name: "uint32", value: uint32(9), want: 9, wantOK: true},
		{name: "float64", value: 1.5, want: 1.5, wantOK: true},
		{name: "json number", value: json.Number("300"), want: 300, wantOK: true},
		{name: "bad json number", value: json.Number("x"), wantOK: false},
		{name: "string", value: "42", wantOK: false},
		{name: "bool", value: true, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NumericValue(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("NumericValue() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("NumericValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntValue(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   int64
		wantOK bool
	}{
		{name: "int", value: 42, want: 42, wantOK: true},
		{name: "int64 above 2^53", value: int64(1<<53 + 1), want: 1<<53 + 1, wantOK: true},
		{name: "uint64 fits", value: uint64(1 << 62), want: 1 << 62, wantOK: true},
		{name: "uint64 overflows", value: uint64(1 << 63), wantOK: false},
		{name: "json number", value: json.Number("9007199254740993"), want: 9007199254740993, wantOK: true},
		{name: "json float", value: json.Number("1.5"), wantOK: false},
		{name: "float64", value: 2.0, wantOK: false},
		{name: "string", value: "42", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IntValue(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("IntValue() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("IntValue() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOTLPJSONRoundTrip(t *testing.T) {
	original := sampleTrace()

	data, err := MarshalJSON(original)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	decoded, err := UnmarshalJSON(data)
	if err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}

	if decoded.SpanCount() != 2 {
		t.Fatalf("SpanCount() = %d, want 2", decoded.SpanCount())
	}

	root := decoded.ResourceSpans[0].ScopeSpans[0].Spans[0]
	if root.TraceID != "5b8efff798038103d269b633813fc60c" {
		t.Errorf("TraceID = %q", root.TraceID)
	}
	if root.StartTimeUnixNano != 1_700_000_000_000_000_000 {
		t.Errorf("StartTimeUnixNano = %d", root.StartTimeUnixNano)
	}
	if root.TraceState != "vendor=A,other=B" {
		t.Errorf("TraceState = %q", root.TraceState)
	}
	if root.Kind != SpanKindServer {
		t.Errorf("Kind = %v, want Server", root.Kind)
	}
	if v, _ := root.Attributes.Get("http.status_code"); v != int64(200) {
		t.Errorf("http.status_code = %#v, want int64(200)", v)
	}
	if len(root.Events) != 1 || root.Events[0].Name != "cache.miss" {
		t.Errorf("Events = %+v", root.Events)
	}

	child := decoded.ResourceSpans[1].ScopeSpans[0].Spans[0]
	if child.Status.Code != StatusCodeError || child.Status.Message != "card declined" {
		t.Errorf("Status = %+v", child.Status)
	}
	if child.ParentSpanID != "eee19b7ec3c1b174" {
		t.Errorf("ParentSpanID = %q", child.ParentSpanID)
	}
	if env, _ := decoded.ResourceSpans[0].Resource.Attributes.Get("env"); env != "prod" {
		t.Errorf("resource env = %#v", env)
	}
}

func TestToTraces_InvalidID(t *testing.T) {
	tr := &Trace{ResourceSpans: []ResourceSpans{{ScopeSpans: []ScopeSpans{{Spans: []Span{{TraceID: "not-hex"}}}}}}}
	if _, err := ToTraces(tr); err == nil {
		t.Error("ToTraces() should reject a non-hex trace id")
	}
}

func TestToTraces_DashedTraceID(t *testing.T) {
	tr := &Trace{ResourceSpans: []ResourceSpans{{ScopeSpans: []ScopeSpans{{Spans: []Span{{
		TraceID: "5b8efff7-9803-8103-d269-b633813fc60c",
	}}}}}}}
	td, err := ToTraces(tr)
	if err != nil {
		t.Fatalf("ToTraces() error = %v", err)
	}
	got := td.ResourceSpans().At(0).ScopeSpans().At(0).Spans().At(0).TraceID().String()
	if got != "5b8efff798038103d269b633813fc60c" {
		t.Errorf("TraceID = %q", got)
	}
}

func TestUnmarshalJSON_Invalid(t *testing.T) {
	if _, err := UnmarshalJSON([]byte("{not json")); err == nil {
		t.Error("UnmarshalJSON() should fail on malformed input")
	}
}
