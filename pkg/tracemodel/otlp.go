package tracemodel

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"
)

// FromTraces converts collector pdata traces into a Trace.
func FromTraces(td ptrace.Traces) *Trace {
	rss := td.ResourceSpans()
	t := &Trace{ResourceSpans: make([]ResourceSpans, 0, rss.Len())}

	for i := 0; i < rss.Len(); i++ {
		rs := rss.At(i)
		out := ResourceSpans{
			Resource:   Resource{Attributes: fromMap(rs.Resource().Attributes())},
			ScopeSpans: make([]ScopeSpans, 0, rs.ScopeSpans().Len()),
		}

		for j := 0; j < rs.ScopeSpans().Len(); j++ {
			ss := rs.ScopeSpans().At(j)
			scope := ScopeSpans{
				Scope: Scope{Name: ss.Scope().Name(), Version: ss.Scope().Version()},
				Spans: make([]Span, 0, ss.Spans().Len()),
			}
			for k := 0; k < ss.Spans().Len(); k++ {
				scope.Spans = append(scope.Spans, fromSpan(ss.Spans().At(k)))
			}
			out.ScopeSpans = append(out.ScopeSpans, scope)
		}

		t.ResourceSpans = append(t.ResourceSpans, out)
	}

	return t
}

func fromSpan(span ptrace.Span) Span {
	out := Span{
		TraceID:           span.TraceID().String(),
		SpanID:            span.SpanID().String(),
		ParentSpanID:      span.ParentSpanID().String(),
		Name:              span.Name(),
		Kind:              SpanKind(span.Kind()),
		StartTimeUnixNano: uint64(span.StartTimestamp()),
		EndTimeUnixNano:   uint64(span.EndTimestamp()),
		Attributes:        fromMap(span.Attributes()),
		Status: Status{
			Code:    StatusCode(span.Status().Code()),
			Message: span.Status().Message(),
		},
		TraceState: span.TraceState().AsRaw(),
	}

	if events := span.Events(); events.Len() > 0 {
		out.Events = make([]Event, 0, events.Len())
		for i := 0; i < events.Len(); i++ {
			ev := events.At(i)
			out.Events = append(out.Events, Event{
				Name:         ev.Name(),
				TimeUnixNano: uint64(ev.Timestamp()),
				Attributes:   fromMap(ev.Attributes()),
			})
		}
	}

	return out
}

func fromMap(m pcommon.Map) Attributes {
	attrs := make(Attributes, m.Len())
	m.Range(func(k string, v pcommon.Value) bool {
		switch v.Type() {
		case pcommon.ValueTypeStr:
			attrs[k] = v.Str()
		case pcommon.ValueTypeBool:
			attrs[k] = v.Bool()
		case pcommon.ValueTypeInt:
			attrs[k] = v.Int()
		case pcommon.ValueTypeDouble:
			attrs[k] = v.Double()
		default:
			// Non-scalar values are kept raw and never match typed lookups.
			attrs[k] = v.AsRaw()
		}
		return true
	})
	return attrs
}

// ToTraces converts a Trace into collector pdata traces.
// It fails if a trace or span ID is not valid hex of the expected length.
func ToTraces(t *Trace) (ptrace.Traces, error) {
	td := ptrace.NewTraces()
	if t == nil {
		return td, nil
	}

	for _, rs := range t.ResourceSpans {
		outRS := td.ResourceSpans().AppendEmpty()
		putAttributes(outRS.Resource().Attributes(), rs.Resource.Attributes)

		for _, ss := range rs.ScopeSpans {
			outSS := outRS.ScopeSpans().AppendEmpty()
			outSS.Scope().SetName(ss.Scope.Name)
			outSS.Scope().SetVersion(ss.Scope.Version)

			for i := range ss.Spans {
				if err := toSpan(&ss.Spans[i], outSS.Spans().AppendEmpty()); err != nil {
					return ptrace.Traces{}, err
				}
			}
		}
	}

	return td, nil
}

func toSpan(span *Span, out ptrace.Span) error {
	var traceID [16]byte
	if err := decodeID(span.TraceID, traceID[:]); err != nil {
		return fmt.Errorf("span %q: invalid trace id: %w", span.Name, err)
	}
	var spanID, parentID [8]byte
	if err := decodeID(span.SpanID, spanID[:]); err != nil {
		return fmt.Errorf("span %q: invalid span id: %w", span.Name, err)
	}
	if err := decodeID(span.ParentSpanID, parentID[:]); err != nil {
		return fmt.Errorf("span %q: invalid parent span id: %w", span.Name, err)
	}

	out.SetTraceID(pcommon.TraceID(traceID))
	out.SetSpanID(pcommon.SpanID(spanID))
	out.SetParentSpanID(pcommon.SpanID(parentID))
	out.SetName(span.Name)
	out.SetKind(ptrace.SpanKind(span.Kind))
	out.SetStartTimestamp(pcommon.Timestamp(span.StartTimeUnixNano))
	out.SetEndTimestamp(pcommon.Timestamp(span.EndTimeUnixNano))
	out.Status().SetCode(ptrace.StatusCode(span.Status.Code))
	out.Status().SetMessage(span.Status.Message)
	out.TraceState().FromRaw(span.TraceState)
	putAttributes(out.Attributes(), span.Attributes)

	for _, ev := range span.Events {
		outEv := out.Events().AppendEmpty()
		outEv.SetName(ev.Name)
		outEv.SetTimestamp(pcommon.Timestamp(ev.TimeUnixNano))
		putAttributes(outEv.Attributes(), ev.Attributes)
	}

	return nil
}

// decodeID hex-decodes id into dst. An empty id leaves dst zeroed.
func decodeID(id string, dst []byte) error {
	id = strings.ReplaceAll(id, "-", "")
	if id == "" {
		return nil
	}
	b, err := hex.DecodeString(id)
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), len(b))
	}
	copy(dst, b)
	return nil
}

func putAttributes(m pcommon.Map, attrs Attributes) {
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			m.PutStr(k, val)
		case bool:
			m.PutBool(k, val)
		case int:
			m.PutInt(k, int64(val))
		case int32:
			m.PutInt(k, int64(val))
		case int64:
			m.PutInt(k, val)
		case uint32:
			m.PutInt(k, int64(val))
		case json.Number:
			if i, err := val.Int64(); err == nil {
				m.PutInt(k, i)
			} else if f, err := val.Float64(); err == nil {
				m.PutDouble(k, f)
			} else {
				m.PutStr(k, val.String())
			}
		default:
			if f, ok := NumericValue(v); ok {
				m.PutDouble(k, f)
				continue
			}
			if err := m.PutEmpty(k).FromRaw(v); err != nil {
				m.PutStr(k, fmt.Sprint(v))
			}
		}
	}
}

// UnmarshalJSON decodes an OTLP/JSON traces payload.
func UnmarshalJSON(data []byte) (*Trace, error) {
	unmarshaler := &ptrace.JSONUnmarshaler{}
	td, err := unmarshaler.UnmarshalTraces(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode OTLP/JSON traces: %w", err)
	}
	return FromTraces(td), nil
}

// MarshalJSON encodes t as an OTLP/JSON traces payload.
func MarshalJSON(t *Trace) ([]byte, error) {
	td, err := ToTraces(t)
	if err != nil {
		return nil, err
	}
	marshaler := &ptrace.JSONMarshaler{}
	data, err := marshaler.MarshalTraces(td)
	if err != nil {
		return nil, fmt.Errorf("failed to encode OTLP/JSON traces: %w", err)
	}
	return data, nil
}
