package sampling

import (
	"context"
	"errors"
	"testing"

	"mercator-hq/tailsim/pkg/tracemodel"
)

const testTraceID = "5b8efff798038103d269b633813fc60c"

var errEvaluation = errors.New("evaluation failed")

// fixedEvaluator returns a preset decision and counts its calls.
type fixedEvaluator struct {
	decision Decision
	err      error
	calls    int
}

func (f *fixedEvaluator) Evaluate(context.Context, *tracemodel.Trace) (Decision, error) {
	f.calls++
	return f.decision, f.err
}

func resource(attrs tracemodel.Attributes, spans ...tracemodel.Span) tracemodel.ResourceSpans {
	return tracemodel.ResourceSpans{
		Resource:   tracemodel.Resource{Attributes: attrs},
		ScopeSpans: []tracemodel.ScopeSpans{{Spans: spans}},
	}
}

func newTrace(resources ...tracemodel.ResourceSpans) *tracemodel.Trace {
	return &tracemodel.Trace{ResourceSpans: resources}
}

func span(attrs tracemodel.Attributes) tracemodel.Span {
	return tracemodel.Span{TraceID: testTraceID, SpanID: "eee19b7ec3c1b174", Attributes: attrs}
}

func timedSpan(startMs, endMs uint64) tracemodel.Span {
	s := span(nil)
	s.StartTimeUnixNano = startMs * nanosPerMilli
	s.EndTimeUnixNano = endMs * nanosPerMilli
	return s
}

func mustEvaluate(t testing.TB, e PolicyEvaluator, trace *tracemodel.Trace) Decision {
	t.Helper()
	d, err := e.Evaluate(context.Background(), trace)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	return d
}
