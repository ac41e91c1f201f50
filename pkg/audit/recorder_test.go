package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"mercator-hq/tailsim/pkg/sampling"
	"mercator-hq/tailsim/pkg/sampling/engine"
)

func decisionResult(runID string, final sampling.Decision) *engine.DecisionResult {
	return &engine.DecisionResult{
		RunID:         runID,
		TraceID:       "5b8efff798038103d269b633813fc60c",
		FinalDecision: final,
		PolicyDecisions: map[string]sampling.Decision{
			"prod-only": sampling.Sampled,
			"cond":      sampling.Error,
		},
		EvaluatedPolicies: []string{"prod-only", "cond"},
		Errors:            map[string]string{"cond": "condition evaluation timed out"},
		SpanCount:         2,
		EvaluatedAt:       baseTime,
		Duration:          2 * time.Millisecond,
	}
}

func TestNewRecord(t *testing.T) {
	res := decisionResult("run-1", sampling.Sampled)
	rec := NewRecord(res)

	if rec.ID != "" {
		t.Errorf("ID = %q, want empty", rec.ID)
	}
	if rec.FinalDecision != "sampled" {
		t.Errorf("FinalDecision = %q, want sampled", rec.FinalDecision)
	}
	if rec.PolicyDecisions["cond"] != "error" {
		t.Errorf("cond decision = %q, want error", rec.PolicyDecisions["cond"])
	}
	if !rec.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}

	res.EvaluatedPolicies[0] = "mutated"
	res.Errors["cond"] = "mutated"
	if rec.EvaluatedPolicies[0] != "prod-only" || rec.Errors["cond"] == "mutated" {
		t.Error("record shares state with the decision result")
	}
}

func TestRecorder_RecordAndClose(t *testing.T) {
	store := NewMemoryStore()
	recorder := NewRecorder(store, &RecorderConfig{AsyncBuffer: 4, WriteTimeout: time.Second}, nil)
	recorder.now = func() time.Time { return baseTime.Add(time.Second) }

	ctx := context.Background()
	var ids []string
	for i := 0; i < 10; i++ {
		id, err := recorder.Record(ctx, decisionResult("run", sampling.Sampled))
		if err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("record ID %q is not a UUID: %v", id, err)
		}
		ids = append(ids, id)
	}

	if err := recorder.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	count, _ := store.Count(ctx, nil)
	if count != 10 {
		t.Fatalf("stored %d records, want 10", count)
	}
	written, failures := recorder.Stats()
	if written != 10 || failures != 0 {
		t.Errorf("Stats() = (%d, %d), want (10, 0)", written, failures)
	}

	got, _ := store.Query(ctx, &Query{IDs: ids[:1]})
	if len(got) != 1 {
		t.Fatalf("record %s not found", ids[0])
	}
	if !got[0].RecordedAt.Equal(baseTime.Add(time.Second)) {
		t.Errorf("RecordedAt = %v", got[0].RecordedAt)
	}
}

func TestRecorder_RecordAfterClose(t *testing.T) {
	recorder := NewRecorder(NewMemoryStore(), nil, nil)
	recorder.Close()
	recorder.Close()

	_, err := recorder.Record(context.Background(), decisionResult("run", sampling.NotSampled))
	if !errors.Is(err, ErrRecorderClosed) {
		t.Fatalf("expected ErrRecorderClosed, got %v", err)
	}

	var recErr *RecorderError
	if !errors.As(err, &recErr) || recErr.RecordID == "" {
		t.Errorf("expected *RecorderError with record ID, got %v", err)
	}
}

type failingStore struct {
	*MemoryStore
}

func (f failingStore) Store(ctx context.Context, record *Record) error {
	return NewStorageError("memory", "store", errors.New("disk full"))
}

func TestRecorder_CountsFailures(t *testing.T) {
	recorder := NewRecorder(failingStore{NewMemoryStore()}, nil, nil)

	for i := 0; i < 3; i++ {
		if _, err := recorder.Record(context.Background(), decisionResult("run", sampling.Sampled)); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}
	recorder.Close()

	written, failures := recorder.Stats()
	if written != 0 || failures != 3 {
		t.Errorf("Stats() = (%d, %d), want (0, 3)", written, failures)
	}
}
