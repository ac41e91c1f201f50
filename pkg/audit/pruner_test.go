package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedAges(t *testing.T, store Store, now time.Time, ages map[string]int) {
	t.Helper()
	for id, days := range ages {
		rec := newRecord(id, 0, "sampled", map[string]string{"p": "sampled"})
		rec.EvaluatedAt = now.AddDate(0, 0, -days)
		seed(t, store, rec)
	}
}

func TestPruner_Prune(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	ages := map[string]int{"d10": 10, "d8": 8, "d5": 5, "d3": 3, "d1": 1}

	tests := []struct {
		name        string
		config      *RetentionConfig
		wantDeleted int64
		wantLeft    []string
	}{
		{
			name:        "disabled",
			config:      &RetentionConfig{},
			wantDeleted: 0,
			wantLeft:    []string{"d1", "d3", "d5", "d8", "d10"},
		},
		{
			name:        "by age",
			config:      &RetentionConfig{RetentionDays: 7},
			wantDeleted: 2,
			wantLeft:    []string{"d1", "d3", "d5"},
		},
		{
			name:        "by count keeps newest",
			config:      &RetentionConfig{MaxRecords: 2},
			wantDeleted: 3,
			wantLeft:    []string{"d1", "d3"},
		},
		{
			name:        "age then count",
			config:      &RetentionConfig{RetentionDays: 7, MaxRecords: 1},
			wantDeleted: 4,
			wantLeft:    []string{"d1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			seedAges(t, store, now, ages)

			pruner := NewPruner(store, tt.config, nil)
			pruner.now = func() time.Time { return now }

			deleted, err := pruner.Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune() failed: %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("deleted = %d, want %d", deleted, tt.wantDeleted)
			}

			left, _ := store.Query(context.Background(), &Query{})
			if len(left) != len(tt.wantLeft) {
				t.Fatalf("left %d records, want %d", len(left), len(tt.wantLeft))
			}
			for i, rec := range left {
				if rec.ID != tt.wantLeft[i] {
					t.Errorf("left[%d] = %s, want %s", i, rec.ID, tt.wantLeft[i])
				}
			}
		})
	}
}

func TestPruner_PruneBeforeIsExclusive(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store,
		newRecord("before", -time.Second, "sampled", nil),
		newRecord("at", 0, "sampled", nil),
	)

	pruner := NewPruner(store, nil, nil)
	deleted, err := pruner.PruneBefore(context.Background(), baseTime)
	if err != nil {
		t.Fatalf("PruneBefore() failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if n, _ := store.Count(context.Background(), &Query{IDs: []string{"at"}}); n != 1 {
		t.Error("record at the cutoff was deleted")
	}
}

type brokenCountStore struct {
	*MemoryStore
}

func (b brokenCountStore) Count(ctx context.Context, query *Query) (int64, error) {
	return 0, errors.New("count unavailable")
}

func TestPruner_WrapsErrors(t *testing.T) {
	pruner := NewPruner(brokenCountStore{NewMemoryStore()}, &RetentionConfig{MaxRecords: 5}, nil)

	_, err := pruner.Prune(context.Background())
	var retErr *RetentionError
	if !errors.As(err, &retErr) {
		t.Fatalf("expected *RetentionError, got %v", err)
	}
	if retErr.MaxRecords != 5 {
		t.Errorf("MaxRecords = %d, want 5", retErr.MaxRecords)
	}
}

func TestScheduler_Lifecycle(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantErr     bool
		wantRunning bool
	}{
		{name: "empty schedule stays idle", schedule: ""},
		{name: "daily", schedule: "0 3 * * *", wantRunning: true},
		{name: "invalid", schedule: "every day", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pruner := NewPruner(NewMemoryStore(), &RetentionConfig{RetentionDays: 1, PruneSchedule: tt.schedule}, nil)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := pruner.Start(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Start() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := pruner.scheduler.IsRunning(); got != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", got, tt.wantRunning)
			}

			next := pruner.NextPruning()
			if tt.wantRunning {
				if next == nil || !next.After(time.Now()) {
					t.Errorf("NextPruning() = %v, want a future time", next)
				}
			} else if next != nil {
				t.Errorf("NextPruning() = %v, want nil", next)
			}

			pruner.Stop()
			if pruner.scheduler.IsRunning() {
				t.Error("scheduler still running after Stop()")
			}
		})
	}
}
