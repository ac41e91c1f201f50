package cli

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestDecisionProgress(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		outcomes []string
		want     []string
	}{
		{
			name:     "tally in key order",
			total:    3,
			outcomes: []string{"sampled", "dropped", "sampled"},
			want:     []string{"Simulating:", "3/3", "dropped=1 sampled=2"},
		},
		{
			name:     "partial",
			total:    4,
			outcomes: []string{"not_sampled"},
			want:     []string{"1/4", "not_sampled=1"},
		},
		{
			name:     "more traces than announced",
			total:    1,
			outcomes: []string{"sampled", "invalid"},
			want:     []string{"2/2", "invalid=1 sampled=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			progress := NewProgressReporter(&buf)

			progress.Start(tt.total)
			for _, o := range tt.outcomes {
				progress.Observe(o)
			}
			progress.Finish()

			out := buf.String()
			last := out[strings.LastIndex(out, "\r"):]
			for _, w := range tt.want {
				if !strings.Contains(last, w) {
					t.Errorf("final line %q does not contain %q", last, w)
				}
			}
			if !strings.HasSuffix(out, "\n") {
				t.Error("Finish() did not end the line")
			}
		})
	}
}

func TestDecisionProgress_StartResets(t *testing.T) {
	progress := NewProgressReporter(&bytes.Buffer{}).(*DecisionProgress)

	progress.Start(2)
	progress.Observe("sampled")
	progress.Start(2)

	if got := progress.Tally(); len(got) != 0 {
		t.Errorf("Tally() after Start = %v, want empty", got)
	}
}

func TestDecisionProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgressReporter(&buf)

	progress.Start(0)
	progress.Finish()

	if buf.String() != "\n" {
		t.Errorf("output = %q, want a bare newline", buf.String())
	}
}

func TestDecisionProgress_Error(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgressReporter(&buf)

	progress.Start(10)
	progress.Error(errors.New("trace file unreadable"))

	if !strings.Contains(buf.String(), "Error: trace file unreadable") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestDecisionProgress_Concurrent(t *testing.T) {
	progress := NewProgressReporter(&bytes.Buffer{}).(*DecisionProgress)
	progress.Start(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				progress.Observe("sampled")
			}
		}()
	}
	wg.Wait()
	progress.Finish()

	if got := progress.Tally()["sampled"]; got != 100 {
		t.Errorf("sampled = %d, want 100", got)
	}
}

func TestNewProgressReporterNilWriter(t *testing.T) {
	progress := NewProgressReporter(nil)
	if progress == nil {
		t.Fatal("NewProgressReporter(nil) returned nil")
	}
	if progress.(*DecisionProgress).writer == nil {
		t.Error("writer not defaulted")
	}
}
