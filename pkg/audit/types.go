package audit

import (
	"context"
	"io"
	"time"

	"mercator-hq/tailsim/pkg/sampling/engine"
)

// Record is the persisted form of one decision run. Decisions are stored by
// name so the log stays readable without the sampling package.
type Record struct {
	// Identity
	ID      string `json:"id"`       // UUID v4
	RunID   string `json:"run_id"`   // From the decision run
	TraceID string `json:"trace_id"` // Hex trace ID of the evaluated trace

	// Outcome
	FinalDecision     string            `json:"final_decision"`
	PolicyDecisions   map[string]string `json:"policy_decisions"`
	EvaluatedPolicies []string          `json:"evaluated_policies"`
	Errors            map[string]string `json:"errors,omitempty"`

	// Input
	SpanCount int `json:"span_count"`

	// Timing
	EvaluatedAt time.Time     `json:"evaluated_at"`
	Duration    time.Duration `json:"duration"`
	RecordedAt  time.Time     `json:"recorded_at"`
}

// HasErrors reports whether any policy failed during the run.
func (r *Record) HasErrors() bool {
	return len(r.Errors) > 0
}

// NewRecord converts a decision result into a record. ID and RecordedAt are
// left empty for the recorder to fill.
func NewRecord(res *engine.DecisionResult) *Record {
	rec := &Record{
		RunID:             res.RunID,
		TraceID:           res.TraceID,
		FinalDecision:     res.FinalDecision.String(),
		PolicyDecisions:   make(map[string]string, len(res.PolicyDecisions)),
		EvaluatedPolicies: append([]string(nil), res.EvaluatedPolicies...),
		SpanCount:         res.SpanCount,
		EvaluatedAt:       res.EvaluatedAt,
		Duration:          res.Duration,
	}
	for name, d := range res.PolicyDecisions {
		rec.PolicyDecisions[name] = d.String()
	}
	if len(res.Errors) > 0 {
		rec.Errors = make(map[string]string, len(res.Errors))
		for name, msg := range res.Errors {
			rec.Errors[name] = msg
		}
	}
	return rec
}

// Query defines filter parameters for listing, counting and deleting records.
// Zero-valued fields do not filter.
type Query struct {
	// Time range over EvaluatedAt, both bounds inclusive.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	IDs           []string `json:"ids,omitempty"`
	RunID         string   `json:"run_id,omitempty"`
	TraceID       string   `json:"trace_id,omitempty"`
	FinalDecision string   `json:"final_decision,omitempty"`

	// Policy keeps records where the named policy was evaluated.
	Policy string `json:"policy,omitempty"`

	// ErrorsOnly keeps records with at least one failed policy.
	ErrorsOnly bool `json:"errors_only,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder is "asc" or "desc" on EvaluatedAt. Default: desc.
	SortOrder string `json:"sort_order,omitempty"`
}

// DefaultQueryLimit caps Query results when no limit is set.
const DefaultQueryLimit = 100

// Store defines the interface for decision log backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query retrieves records matching the filters. An empty slice is
	// returned when nothing matches.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the filters.
	// Limit and Offset are ignored.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the filters and returns how many were
	// removed. Limit and Offset are ignored.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Exporter writes records in one output format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
