package engine

import (
	"context"
	"time"

	"mercator-hq/tailsim/pkg/sampling"
)

// DecisionResult is the outcome of one decision run. It is built fresh for
// every trace and never mutated after MakeDecision returns.
type DecisionResult struct {
	// RunID uniquely identifies this decision run.
	RunID string `json:"run_id"`

	// TraceID is the ID of the first span of the evaluated trace.
	TraceID string `json:"trace_id"`

	// FinalDecision is the combined decision.
	FinalDecision sampling.Decision `json:"final_decision"`

	// PolicyDecisions maps each evaluated policy name to its decision.
	PolicyDecisions map[string]sampling.Decision `json:"policy_decisions"`

	// EvaluatedPolicies lists the evaluated policy names in order.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// Errors maps each failed policy name to its error message.
	Errors map[string]string `json:"errors,omitempty"`

	// SpanCount is the number of spans in the evaluated trace.
	SpanCount int `json:"span_count"`

	// EvaluatedAt is when the run started.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`

	// Trace holds per-policy steps when tracing is enabled.
	Trace *EvaluationTrace `json:"trace,omitempty"`
}

// EvaluationTrace records the steps of one decision run for debugging.
type EvaluationTrace struct {
	// Steps contains one entry per evaluated policy.
	Steps []*TraceStep `json:"steps"`

	// TotalTime is the total evaluation time.
	TotalTime time.Duration `json:"total_time"`
}

// TraceStep records one policy evaluation.
type TraceStep struct {
	Policy   string              `json:"policy"`
	Type     sampling.PolicyType `json:"type"`
	Decision sampling.Decision   `json:"decision"`
	Error    string              `json:"error,omitempty"`
	Duration time.Duration       `json:"duration"`
}

// MetricsRecorder receives decision metrics. Decisions are passed by name so
// implementations need not import the sampling package.
type MetricsRecorder interface {
	RecordPolicyDecision(policy, decision string, duration time.Duration)
	RecordPolicyError(policy string)
	RecordFinalDecision(decision string, duration time.Duration)
	RecordPolicyReload(loaded int, err error)
}

// PolicySource provides policy configurations to the engine.
type PolicySource interface {
	// LoadPolicies loads all policy configurations from the source.
	LoadPolicies(ctx context.Context) ([]sampling.PolicyCfg, error)

	// Watch watches for policy changes and sends events on the returned channel.
	// The channel is closed when the context is cancelled.
	Watch(ctx context.Context) (<-chan PolicyEvent, error)
}

// PolicyEvent represents a policy file change event.
type PolicyEvent struct {
	// Type is the event type.
	Type PolicyEventType

	// Path is the file path that changed.
	Path string

	// Error is any error that occurred while watching.
	Error error
}

// PolicyEventType represents the type of policy file event.
type PolicyEventType string

const (
	PolicyEventCreated  PolicyEventType = "created"
	PolicyEventModified PolicyEventType = "modified"
	PolicyEventDeleted  PolicyEventType = "deleted"
)

type noopMetrics struct{}

func (noopMetrics) RecordPolicyDecision(string, string, time.Duration) {}
func (noopMetrics) RecordPolicyError(string)                           {}
func (noopMetrics) RecordFinalDecision(string, time.Duration)          {}
func (noopMetrics) RecordPolicyReload(int, error)                      {}
