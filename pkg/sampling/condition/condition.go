package condition

import (
	"context"
	"encoding/json"
	"fmt"
)

// ErrorMode controls how a failure of the condition engine is surfaced.
type ErrorMode string

const (
	// ErrorModePropagate reports engine failures as evaluation errors.
	ErrorModePropagate ErrorMode = "propagate"
	// ErrorModeIgnore treats engine failures as a non-matching trace.
	ErrorModeIgnore ErrorMode = "ignore"
)

// ParseErrorMode validates s. An empty string selects ErrorModePropagate.
func ParseErrorMode(s string) (ErrorMode, error) {
	switch ErrorMode(s) {
	case "", ErrorModePropagate:
		return ErrorModePropagate, nil
	case ErrorModeIgnore:
		return ErrorModeIgnore, nil
	default:
		return "", fmt.Errorf("unknown error mode %q, supported: propagate, ignore", s)
	}
}

// Request is one condition evaluation.
type Request struct {
	// TraceJSON is the trace encoded as OTLP JSON.
	TraceJSON json.RawMessage `json:"trace"`

	SpanConditions      []string  `json:"span_conditions,omitempty"`
	SpanEventConditions []string  `json:"span_event_conditions,omitempty"`
	ErrorMode           ErrorMode `json:"error_mode"`
}

// Result is the answer of the condition engine.
type Result struct {
	// Sampled reports whether any condition matched.
	Sampled bool `json:"sampled"`

	// Error is set when the engine could not evaluate the conditions.
	Error string `json:"error,omitempty"`

	// Message is optional diagnostic text.
	Message string `json:"message,omitempty"`
}

// Evaluator evaluates conditions against a trace.
//
// Implementations must honour ctx cancellation. A returned error means the
// engine could not be reached or answered malformed data. A well-formed
// answer reporting a failed evaluation is returned as a Result with Error set.
type Evaluator interface {
	EvaluateCondition(ctx context.Context, req Request) (*Result, error)
}

// Runtime is an Evaluator with an explicit lifecycle.
type Runtime interface {
	Evaluator

	// Init prepares the runtime. It is called once before the first evaluation.
	Init(ctx context.Context) error

	// Close releases resources held by the runtime.
	Close() error
}

// Func adapts a plain function to Evaluator.
type Func func(ctx context.Context, req Request) (*Result, error)

// EvaluateCondition calls f.
func (f Func) EvaluateCondition(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}
