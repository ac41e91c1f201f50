package sampling

import (
	"context"
	"fmt"

	"mercator-hq/tailsim/pkg/tracemodel"
)

// Decision is the outcome of evaluating one policy, or the whole policy set,
// against one trace.
type Decision int32

const (
	// NotSampled indicates the trace should not be sampled.
	NotSampled Decision = iota
	// Sampled indicates the trace should be sampled.
	Sampled
	// InvertSampled is produced on the invert-match flow and resolves to Sampled
	// unless another policy reported NotSampled.
	InvertSampled
	// InvertNotSampled is produced on the invert-match flow and vetoes any
	// Sampled decision from other policies.
	InvertNotSampled
	// Dropped indicates the trace must be discarded regardless of all other
	// decisions.
	Dropped
	// Error indicates the policy could not be evaluated.
	Error
)

var decisionNames = map[Decision]string{
	NotSampled:       "not_sampled",
	Sampled:          "sampled",
	InvertSampled:    "invert_sampled",
	InvertNotSampled: "invert_not_sampled",
	Dropped:          "dropped",
	Error:            "error",
}

// String returns the snake_case name of the decision.
func (d Decision) String() string {
	if name, ok := decisionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("decision(%d)", int32(d))
}

// MarshalText implements encoding.TextMarshaler.
func (d Decision) MarshalText() ([]byte, error) {
	if _, ok := decisionNames[d]; !ok {
		return nil, fmt.Errorf("unknown decision %d", int32(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Decision) UnmarshalText(text []byte) error {
	parsed, err := ParseDecision(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDecision parses the snake_case name of a decision.
func ParseDecision(s string) (Decision, error) {
	for d, name := range decisionNames {
		if name == s {
			return d, nil
		}
	}
	return NotSampled, fmt.Errorf("unknown decision %q", s)
}

// PolicyEvaluator is the executable counterpart of a policy.
//
// Evaluate must not mutate the trace. Implementations that call out to
// external capabilities honour ctx cancellation and deadlines.
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, trace *tracemodel.Trace) (Decision, error)
}

// Policy is a named, built evaluator ready to be run by the decision engine.
type Policy struct {
	// Name is unique within one engine and is used as the audit key.
	Name string

	// Type is the configured policy type.
	Type PolicyType

	// Evaluator makes the decision.
	Evaluator PolicyEvaluator
}
