package sampling

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrInvalidPolicy indicates a policy has invalid parameters.
	ErrInvalidPolicy = errors.New("invalid policy configuration")

	// ErrEmptyPolicyName indicates a top-level or composite sub-policy has no name.
	ErrEmptyPolicyName = errors.New("policy name cannot be empty")

	// ErrDuplicatePolicyName indicates two policies at the same level share a name.
	ErrDuplicatePolicyName = errors.New("duplicate policy name")

	// ErrNoSubPolicies indicates an and/drop/composite policy without children.
	ErrNoSubPolicies = errors.New("at least one sub-policy is required")

	// ErrConditionUnavailable indicates an ottl_condition policy was configured
	// without a condition evaluator, or the evaluator could not be reached.
	ErrConditionUnavailable = errors.New("condition evaluator unavailable")

	// ErrConditionTimeout indicates the condition evaluator did not answer in time.
	ErrConditionTimeout = errors.New("condition evaluation timed out")
)

// PolicyError wraps a construction-time failure with the offending policy.
type PolicyError struct {
	Policy string
	Type   PolicyType
	Cause  error
}

// Error returns the error message.
func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy %q (%s): %v", e.Policy, e.Type, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *PolicyError) Unwrap() error {
	return e.Cause
}

// PropagatedError marks an evaluation failure raised in
// condition.ErrorModePropagate. A decision run that records one resolves to
// NotSampled unless a policy dropped the trace.
type PropagatedError struct {
	Cause error
}

// Error returns the error message.
func (e *PropagatedError) Error() string {
	return e.Cause.Error()
}

// Unwrap returns the underlying cause.
func (e *PropagatedError) Unwrap() error {
	return e.Cause
}

// IsPropagated reports whether err carries a PropagatedError.
func IsPropagated(err error) bool {
	var pe *PropagatedError
	return errors.As(err, &pe)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPolicy, fmt.Sprintf(format, args...))
}
