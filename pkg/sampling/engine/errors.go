package engine

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrNoSource indicates ReloadPolicies was called on an engine without a
	// policy source.
	ErrNoSource = errors.New("engine has no policy source")

	// ErrErrorDecision is recorded when a policy returns sampling.Error
	// without an accompanying error value.
	ErrErrorDecision = errors.New("policy returned an error decision")

	// ErrPolicyPanic indicates a policy evaluator panicked.
	ErrPolicyPanic = errors.New("policy evaluator panicked")
)

// EvaluationError records why one policy failed during a decision run.
type EvaluationError struct {
	Policy string
	Cause  error
}

// Error returns the error message.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("policy %q: %v", e.Policy, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// LimitError indicates a policy set exceeds the configured maximum.
type LimitError struct {
	Count int
	Max   int
}

// Error returns the error message.
func (e *LimitError) Error() string {
	return fmt.Sprintf("too many policies: %d (max: %d)", e.Count, e.Max)
}

// ReloadError indicates a policy reload failure.
type ReloadError struct {
	Source string
	Cause  error
}

// Error returns the error message.
func (e *ReloadError) Error() string {
	return fmt.Sprintf("policy reload failed for %q: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ReloadError) Unwrap() error {
	return e.Cause
}
