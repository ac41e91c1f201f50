package engine

import (
	"fmt"
	"time"

	"mercator-hq/tailsim/pkg/sampling"
	"mercator-hq/tailsim/pkg/sampling/condition"

	"go.opentelemetry.io/otel/trace"
)

// EngineConfig contains configuration for the decision engine.
type EngineConfig struct {
	// ConditionTimeout bounds each call to the external condition engine.
	// Default: 30s.
	ConditionTimeout time.Duration

	// MaxPolicies is the maximum number of top-level policies.
	// Default: 100.
	MaxPolicies int

	// EnableTrace records a per-policy evaluation trace in every result.
	// Default: false.
	EnableTrace bool

	// Conditions answers ottl_condition policies. Nil disables them.
	Conditions condition.Evaluator

	// Tracer creates spans for decision runs. Nil disables tracing.
	Tracer trace.Tracer

	// Metrics records decision metrics. Nil disables metrics.
	Metrics MetricsRecorder

	// OnReload is called after every source reload with the number of
	// policies loaded, or the reload error. It must not block.
	OnReload func(loaded int, err error)
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		ConditionTimeout: sampling.DefaultConditionTimeout,
		MaxPolicies:      100,
		EnableTrace:      false,
	}
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	if c.ConditionTimeout <= 0 {
		return fmt.Errorf("%w: condition timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxPolicies <= 0 {
		return fmt.Errorf("%w: max policies must be positive", ErrInvalidConfig)
	}
	return nil
}

// WithConditionTimeout sets the condition engine timeout.
func (c *EngineConfig) WithConditionTimeout(timeout time.Duration) *EngineConfig {
	c.ConditionTimeout = timeout
	return c
}

// WithMaxPolicies sets the maximum number of policies.
func (c *EngineConfig) WithMaxPolicies(max int) *EngineConfig {
	c.MaxPolicies = max
	return c
}

// WithTrace enables or disables evaluation tracing.
func (c *EngineConfig) WithTrace(enabled bool) *EngineConfig {
	c.EnableTrace = enabled
	return c
}

// WithConditions sets the condition engine.
func (c *EngineConfig) WithConditions(e condition.Evaluator) *EngineConfig {
	c.Conditions = e
	return c
}

// WithTracer sets the tracer used for decision spans.
func (c *EngineConfig) WithTracer(t trace.Tracer) *EngineConfig {
	c.Tracer = t
	return c
}

// WithMetrics sets the metrics recorder.
func (c *EngineConfig) WithMetrics(m MetricsRecorder) *EngineConfig {
	c.Metrics = m
	return c
}

// WithOnReload sets the reload callback.
func (c *EngineConfig) WithOnReload(fn func(loaded int, err error)) *EngineConfig {
	c.OnReload = fn
	return c
}
