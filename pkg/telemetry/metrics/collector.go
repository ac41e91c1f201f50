package metrics

import (
	"sync"
	"time"

	"mercator-hq/tailsim/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// OtherPolicy is the label used once the policy cardinality limit is reached.
const OtherPolicy = "other"

// DefaultMaxPolicyLabels caps the number of distinct policy label values.
const DefaultMaxPolicyLabels = 1000

// Collector is the entry point for all Prometheus metrics in tailsim.
// It satisfies the engine's metrics recorder interface.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	decisionMetrics *DecisionMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "tailsim",
//		Subsystem: "sampling",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{}
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		decisionMetrics:    NewDecisionMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(DefaultMaxPolicyLabels),
	}
}

// RecordPolicyDecision records the decision one policy produced and how long
// it took.
//
// Example:
//
//	collector.RecordPolicyDecision("errors", "sampled", 40*time.Microsecond)
func (c *Collector) RecordPolicyDecision(policy, decision string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.decisionMetrics.RecordPolicyDecision(c.policyLabel(policy), decision, duration)
}

// RecordPolicyError records a failed policy evaluation.
func (c *Collector) RecordPolicyError(policy string) {
	if !c.config.Enabled {
		return
	}

	c.decisionMetrics.RecordPolicyError(c.policyLabel(policy))
}

// RecordFinalDecision records the combined decision of one run.
func (c *Collector) RecordFinalDecision(decision string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.decisionMetrics.RecordFinalDecision(decision, duration)
}

// RecordPolicyReload records a policy reload attempt and, on success, the
// number of policies now loaded.
func (c *Collector) RecordPolicyReload(loaded int, err error) {
	if !c.config.Enabled {
		return
	}

	c.decisionMetrics.RecordReload(loaded, err)
}

// Enabled reports whether metrics are recorded.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) policyLabel(policy string) string {
	if !c.cardinalityLimiter.Allow(policy) {
		return OtherPolicy
	}
	return policy
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label value is allowed. Returns true if the value
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(label string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[label]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[label]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[label] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
