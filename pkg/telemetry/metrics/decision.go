package metrics

import (
	"time"

	"mercator-hq/tailsim/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DecisionMetrics tracks metrics related to sampling decisions.
type DecisionMetrics struct {
	policyDecisions *prometheus.CounterVec

	policyDuration *prometheus.HistogramVec

	policyErrors *prometheus.CounterVec

	finalDecisions *prometheus.CounterVec

	decisionDuration prometheus.Histogram

	policiesLoaded prometheus.Gauge

	reloads *prometheus.CounterVec
}

// NewDecisionMetrics creates and registers decision metrics with the provided registry.
func NewDecisionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DecisionMetrics {
	dm := &DecisionMetrics{
		policyDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_decisions_total",
				Help:      "Total number of decisions produced per policy",
			},
			[]string{"policy", "decision"},
		),

		policyDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_evaluation_duration_seconds",
				Help:      "Duration of a single policy evaluation in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 12), // 1µs to ~4s
			},
			[]string{"policy"},
		),

		policyErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_evaluation_errors_total",
				Help:      "Total number of failed policy evaluations",
			},
			[]string{"policy"},
		),

		finalDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "final_decisions_total",
				Help:      "Total number of combined decisions",
			},
			[]string{"decision"},
		),

		decisionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_duration_seconds",
				Help:      "Duration of a full decision run in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),

		policiesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policies_loaded",
				Help:      "Number of top-level policies currently loaded",
			},
		),

		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_reloads_total",
				Help:      "Total number of policy reload attempts",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		dm.policyDecisions,
		dm.policyDuration,
		dm.policyErrors,
		dm.finalDecisions,
		dm.decisionDuration,
		dm.policiesLoaded,
		dm.reloads,
	)

	return dm
}

// RecordPolicyDecision records one policy evaluation.
func (dm *DecisionMetrics) RecordPolicyDecision(policy, decision string, duration time.Duration) {
	dm.policyDecisions.WithLabelValues(policy, decision).Inc()
	dm.policyDuration.WithLabelValues(policy).Observe(duration.Seconds())
}

// RecordPolicyError records a failed policy evaluation.
func (dm *DecisionMetrics) RecordPolicyError(policy string) {
	dm.policyErrors.WithLabelValues(policy).Inc()
}

// RecordFinalDecision records the combined decision of one run.
func (dm *DecisionMetrics) RecordFinalDecision(decision string, duration time.Duration) {
	dm.finalDecisions.WithLabelValues(decision).Inc()
	dm.decisionDuration.Observe(duration.Seconds())
}

// RecordReload records a reload attempt.
func (dm *DecisionMetrics) RecordReload(loaded int, err error) {
	if err != nil {
		dm.reloads.WithLabelValues("failure").Inc()
		return
	}
	dm.reloads.WithLabelValues("success").Inc()
	dm.policiesLoaded.Set(float64(loaded))
}
