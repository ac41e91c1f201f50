package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/tailsim/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Subsystem: "sampling",
	}
}

func TestCollector_NewCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(testConfig(), registry)

	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
	if !collector.Enabled() {
		t.Error("Collector should be enabled")
	}

	defaulted := NewCollector(&config.MetricsConfig{}, nil)
	if defaulted.config.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Namespace = %q, want default", defaulted.config.Namespace)
	}
	if defaulted.Registry() == nil {
		t.Error("expected a fresh registry")
	}
}

func TestCollector_RecordPolicyDecision(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	tests := []struct {
		name     string
		policy   string
		decision string
		times    int
	}{
		{name: "sampled", policy: "errors", decision: "sampled", times: 3},
		{name: "not sampled", policy: "errors", decision: "not_sampled", times: 1},
		{name: "dropped", policy: "health-checks", decision: "dropped", times: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.times; i++ {
				collector.RecordPolicyDecision(tt.policy, tt.decision, 50*time.Microsecond)
			}
			got := testutil.ToFloat64(collector.decisionMetrics.policyDecisions.WithLabelValues(tt.policy, tt.decision))
			if got != float64(tt.times) {
				t.Errorf("policy_decisions_total = %v, want %d", got, tt.times)
			}
		})
	}
}

func TestCollector_RecordPolicyError(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordPolicyError("condition")
	collector.RecordPolicyError("condition")

	if got := testutil.ToFloat64(collector.decisionMetrics.policyErrors.WithLabelValues("condition")); got != 2 {
		t.Errorf("policy_evaluation_errors_total = %v, want 2", got)
	}
}

func TestCollector_RecordFinalDecision(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordFinalDecision("sampled", time.Millisecond)

	if got := testutil.ToFloat64(collector.decisionMetrics.finalDecisions.WithLabelValues("sampled")); got != 1 {
		t.Errorf("final_decisions_total = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(collector.decisionMetrics.decisionDuration); got != 1 {
		t.Errorf("decision_duration_seconds series = %d, want 1", got)
	}
}

func TestCollector_RecordPolicyReload(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordPolicyReload(4, nil)
	collector.RecordPolicyReload(0, errors.New("bad file"))

	if got := testutil.ToFloat64(collector.decisionMetrics.policiesLoaded); got != 4 {
		t.Errorf("policies_loaded = %v, want 4", got)
	}
	if got := testutil.ToFloat64(collector.decisionMetrics.reloads.WithLabelValues("failure")); got != 1 {
		t.Errorf("policy_reloads_total{failure} = %v, want 1", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, nil)

	collector.RecordPolicyDecision("errors", "sampled", time.Millisecond)
	collector.RecordPolicyError("errors")
	collector.RecordFinalDecision("sampled", time.Millisecond)

	if got := testutil.CollectAndCount(collector.decisionMetrics.policyDecisions); got != 0 {
		t.Errorf("disabled collector recorded %d series", got)
	}
	if got := testutil.CollectAndCount(collector.decisionMetrics.finalDecisions); got != 0 {
		t.Errorf("disabled collector recorded %d final series", got)
	}
}

func TestCollector_PolicyCardinality(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.cardinalityLimiter = NewCardinalityLimiter(2)

	collector.RecordPolicyDecision("a", "sampled", 0)
	collector.RecordPolicyDecision("b", "sampled", 0)
	collector.RecordPolicyDecision("c", "sampled", 0)

	if got := testutil.ToFloat64(collector.decisionMetrics.policyDecisions.WithLabelValues(OtherPolicy, "sampled")); got != 1 {
		t.Errorf("overflow policy should be folded into %q, got %v", OtherPolicy, got)
	}
	if got := collector.cardinalityLimiter.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordFinalDecision("dropped", time.Millisecond)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `test_sampling_final_decisions_total{decision="dropped"} 1`) {
		t.Errorf("metrics output missing final decision counter:\n%s", body)
	}
}
