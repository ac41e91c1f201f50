package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on tailsim spans.
const (
	AttrRunID         = "tailsim.run_id"
	AttrTraceID       = "tailsim.trace.id"
	AttrSpanCount     = "tailsim.trace.span_count"
	AttrPolicyCount   = "tailsim.policy.count"
	AttrPolicyName    = "tailsim.policy.name"
	AttrPolicyType    = "tailsim.policy.type"
	AttrDecision      = "tailsim.decision"
	AttrFinalDecision = "tailsim.final_decision"
	AttrErrorCount    = "tailsim.error_count"
)

// SetRunAttributes sets the attributes describing one decision run.
//
// Example:
//
//	SetRunAttributes(span, runID, "5b8efff798038103d269b633813fc60c", 12, 4)
func SetRunAttributes(span trace.Span, runID, traceID string, spanCount, policyCount int) {
	span.SetAttributes(
		attribute.String(AttrRunID, runID),
		attribute.String(AttrTraceID, traceID),
		attribute.Int(AttrSpanCount, spanCount),
		attribute.Int(AttrPolicyCount, policyCount),
	)
}

// SetPolicyAttributes sets the attributes describing one policy evaluation.
func SetPolicyAttributes(span trace.Span, name, policyType, decision string) {
	span.SetAttributes(
		attribute.String(AttrPolicyName, name),
		attribute.String(AttrPolicyType, policyType),
		attribute.String(AttrDecision, decision),
	)
}

// SetOutcomeAttributes sets the combined decision and error count of a run.
func SetOutcomeAttributes(span trace.Span, finalDecision string, errorCount int) {
	span.SetAttributes(
		attribute.String(AttrFinalDecision, finalDecision),
		attribute.Int(AttrErrorCount, errorCount),
	)
}
