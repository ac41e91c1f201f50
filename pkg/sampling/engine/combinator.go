package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/tailsim/pkg/sampling"
	"mercator-hq/tailsim/pkg/telemetry/logging"
	"mercator-hq/tailsim/pkg/telemetry/tracing"
	"mercator-hq/tailsim/pkg/tracemodel"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// MakeDecision evaluates policies in order against t and combines their
// decisions. It records no metrics and emits no spans. If logger is nil,
// slog.Default is used.
func MakeDecision(ctx context.Context, t *tracemodel.Trace, policies []*sampling.Policy, logger *slog.Logger) *DecisionResult {
	if logger == nil {
		logger = slog.Default()
	}
	c := &combinator{
		logger:  logger,
		tracer:  noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
		metrics: noopMetrics{},
	}
	return c.run(ctx, t, policies)
}

// combinator folds per-policy decisions into one DecisionResult.
type combinator struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics MetricsRecorder
	trace   bool
}

func (c *combinator) run(ctx context.Context, t *tracemodel.Trace, policies []*sampling.Policy) *DecisionResult {
	start := time.Now()
	result := &DecisionResult{
		RunID:             uuid.NewString(),
		TraceID:           t.TraceID(),
		PolicyDecisions:   make(map[string]sampling.Decision, len(policies)),
		EvaluatedPolicies: make([]string, 0, len(policies)),
		SpanCount:         t.SpanCount(),
		EvaluatedAt:       start,
	}
	if c.trace {
		result.Trace = &EvaluationTrace{Steps: make([]*TraceStep, 0, len(policies))}
	}

	ctx = logging.WithRunID(ctx, result.RunID)
	ctx = logging.WithTraceID(ctx, result.TraceID)

	ctx, span := c.tracer.Start(ctx, "sampling.make_decision")
	defer span.End()
	tracing.SetRunAttributes(span, result.RunID, result.TraceID, result.SpanCount, len(policies))

	presence := make(map[sampling.Decision]bool, 6)
	downgrade := false

	for _, p := range policies {
		policyStart := time.Now()
		decision, err := c.evaluate(ctx, p, t)
		elapsed := time.Since(policyStart)

		result.EvaluatedPolicies = append(result.EvaluatedPolicies, p.Name)
		if err != nil {
			decision = sampling.Error
			presence[sampling.Error] = true
			result.PolicyDecisions[p.Name] = sampling.Error
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			result.Errors[p.Name] = err.Error()
			if sampling.IsPropagated(err) {
				downgrade = true
			}

			c.logger.WarnContext(logging.WithPolicy(ctx, p.Name), "policy evaluation failed",
				"policy_type", p.Type,
				"error", err,
			)
			c.metrics.RecordPolicyError(p.Name)
		} else {
			presence[decision] = true
			result.PolicyDecisions[p.Name] = decision
		}
		c.metrics.RecordPolicyDecision(p.Name, decision.String(), elapsed)

		if result.Trace != nil {
			step := &TraceStep{
				Policy:   p.Name,
				Type:     p.Type,
				Decision: decision,
				Duration: elapsed,
			}
			if err != nil {
				step.Error = err.Error()
			}
			result.Trace.Steps = append(result.Trace.Steps, step)
		}

		if decision == sampling.Dropped {
			break
		}
	}

	result.FinalDecision = resolveFinal(presence, downgrade)
	result.Duration = time.Since(start)
	if result.Trace != nil {
		result.Trace.TotalTime = result.Duration
	}

	tracing.SetOutcomeAttributes(span, result.FinalDecision.String(), len(result.Errors))
	c.metrics.RecordFinalDecision(result.FinalDecision.String(), result.Duration)

	c.logger.DebugContext(ctx, "sampling decision made",
		"final_decision", result.FinalDecision,
		"policies_evaluated", len(result.EvaluatedPolicies),
		"errors", len(result.Errors),
		"duration", result.Duration,
	)

	return result
}

// evaluate runs one policy. A returned Error decision, a panic or a done
// context all surface as a non-nil error.
func (c *combinator) evaluate(ctx context.Context, p *sampling.Policy, t *tracemodel.Trace) (decision sampling.Decision, err error) {
	ctx, span := c.tracer.Start(ctx, "sampling.policy")
	defer func() {
		if r := recover(); r != nil {
			decision = sampling.Error
			err = fmt.Errorf("%w: %v", ErrPolicyPanic, r)
		}
		if err != nil {
			err = &EvaluationError{Policy: p.Name, Cause: err}
			tracing.SetError(span, err)
		}
		tracing.SetPolicyAttributes(span, p.Name, string(p.Type), decision.String())
		span.End()
	}()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return sampling.Error, ctxErr
	}

	decision, err = p.Evaluator.Evaluate(ctx, t)
	if err == nil && decision == sampling.Error {
		err = ErrErrorDecision
	}
	return decision, err
}

// resolveFinal applies decision precedence to the set of decisions seen.
// downgrade is set when a policy failed with a propagated error; it outranks
// everything except Dropped.
func resolveFinal(presence map[sampling.Decision]bool, downgrade bool) sampling.Decision {
	switch {
	case presence[sampling.Dropped]:
		return sampling.Dropped
	case downgrade:
		return sampling.NotSampled
	case presence[sampling.InvertNotSampled]:
		return sampling.NotSampled
	case presence[sampling.Sampled]:
		return sampling.Sampled
	case presence[sampling.InvertSampled] && !presence[sampling.NotSampled]:
		return sampling.Sampled
	default:
		return sampling.NotSampled
	}
}
