package sampling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/tailsim/pkg/sampling/condition"
	"mercator-hq/tailsim/pkg/tracemodel"
)

// DefaultConditionTimeout bounds a single call to the condition engine.
const DefaultConditionTimeout = 30 * time.Second

type ottlConditionFilter struct {
	evaluator           condition.Evaluator
	spanConditions      []string
	spanEventConditions []string
	errorMode           condition.ErrorMode
	timeout             time.Duration
	logger              *slog.Logger
}

type conditionOutcome struct {
	result *condition.Result
	err    error
}

// NewOTTLConditionFilter creates an evaluator that delegates matching to an
// external condition engine.
//
// A call that does not answer within timeout yields Error and
// ErrConditionTimeout. Other engine failures yield Error in propagate mode
// and NotSampled in ignore mode. In propagate mode every failure, timeouts
// included, is wrapped in a PropagatedError so the whole run is downgraded
// to NotSampled.
func NewOTTLConditionFilter(
	evaluator condition.Evaluator,
	spanConditions, spanEventConditions []string,
	errorMode condition.ErrorMode,
	timeout time.Duration,
	logger *slog.Logger,
) (PolicyEvaluator, error) {
	if evaluator == nil {
		return nil, ErrConditionUnavailable
	}
	if len(spanConditions) == 0 && len(spanEventConditions) == 0 {
		return nil, invalidf("ottl_condition requires at least one span or span event condition")
	}
	mode, err := condition.ParseErrorMode(string(errorMode))
	if err != nil {
		return nil, invalidf("%v", err)
	}
	if timeout <= 0 {
		timeout = DefaultConditionTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ottlConditionFilter{
		evaluator:           evaluator,
		spanConditions:      spanConditions,
		spanEventConditions: spanEventConditions,
		errorMode:           mode,
		timeout:             timeout,
		logger:              logger,
	}, nil
}

func (f *ottlConditionFilter) Evaluate(ctx context.Context, trace *tracemodel.Trace) (Decision, error) {
	payload, err := tracemodel.MarshalJSON(trace)
	if err != nil {
		return f.failure(fmt.Errorf("encoding trace: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req := condition.Request{
		TraceJSON:           payload,
		SpanConditions:      f.spanConditions,
		SpanEventConditions: f.spanEventConditions,
		ErrorMode:           f.errorMode,
	}

	done := make(chan conditionOutcome, 1)
	go func() {
		res, err := f.evaluator.EvaluateCondition(ctx, req)
		done <- conditionOutcome{result: res, err: err}
	}()

	var out conditionOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Error, f.propagate(fmt.Errorf("%w after %s", ErrConditionTimeout, f.timeout))
		}
		return Error, ctx.Err()
	}

	switch {
	case out.err != nil && errors.Is(out.err, context.DeadlineExceeded):
		return Error, f.propagate(fmt.Errorf("%w after %s", ErrConditionTimeout, f.timeout))
	case out.err != nil:
		return f.failure(fmt.Errorf("%w: %v", ErrConditionUnavailable, out.err))
	case out.result == nil:
		return f.failure(fmt.Errorf("%w: empty response", ErrConditionUnavailable))
	case out.result.Error != "":
		return f.failure(fmt.Errorf("condition evaluation failed: %s", out.result.Error))
	case out.result.Sampled:
		return Sampled, nil
	default:
		return NotSampled, nil
	}
}

func (f *ottlConditionFilter) failure(err error) (Decision, error) {
	if f.errorMode == condition.ErrorModeIgnore {
		f.logger.Warn("ignoring condition engine failure", "error", err)
		return NotSampled, nil
	}
	return Error, f.propagate(err)
}

func (f *ottlConditionFilter) propagate(err error) error {
	if f.errorMode == condition.ErrorModePropagate {
		return &PropagatedError{Cause: err}
	}
	return err
}
