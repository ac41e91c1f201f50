package sampling

import (
	"context"

	"mercator-hq/tailsim/pkg/tracemodel"
)

const nanosPerMilli = 1_000_000

type latency struct {
	lowerNanos uint64
	upperNanos uint64
}

// NewLatency creates an evaluator that samples traces whose overall duration
// reaches thresholdMs. When upperThresholdMs is positive the duration must be
// above thresholdMs and at most upperThresholdMs.
//
// The duration is accumulated span by span from the earliest start and the
// latest end seen so far, and the thresholds are checked after every span.
func NewLatency(thresholdMs, upperThresholdMs int64) (PolicyEvaluator, error) {
	if thresholdMs < 0 || upperThresholdMs < 0 {
		return nil, invalidf("latency thresholds must not be negative")
	}
	if upperThresholdMs != 0 && upperThresholdMs < thresholdMs {
		return nil, invalidf("latency upper_threshold_ms %d is less than threshold_ms %d", upperThresholdMs, thresholdMs)
	}
	return &latency{
		lowerNanos: uint64(thresholdMs) * nanosPerMilli,
		upperNanos: uint64(upperThresholdMs) * nanosPerMilli,
	}, nil
}

func (l *latency) Evaluate(_ context.Context, trace *tracemodel.Trace) (Decision, error) {
	var minStart, maxEnd uint64
	seen := false

	return hasSpanWithCondition(trace, func(span *tracemodel.Span) bool {
		if !seen {
			minStart, maxEnd = span.StartTimeUnixNano, span.EndTimeUnixNano
			seen = true
		} else {
			minStart = min(minStart, span.StartTimeUnixNano)
			maxEnd = max(maxEnd, span.EndTimeUnixNano)
		}

		var duration uint64
		if maxEnd > minStart {
			duration = maxEnd - minStart
		}

		if l.upperNanos == 0 {
			return duration >= l.lowerNanos
		}
		return duration > l.lowerNanos && duration <= l.upperNanos
	}), nil
}
