package sampling

import (
	"context"
	"math"

	"mercator-hq/tailsim/pkg/tracemodel"
)

type numericAttributeFilter struct {
	key         string
	minValue    int64
	maxValue    int64
	invertMatch bool
}

// NewNumericAttributeFilter creates an evaluator that samples traces whose
// resource or span attribute key holds a number within [minValue, maxValue].
// Integer attributes are compared exactly; floating point attributes are
// compared against the bounds converted to float64.
func NewNumericAttributeFilter(key string, minValue, maxValue int64, invertMatch bool) (PolicyEvaluator, error) {
	if key == "" {
		return nil, invalidf("numeric_attribute requires a key")
	}
	if minValue > maxValue {
		return nil, invalidf("numeric_attribute min_value %d is greater than max_value %d", minValue, maxValue)
	}
	return &numericAttributeFilter{
		key:         key,
		minValue:    minValue,
		maxValue:    maxValue,
		invertMatch: invertMatch,
	}, nil
}

func (f *numericAttributeFilter) Evaluate(_ context.Context, trace *tracemodel.Trace) (Decision, error) {
	inRange := func(attrs tracemodel.Attributes) bool {
		raw, ok := attrs.Get(f.key)
		if !ok {
			return false
		}
		return f.contains(raw)
	}

	if f.invertMatch {
		return invertHasResourceOrSpanWithCondition(
			trace,
			func(r *tracemodel.Resource) bool { return !inRange(r.Attributes) },
			func(s *tracemodel.Span) bool { return !inRange(s.Attributes) },
		), nil
	}
	return hasResourceOrSpanWithCondition(
		trace,
		func(r *tracemodel.Resource) bool { return inRange(r.Attributes) },
		func(s *tracemodel.Span) bool { return inRange(s.Attributes) },
	), nil
}

func (f *numericAttributeFilter) contains(raw any) bool {
	if n, ok := tracemodel.IntValue(raw); ok {
		return n >= f.minValue && n <= f.maxValue
	}
	v, ok := tracemodel.NumericValue(raw)
	if !ok || v >= math.MaxInt64 {
		// float64(math.MaxInt64) rounds up to 2^63, above every int64 bound.
		return false
	}
	return v >= float64(f.minValue) && v <= float64(f.maxValue)
}
