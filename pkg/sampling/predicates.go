package sampling

import "mercator-hq/tailsim/pkg/tracemodel"

// hasSpanWithCondition returns Sampled as soon as one span satisfies
// shouldSample. Traversal is resource spans, scope spans, spans, in order.
func hasSpanWithCondition(trace *tracemodel.Trace, shouldSample func(*tracemodel.Span) bool) Decision {
	if trace == nil {
		return NotSampled
	}
	for i := range trace.ResourceSpans {
		if hasInstrumentationLibrarySpanWithCondition(trace.ResourceSpans[i].ScopeSpans, shouldSample) {
			return Sampled
		}
	}
	return NotSampled
}

// hasResourceOrSpanWithCondition returns Sampled as soon as a resource
// satisfies shouldSampleResource or one of its spans satisfies
// shouldSampleSpan. The resource is checked before its spans.
func hasResourceOrSpanWithCondition(
	trace *tracemodel.Trace,
	shouldSampleResource func(*tracemodel.Resource) bool,
	shouldSampleSpan func(*tracemodel.Span) bool,
) Decision {
	if trace == nil {
		return NotSampled
	}
	for i := range trace.ResourceSpans {
		rs := &trace.ResourceSpans[i]
		if shouldSampleResource(&rs.Resource) {
			return Sampled
		}
		if hasInstrumentationLibrarySpanWithCondition(rs.ScopeSpans, shouldSampleSpan) {
			return Sampled
		}
	}
	return NotSampled
}

// invertHasResourceOrSpanWithCondition returns InvertNotSampled as soon as a
// resource or span fails its predicate, and InvertSampled only when every
// resource and every span satisfies it.
func invertHasResourceOrSpanWithCondition(
	trace *tracemodel.Trace,
	shouldSampleResource func(*tracemodel.Resource) bool,
	shouldSampleSpan func(*tracemodel.Span) bool,
) Decision {
	if trace == nil {
		return InvertSampled
	}
	for i := range trace.ResourceSpans {
		rs := &trace.ResourceSpans[i]
		if !shouldSampleResource(&rs.Resource) {
			return InvertNotSampled
		}
		if !invertHasInstrumentationLibrarySpanWithCondition(rs.ScopeSpans, shouldSampleSpan) {
			return InvertNotSampled
		}
	}
	return InvertSampled
}

func hasInstrumentationLibrarySpanWithCondition(scopes []tracemodel.ScopeSpans, check func(*tracemodel.Span) bool) bool {
	for i := range scopes {
		spans := scopes[i].Spans
		for j := range spans {
			if check(&spans[j]) {
				return true
			}
		}
	}
	return false
}

func invertHasInstrumentationLibrarySpanWithCondition(scopes []tracemodel.ScopeSpans, check func(*tracemodel.Span) bool) bool {
	for i := range scopes {
		spans := scopes[i].Spans
		for j := range spans {
			if !check(&spans[j]) {
				return false
			}
		}
	}
	return true
}
