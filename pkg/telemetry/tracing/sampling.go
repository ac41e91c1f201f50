package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampler strategies accepted in telemetry.tracing.sampler.
const (
	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio"

	// SamplerParent records a simulation only when it runs under an
	// already-sampled parent span.
	SamplerParent = "parent"
)

// createSampler returns the SDK sampler for a strategy. Every strategy is
// wrapped in ParentBased so a sampled parent always wins; the strategy only
// decides root spans. An empty strategy means always.
//
//	telemetry:
//	  tracing:
//	    sampler: ratio
//	    sample_ratio: 0.1  # record 10% of decision runs
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	var root sdktrace.Sampler

	switch strategy {
	case SamplerAlways, "":
		root = sdktrace.AlwaysSample()
	case SamplerNever, SamplerParent:
		root = sdktrace.NeverSample()
	case SamplerRatio:
		if ratio < 0 || ratio > 1 {
			return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %g", ratio)
		}
		root = sdktrace.TraceIDRatioBased(ratio)
	default:
		return nil, fmt.Errorf("unknown sampler strategy %q (valid: always, never, ratio, parent)", strategy)
	}

	if strategy == SamplerNever {
		return sdktrace.ParentBased(root, sdktrace.WithRemoteParentSampled(root), sdktrace.WithLocalParentSampled(root)), nil
	}
	return sdktrace.ParentBased(root), nil
}
