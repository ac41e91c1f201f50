package sampling

import (
	"context"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"mercator-hq/tailsim/pkg/tracemodel"
)

// DefaultHashSalt is used when a probabilistic policy has no hash salt.
const DefaultHashSalt = "default-hash-seed"

type probabilisticSampler struct {
	threshold  uint32
	hashSalt   string
	percentage float64
}

// NewProbabilisticSampler creates an evaluator that samples
// samplingPercentage percent of traces, deterministically by trace id.
// The same salt, trace id and percentage always produce the same decision.
func NewProbabilisticSampler(hashSalt string, samplingPercentage float64) (PolicyEvaluator, error) {
	if math.IsNaN(samplingPercentage) || samplingPercentage < 0 || samplingPercentage > 100 {
		return nil, invalidf("sampling_percentage %v must be within [0, 100]", samplingPercentage)
	}
	if hashSalt == "" {
		hashSalt = DefaultHashSalt
	}
	return &probabilisticSampler{
		threshold:  calculateThreshold(samplingPercentage / 100),
		hashSalt:   hashSalt,
		percentage: samplingPercentage,
	}, nil
}

func (s *probabilisticSampler) Evaluate(_ context.Context, trace *tracemodel.Trace) (Decision, error) {
	switch s.percentage {
	case 0:
		return NotSampled, nil
	case 100:
		return Sampled, nil
	}

	traceID := trace.TraceID()
	if traceID == "" {
		return NotSampled, nil
	}

	idBytes, err := hex.DecodeString(strings.ReplaceAll(traceID, "-", ""))
	if err != nil {
		return Error, fmt.Errorf("decoding trace id %q: %w", traceID, err)
	}

	if hashTraceID(s.hashSalt, idBytes) <= s.threshold {
		return Sampled, nil
	}
	return NotSampled, nil
}

// calculateThreshold converts a ratio in [0, 1] to a hash threshold.
func calculateThreshold(ratio float64) uint32 {
	return uint32(math.Floor(float64(math.MaxUint32) * ratio))
}

// hashTraceID computes FNV-1a 32 over the salt followed by the trace id bytes.
func hashTraceID(salt string, b []byte) uint32 {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(salt))
	_, _ = hasher.Write(b)
	return hasher.Sum32()
}
