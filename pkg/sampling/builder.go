package sampling

import (
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/tailsim/pkg/sampling/condition"
)

// Builder turns PolicyCfg descriptions into evaluator trees.
type Builder struct {
	logger           *slog.Logger
	conditions       condition.Evaluator
	conditionTimeout time.Duration
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithConditionEvaluator sets the condition engine used by ottl_condition
// policies. Without it such policies fail to build.
func WithConditionEvaluator(e condition.Evaluator) BuilderOption {
	return func(b *Builder) {
		b.conditions = e
	}
}

// WithConditionTimeout bounds each call to the condition engine.
func WithConditionTimeout(d time.Duration) BuilderOption {
	return func(b *Builder) {
		b.conditionTimeout = d
	}
}

// NewBuilder creates a Builder. If logger is nil, slog.Default is used.
func NewBuilder(logger *slog.Logger, opts ...BuilderOption) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder{
		logger:           logger.With("component", "sampling.builder"),
		conditionTimeout: DefaultConditionTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildPolicies builds every top-level policy in order. Names must be
// non-empty and unique.
func (b *Builder) BuildPolicies(cfgs []PolicyCfg) ([]*Policy, error) {
	if err := checkNames(cfgs); err != nil {
		return nil, err
	}

	policies := make([]*Policy, 0, len(cfgs))
	for i := range cfgs {
		cfg := &cfgs[i]
		evaluator, err := b.Build(cfg)
		if err != nil {
			return nil, err
		}
		policies = append(policies, &Policy{
			Name:      cfg.Name,
			Type:      cfg.Type,
			Evaluator: evaluator,
		})
	}
	return policies, nil
}

// checkNames rejects empty and repeated policy names.
func checkNames(cfgs []PolicyCfg) error {
	seen := make(map[string]struct{}, len(cfgs))
	for i := range cfgs {
		name := cfgs[i].Name
		if name == "" {
			return fmt.Errorf("policy at index %d: %w", i, ErrEmptyPolicyName)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicatePolicyName, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Build returns the evaluator for cfg. An unknown policy type is logged and
// replaced by an evaluator that never samples.
func (b *Builder) Build(cfg *PolicyCfg) (PolicyEvaluator, error) {
	evaluator, err := b.build(cfg)
	if err != nil {
		return nil, &PolicyError{Policy: cfg.Name, Type: cfg.Type, Cause: err}
	}
	return evaluator, nil
}

func (b *Builder) build(cfg *PolicyCfg) (PolicyEvaluator, error) {
	logger := b.logger.With("policy", cfg.Name)

	switch cfg.Type {
	case AlwaysSample:
		return NewAlwaysSample(), nil
	case Latency:
		c := cfg.LatencyCfg
		return NewLatency(c.ThresholdMs, c.UpperThresholdMs)
	case NumericAttribute:
		c := cfg.NumericAttributeCfg
		return NewNumericAttributeFilter(c.Key, c.MinValue, c.MaxValue, c.InvertMatch)
	case Probabilistic:
		c := cfg.ProbabilisticCfg
		return NewProbabilisticSampler(c.HashSalt, c.SamplingPercentage)
	case StatusCode:
		return NewStatusCodeFilter(cfg.StatusCodeCfg.StatusCodes)
	case StringAttribute:
		c := cfg.StringAttributeCfg
		return NewStringAttributeFilter(StringAttributeOptions{
			Key:                  c.Key,
			Values:               c.Values,
			EnabledRegexMatching: c.EnabledRegexMatching,
			CacheMaxSize:         c.CacheMaxSize,
			InvertMatch:          c.InvertMatch,
		}, logger)
	case SpanCount:
		c := cfg.SpanCountCfg
		return NewSpanCount(c.MinSpans, c.MaxSpans)
	case TraceState:
		c := cfg.TraceStateCfg
		return NewTraceStateFilter(c.Key, c.Values)
	case BooleanAttribute:
		c := cfg.BooleanAttributeCfg
		if c.Key == "" {
			return nil, invalidf("boolean_attribute requires a key")
		}
		return NewBooleanAttributeFilter(c.Key, c.Value, c.InvertMatch), nil
	case OTTLCondition:
		c := cfg.OTTLConditionCfg
		if b.conditions == nil {
			return nil, ErrConditionUnavailable
		}
		return NewOTTLConditionFilter(b.conditions, c.SpanConditions, c.SpanEventConditions,
			condition.ErrorMode(c.ErrorMode), b.conditionTimeout, logger)
	case And:
		return b.buildAnd(cfg.AndCfg.SubPolicyCfg)
	case Drop:
		subs, err := b.buildSubPolicies(cfg.DropCfg.SubPolicyCfg)
		if err != nil {
			return nil, err
		}
		return NewDrop(subs)
	case Composite:
		return b.buildComposite(&cfg.CompositeCfg)
	default:
		logger.Warn("unknown sampling policy type, falling back to not_sampled", "type", cfg.Type)
		return NewNotSampled(), nil
	}
}

func (b *Builder) buildAnd(cfgs []PolicyCfg) (PolicyEvaluator, error) {
	subs, err := b.buildSubPolicies(cfgs)
	if err != nil {
		return nil, err
	}
	return NewAnd(subs)
}

func (b *Builder) buildSubPolicies(cfgs []PolicyCfg) ([]PolicyEvaluator, error) {
	if len(cfgs) == 0 {
		return nil, ErrNoSubPolicies
	}
	subs := make([]PolicyEvaluator, 0, len(cfgs))
	for i := range cfgs {
		sub, err := b.Build(&cfgs[i])
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (b *Builder) buildComposite(cfg *CompositeCfg) (PolicyEvaluator, error) {
	if len(cfg.SubPolicyCfg) == 0 {
		return nil, ErrNoSubPolicies
	}
	if cfg.MaxTotalSpansPerSecond < 0 {
		return nil, invalidf("composite max_total_spans_per_second must not be negative")
	}
	// Allocations are keyed by sub-policy name.
	if err := checkNames(cfg.SubPolicyCfg); err != nil {
		return nil, err
	}

	names := make([]string, len(cfg.SubPolicyCfg))
	for i := range cfg.SubPolicyCfg {
		names[i] = cfg.SubPolicyCfg[i].Name
	}
	rates := AllocateRates(cfg.MaxTotalSpansPerSecond, names, cfg.RateAllocation)

	params := make([]SubPolicyEvalParams, 0, len(cfg.SubPolicyCfg))
	for i := range cfg.SubPolicyCfg {
		sub := &cfg.SubPolicyCfg[i]

		var (
			evaluator PolicyEvaluator
			err       error
		)
		if sub.Type == And {
			evaluator, err = b.buildAnd(sub.AndCfg.SubPolicyCfg)
			if err != nil {
				err = &PolicyError{Policy: sub.Name, Type: sub.Type, Cause: err}
			}
		} else {
			evaluator, err = b.Build(sub)
		}
		if err != nil {
			return nil, err
		}

		params = append(params, SubPolicyEvalParams{
			Name:              sub.Name,
			Evaluator:         evaluator,
			MaxSpansPerSecond: rates[sub.Name],
		})
	}
	c, err := NewComposite(cfg.MaxTotalSpansPerSecond, params)
	if err != nil {
		return nil, err
	}
	return c, nil
}
