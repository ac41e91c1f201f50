package sampling

import (
	"context"
	"errors"
	"testing"

	"mercator-hq/tailsim/pkg/sampling/condition"
	"mercator-hq/tailsim/pkg/tracemodel"
)

func TestBuilder_BuildEveryType(t *testing.T) {
	cond := condition.Func(func(context.Context, condition.Request) (*condition.Result, error) {
		return &condition.Result{Sampled: true}, nil
	})
	builder := NewBuilder(nil, WithConditionEvaluator(cond))

	cfgs := []PolicyCfg{
		{Name: "always", Type: AlwaysSample},
		{Name: "latency", Type: Latency, LatencyCfg: LatencyCfg{ThresholdMs: 100}},
		{Name: "numeric", Type: NumericAttribute, NumericAttributeCfg: NumericAttributeCfg{Key: "k", MinValue: 1, MaxValue: 2}},
		{Name: "probabilistic", Type: Probabilistic, ProbabilisticCfg: ProbabilisticCfg{SamplingPercentage: 10}},
		{Name: "status", Type: StatusCode, StatusCodeCfg: StatusCodeCfg{StatusCodes: []string{"ERROR"}}},
		{Name: "string", Type: StringAttribute, StringAttributeCfg: StringAttributeCfg{Key: "env", Values: []string{"prod"}}},
		{Name: "spans", Type: SpanCount, SpanCountCfg: SpanCountCfg{MinSpans: 1}},
		{Name: "tracestate", Type: TraceState, TraceStateCfg: TraceStateCfg{Key: "vendor", Values: []string{"A"}}},
		{Name: "boolean", Type: BooleanAttribute, BooleanAttributeCfg: BooleanAttributeCfg{Key: "cached", Value: true}},
		{Name: "ottl", Type: OTTLCondition, OTTLConditionCfg: OTTLConditionCfg{SpanConditions: []string{"true"}}},
		{Name: "and", Type: And, AndCfg: AndCfg{SubPolicyCfg: []PolicyCfg{{Name: "a", Type: AlwaysSample}}}},
		{Name: "drop", Type: Drop, DropCfg: DropCfg{SubPolicyCfg: []PolicyCfg{{Name: "a", Type: AlwaysSample}}}},
		{Name: "composite", Type: Composite, CompositeCfg: CompositeCfg{
			MaxTotalSpansPerSecond: 100,
			SubPolicyCfg:           []PolicyCfg{{Name: "a", Type: AlwaysSample}},
		}},
	}

	policies, err := builder.BuildPolicies(cfgs)
	if err != nil {
		t.Fatalf("BuildPolicies() error = %v", err)
	}
	if len(policies) != len(cfgs) {
		t.Fatalf("built %d policies, want %d", len(policies), len(cfgs))
	}
	for i, p := range policies {
		if p.Name != cfgs[i].Name || p.Type != cfgs[i].Type {
			t.Errorf("policy %d = %s/%s, want %s/%s", i, p.Name, p.Type, cfgs[i].Name, cfgs[i].Type)
		}
		if p.Evaluator == nil {
			t.Errorf("policy %s has no evaluator", p.Name)
		}
	}
}

func TestBuilder_UnknownTypeFallsBack(t *testing.T) {
	builder := NewBuilder(nil)
	evaluator, err := builder.Build(&PolicyCfg{Name: "mystery", Type: "rate_limiting"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	trace := newTrace(resource(nil, span(nil)))
	if got := mustEvaluate(t, evaluator, trace); got != NotSampled {
		t.Errorf("fallback evaluator = %v, want NotSampled", got)
	}
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfgs    []PolicyCfg
		opts    []BuilderOption
		wantErr error
	}{
		{
			name:    "empty name",
			cfgs:    []PolicyCfg{{Type: AlwaysSample}},
			wantErr: ErrEmptyPolicyName,
		},
		{
			name:    "duplicate name",
			cfgs:    []PolicyCfg{{Name: "a", Type: AlwaysSample}, {Name: "a", Type: AlwaysSample}},
			wantErr: ErrDuplicatePolicyName,
		},
		{
			name:    "percentage out of range",
			cfgs:    []PolicyCfg{{Name: "p", Type: Probabilistic, ProbabilisticCfg: ProbabilisticCfg{SamplingPercentage: 150}}},
			wantErr: ErrInvalidPolicy,
		},
		{
			name:    "and without sub-policies",
			cfgs:    []PolicyCfg{{Name: "and", Type: And}},
			wantErr: ErrNoSubPolicies,
		},
		{
			name:    "drop without sub-policies",
			cfgs:    []PolicyCfg{{Name: "drop", Type: Drop}},
			wantErr: ErrNoSubPolicies,
		},
		{
			name:    "composite without sub-policies",
			cfgs:    []PolicyCfg{{Name: "c", Type: Composite}},
			wantErr: ErrNoSubPolicies,
		},
		{
			name: "composite duplicate sub-policy names",
			cfgs: []PolicyCfg{{Name: "c", Type: Composite, CompositeCfg: CompositeCfg{
				MaxTotalSpansPerSecond: 100,
				SubPolicyCfg: []PolicyCfg{
					{Name: "same", Type: AlwaysSample},
					{Name: "same", Type: StatusCode, StatusCodeCfg: StatusCodeCfg{StatusCodes: []string{"ERROR"}}},
				},
			}}},
			wantErr: ErrDuplicatePolicyName,
		},
		{
			name: "composite unnamed sub-policy",
			cfgs: []PolicyCfg{{Name: "c", Type: Composite, CompositeCfg: CompositeCfg{
				MaxTotalSpansPerSecond: 100,
				SubPolicyCfg:           []PolicyCfg{{Type: AlwaysSample}},
			}}},
			wantErr: ErrEmptyPolicyName,
		},
		{
			name:    "ottl without condition engine",
			cfgs:    []PolicyCfg{{Name: "o", Type: OTTLCondition, OTTLConditionCfg: OTTLConditionCfg{SpanConditions: []string{"true"}}}},
			wantErr: ErrConditionUnavailable,
		},
		{
			name: "invalid nested sub-policy",
			cfgs: []PolicyCfg{{Name: "and", Type: And, AndCfg: AndCfg{SubPolicyCfg: []PolicyCfg{
				{Name: "bad", Type: StatusCode},
			}}}},
			wantErr: ErrInvalidPolicy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(nil, tt.opts...).BuildPolicies(tt.cfgs)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("BuildPolicies() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuilder_PolicyError(t *testing.T) {
	_, err := NewBuilder(nil).Build(&PolicyCfg{Name: "p", Type: Probabilistic, ProbabilisticCfg: ProbabilisticCfg{SamplingPercentage: -5}})

	var policyErr *PolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("error = %T %v, want *PolicyError", err, err)
	}
	if policyErr.Policy != "p" || policyErr.Type != Probabilistic {
		t.Errorf("PolicyError = %+v", policyErr)
	}
}

func TestBuilder_CompositeWithAnd(t *testing.T) {
	cfg := &PolicyCfg{
		Name: "composite",
		Type: Composite,
		CompositeCfg: CompositeCfg{
			MaxTotalSpansPerSecond: 1000,
			SubPolicyCfg: []PolicyCfg{
				{Name: "errors", Type: StatusCode, StatusCodeCfg: StatusCodeCfg{StatusCodes: []string{"ERROR"}}},
				{Name: "prod-and-small", Type: And, AndCfg: AndCfg{SubPolicyCfg: []PolicyCfg{
					{Name: "prod", Type: StringAttribute, StringAttributeCfg: StringAttributeCfg{Key: "env", Values: []string{"prod"}}},
					{Name: "small", Type: SpanCount, SpanCountCfg: SpanCountCfg{MinSpans: 1, MaxSpans: 10}},
				}}},
			},
			RateAllocation: []RateAllocationCfg{{Policy: "errors", Percent: 75}},
		},
	}

	evaluator, err := NewBuilder(nil).Build(cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	c, ok := evaluator.(*CompositeEvaluator)
	if !ok {
		t.Fatalf("evaluator = %T, want *CompositeEvaluator", evaluator)
	}
	alloc := c.Allocations()
	if alloc["errors"] != 750 || alloc["prod-and-small"] != 500 {
		t.Errorf("Allocations() = %v", alloc)
	}

	errSpan := span(nil)
	errSpan.Status.Code = tracemodel.StatusCodeError
	trace := newTrace(resource(tracemodel.Attributes{"env": "prod"}, errSpan))
	if got := mustEvaluate(t, c, trace); got != Sampled {
		t.Errorf("Evaluate() = %v, want Sampled", got)
	}

	trace = newTrace(resource(tracemodel.Attributes{"env": "dev"}, errSpan))
	if got := mustEvaluate(t, c, trace); got != NotSampled {
		t.Errorf("Evaluate() = %v, want NotSampled", got)
	}
}
