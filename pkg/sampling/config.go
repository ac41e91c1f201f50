package sampling

// PolicyType is the kind of a sampling policy.
type PolicyType string

const (
	AlwaysSample     PolicyType = "always_sample"
	Latency          PolicyType = "latency"
	NumericAttribute PolicyType = "numeric_attribute"
	Probabilistic    PolicyType = "probabilistic"
	StatusCode       PolicyType = "status_code"
	StringAttribute  PolicyType = "string_attribute"
	SpanCount        PolicyType = "span_count"
	TraceState       PolicyType = "trace_state"
	BooleanAttribute PolicyType = "boolean_attribute"
	OTTLCondition    PolicyType = "ottl_condition"
	And              PolicyType = "and"
	Drop             PolicyType = "drop"
	Composite        PolicyType = "composite"
)

// PolicyCfg is the declarative description of one policy. Only the section
// matching Type is read.
type PolicyCfg struct {
	Name string     `yaml:"name" json:"name"`
	Type PolicyType `yaml:"type" json:"type"`

	LatencyCfg          LatencyCfg          `yaml:"latency,omitempty" json:"latency,omitempty"`
	NumericAttributeCfg NumericAttributeCfg `yaml:"numeric_attribute,omitempty" json:"numeric_attribute,omitempty"`
	ProbabilisticCfg    ProbabilisticCfg    `yaml:"probabilistic,omitempty" json:"probabilistic,omitempty"`
	StatusCodeCfg       StatusCodeCfg       `yaml:"status_code,omitempty" json:"status_code,omitempty"`
	StringAttributeCfg  StringAttributeCfg  `yaml:"string_attribute,omitempty" json:"string_attribute,omitempty"`
	SpanCountCfg        SpanCountCfg        `yaml:"span_count,omitempty" json:"span_count,omitempty"`
	TraceStateCfg       TraceStateCfg       `yaml:"trace_state,omitempty" json:"trace_state,omitempty"`
	BooleanAttributeCfg BooleanAttributeCfg `yaml:"boolean_attribute,omitempty" json:"boolean_attribute,omitempty"`
	OTTLConditionCfg    OTTLConditionCfg    `yaml:"ottl_condition,omitempty" json:"ottl_condition,omitempty"`
	AndCfg              AndCfg              `yaml:"and,omitempty" json:"and,omitempty"`
	DropCfg             DropCfg             `yaml:"drop,omitempty" json:"drop,omitempty"`
	CompositeCfg        CompositeCfg        `yaml:"composite,omitempty" json:"composite,omitempty"`
}

// LatencyCfg configures a latency policy. UpperThresholdMs of zero means no
// upper bound.
type LatencyCfg struct {
	ThresholdMs      int64 `yaml:"threshold_ms" json:"threshold_ms"`
	UpperThresholdMs int64 `yaml:"upper_threshold_ms" json:"upper_threshold_ms"`
}

// NumericAttributeCfg configures a numeric attribute policy.
type NumericAttributeCfg struct {
	Key         string `yaml:"key" json:"key"`
	MinValue    int64  `yaml:"min_value" json:"min_value"`
	MaxValue    int64  `yaml:"max_value" json:"max_value"`
	InvertMatch bool   `yaml:"invert_match" json:"invert_match"`
}

// ProbabilisticCfg configures a probabilistic policy.
type ProbabilisticCfg struct {
	HashSalt           string  `yaml:"hash_salt" json:"hash_salt"`
	SamplingPercentage float64 `yaml:"sampling_percentage" json:"sampling_percentage"`
}

// StatusCodeCfg configures a status code policy.
type StatusCodeCfg struct {
	StatusCodes []string `yaml:"status_codes" json:"status_codes"`
}

// StringAttributeCfg configures a string attribute policy.
type StringAttributeCfg struct {
	Key                  string   `yaml:"key" json:"key"`
	Values               []string `yaml:"values" json:"values"`
	EnabledRegexMatching bool     `yaml:"enabled_regex_matching" json:"enabled_regex_matching"`
	CacheMaxSize         int      `yaml:"cache_max_size" json:"cache_max_size"`
	InvertMatch          bool     `yaml:"invert_match" json:"invert_match"`
}

// SpanCountCfg configures a span count policy. MaxSpans of zero means no
// upper bound.
type SpanCountCfg struct {
	MinSpans int `yaml:"min_spans" json:"min_spans"`
	MaxSpans int `yaml:"max_spans" json:"max_spans"`
}

// TraceStateCfg configures a trace state policy.
type TraceStateCfg struct {
	Key    string   `yaml:"key" json:"key"`
	Values []string `yaml:"values" json:"values"`
}

// BooleanAttributeCfg configures a boolean attribute policy.
type BooleanAttributeCfg struct {
	Key         string `yaml:"key" json:"key"`
	Value       bool   `yaml:"value" json:"value"`
	InvertMatch bool   `yaml:"invert_match" json:"invert_match"`
}

// OTTLConditionCfg configures an ottl_condition policy.
type OTTLConditionCfg struct {
	ErrorMode           string   `yaml:"error_mode" json:"error_mode"`
	SpanConditions      []string `yaml:"span" json:"span"`
	SpanEventConditions []string `yaml:"spanevent" json:"spanevent"`
}

// AndCfg configures an and policy.
type AndCfg struct {
	SubPolicyCfg []PolicyCfg `yaml:"and_sub_policy" json:"and_sub_policy"`
}

// DropCfg configures a drop policy.
type DropCfg struct {
	SubPolicyCfg []PolicyCfg `yaml:"drop_sub_policy" json:"drop_sub_policy"`
}

// CompositeCfg configures a composite policy.
type CompositeCfg struct {
	MaxTotalSpansPerSecond int64               `yaml:"max_total_spans_per_second" json:"max_total_spans_per_second"`
	SubPolicyCfg           []PolicyCfg         `yaml:"composite_sub_policy" json:"composite_sub_policy"`
	RateAllocation         []RateAllocationCfg `yaml:"rate_allocation" json:"rate_allocation"`
}

// RateAllocationCfg assigns a percentage of a composite budget to one
// sub-policy.
type RateAllocationCfg struct {
	Policy  string  `yaml:"policy" json:"policy"`
	Percent float64 `yaml:"percent" json:"percent"`
}
