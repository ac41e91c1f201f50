package config

import "time"

// Config is the root configuration structure for tailsim.
type Config struct {
	// Engine contains decision engine settings.
	Engine EngineConfig `yaml:"engine"`

	// Audit contains configuration for the decision log.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig contains configuration for the decision engine.
type EngineConfig struct {
	// PoliciesFile is the YAML or JSON file holding the sampling policies.
	// Default: "./policies.yaml"
	PoliciesFile string `yaml:"policies_file"`

	// ConditionTimeout bounds each call to the external condition engine.
	// Default: 30s
	ConditionTimeout time.Duration `yaml:"condition_timeout"`

	// ConditionCommand is the executable answering ottl_condition policies.
	// Empty disables ottl_condition policies.
	ConditionCommand string `yaml:"condition_command"`

	// ConditionArgs are passed to ConditionCommand.
	ConditionArgs []string `yaml:"condition_args"`

	// MaxPolicies is the maximum number of top-level policies.
	// Default: 100
	MaxPolicies int `yaml:"max_policies"`

	// TraceEnabled records a per-policy evaluation trace in every result.
	// Default: false
	TraceEnabled bool `yaml:"trace_enabled"`
}

// AuditConfig contains configuration for the decision log.
type AuditConfig struct {
	// Enabled controls whether decisions are persisted.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Driver selects the SQLite driver.
	// Options: "sqlite3" (cgo), "sqlite" (pure Go)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file. ":memory:" keeps the log in memory.
	// Default: "data/decisions.db"
	Path string `yaml:"path"`

	// RetentionDays removes records older than this many days (0 = keep forever).
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for retention pruning.
	// Default: "0 3 * * *" (daily at 03:00)
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords caps the number of stored records (0 = unlimited).
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Listen is the address the metrics endpoint is served on while
	// simulate --watch runs. Empty disables the endpoint.
	Listen string `yaml:"listen"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "tailsim"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric name subsystem.
	// Default: "sampling"
	Subsystem string `yaml:"subsystem"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio", "parent" (follow the parent span only)
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// ServiceName is the service name in traces.
	// Default: "tailsim"
	ServiceName string `yaml:"service_name"`
}
