package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/tailsim/pkg/audit"
	"mercator-hq/tailsim/pkg/cli"
	"mercator-hq/tailsim/pkg/config"
	"mercator-hq/tailsim/pkg/sampling/condition"
	"mercator-hq/tailsim/pkg/sampling/engine"
	"mercator-hq/tailsim/pkg/telemetry/logging"
	"mercator-hq/tailsim/pkg/telemetry/metrics"
	"mercator-hq/tailsim/pkg/telemetry/tracing"
)

// components holds the collaborators shared by every command.
type components struct {
	cfg        *config.Config
	logger     *slog.Logger
	tracer     *tracing.Tracer
	metrics    *metrics.Collector
	conditions *condition.Lazy
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile == "" {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.LoadConfigWithEnvOverrides(cfgFile)
	}
	if err != nil {
		return nil, cli.NewConfigError("config", fmt.Sprintf("failed to load config: %v", err))
	}

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	return cfg, nil
}

func newComponents(cmd *cobra.Command) (*components, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}

	c := &components{
		cfg:     cfg,
		logger:  logger.Slog(),
		tracer:  tracer,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
	}
	if cfg.Engine.ConditionCommand != "" {
		runtime := condition.NewCommand(cfg.Engine.ConditionCommand, cfg.Engine.ConditionArgs...)
		c.conditions = condition.NewLazy(runtime, c.logger)
	}
	return c, nil
}

// engineConfig translates the application config into an engine config.
func (c *components) engineConfig() *engine.EngineConfig {
	ec := engine.DefaultEngineConfig().
		WithConditionTimeout(c.cfg.Engine.ConditionTimeout).
		WithMaxPolicies(c.cfg.Engine.MaxPolicies).
		WithTrace(c.cfg.Engine.TraceEnabled).
		WithTracer(c.tracer.Tracer()).
		WithMetrics(c.metrics)
	if c.conditions != nil {
		ec.WithConditions(c.conditions)
	}
	return ec
}

func (c *components) openAuditStore() (*audit.SQLiteStore, error) {
	sc := audit.DefaultSQLiteConfig()
	if c.cfg.Audit.Driver != "" {
		sc.Driver = c.cfg.Audit.Driver
	}
	if c.cfg.Audit.Path != "" {
		sc.Path = c.cfg.Audit.Path
	}
	return audit.NewSQLiteStore(sc, c.logger)
}

func (c *components) retention() *audit.RetentionConfig {
	return &audit.RetentionConfig{
		RetentionDays: c.cfg.Audit.RetentionDays,
		MaxRecords:    c.cfg.Audit.MaxRecords,
		PruneSchedule: c.cfg.Audit.PruneSchedule,
	}
}

// Close stops the condition runtime and flushes pending spans.
func (c *components) Close(ctx context.Context) error {
	var errs []error
	if c.conditions != nil {
		errs = append(errs, c.conditions.Close())
	}
	errs = append(errs, c.tracer.Shutdown(ctx))
	return errors.Join(errs...)
}
