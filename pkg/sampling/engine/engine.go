package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"mercator-hq/tailsim/pkg/sampling"
	"mercator-hq/tailsim/pkg/telemetry/tracing"
	"mercator-hq/tailsim/pkg/tracemodel"

	"go.opentelemetry.io/otel/trace/noop"
)

// Engine holds a built policy list and makes sampling decisions with it.
// It is safe for concurrent use.
type Engine struct {
	// policies contains the built top-level policies in evaluation order
	policies []*sampling.Policy

	// policiesMu protects the policies slice for concurrent access
	policiesMu sync.RWMutex

	builder    *sampling.Builder
	combinator *combinator
	config     *EngineConfig
	logger     *slog.Logger

	// source provides policy configurations, nil for engines fed directly
	source PolicySource

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an engine with no policies. Policies are installed with
// SetPolicies or LoadPolicyConfigs.
func New(config *EngineConfig, logger *slog.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultEngineConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sampling.engine")

	c := &combinator{
		logger:  logger,
		tracer:  config.Tracer,
		metrics: config.Metrics,
		trace:   config.EnableTrace,
	}
	if c.tracer == nil {
		c.tracer = noop.NewTracerProvider().Tracer(tracing.InstrumentationName)
	}
	if c.metrics == nil {
		c.metrics = noopMetrics{}
	}

	opts := []sampling.BuilderOption{sampling.WithConditionTimeout(config.ConditionTimeout)}
	if config.Conditions != nil {
		opts = append(opts, sampling.WithConditionEvaluator(config.Conditions))
	}

	return &Engine{
		builder:    sampling.NewBuilder(logger, opts...),
		combinator: c,
		config:     config,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}, nil
}

// NewWithSource creates an engine, loads its initial policies from source
// and starts watching the source for changes. Close stops the watcher.
func NewWithSource(ctx context.Context, config *EngineConfig, source PolicySource, logger *slog.Logger) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("policy source cannot be nil")
	}

	e, err := New(config, logger)
	if err != nil {
		return nil, err
	}
	e.source = source

	if err := e.ReloadPolicies(ctx); err != nil {
		return nil, fmt.Errorf("failed to load initial policies: %w", err)
	}

	if err := e.startWatching(ctx); err != nil {
		return nil, err
	}

	return e, nil
}

// MakeDecision evaluates the current policy list against t.
func (e *Engine) MakeDecision(ctx context.Context, t *tracemodel.Trace) *DecisionResult {
	e.policiesMu.RLock()
	policies := e.policies
	e.policiesMu.RUnlock()

	if len(policies) == 0 {
		e.logger.Warn("no policies loaded")
	}

	return e.combinator.run(ctx, t, policies)
}

// SetPolicies atomically replaces the policy list. Names must be non-empty
// and unique, and the list must not exceed MaxPolicies.
func (e *Engine) SetPolicies(policies []*sampling.Policy) error {
	if len(policies) > e.config.MaxPolicies {
		return &LimitError{Count: len(policies), Max: e.config.MaxPolicies}
	}

	seen := make(map[string]struct{}, len(policies))
	for i, p := range policies {
		if p == nil || p.Evaluator == nil {
			return fmt.Errorf("policy at index %d: %w: missing evaluator", i, sampling.ErrInvalidPolicy)
		}
		if p.Name == "" {
			return fmt.Errorf("policy at index %d: %w", i, sampling.ErrEmptyPolicyName)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: %q", sampling.ErrDuplicatePolicyName, p.Name)
		}
		seen[p.Name] = struct{}{}
	}

	installed := make([]*sampling.Policy, len(policies))
	copy(installed, policies)

	e.policiesMu.Lock()
	e.policies = installed
	e.policiesMu.Unlock()

	return nil
}

// LoadPolicyConfigs builds cfgs with the engine's builder and installs the
// result. On error the current policy list is kept.
func (e *Engine) LoadPolicyConfigs(cfgs []sampling.PolicyCfg) error {
	if len(cfgs) > e.config.MaxPolicies {
		return &LimitError{Count: len(cfgs), Max: e.config.MaxPolicies}
	}

	policies, err := e.builder.BuildPolicies(cfgs)
	if err != nil {
		return err
	}
	return e.SetPolicies(policies)
}

// ReloadPolicies reloads policies from the source.
func (e *Engine) ReloadPolicies(ctx context.Context) error {
	if e.source == nil {
		return ErrNoSource
	}

	e.logger.Info("reloading policies")

	cfgs, err := e.source.LoadPolicies(ctx)
	if err == nil {
		err = e.LoadPolicyConfigs(cfgs)
	}
	if err != nil {
		e.combinator.metrics.RecordPolicyReload(0, err)
		e.notifyReload(0, err)
		return &ReloadError{Source: fmt.Sprintf("%T", e.source), Cause: err}
	}

	e.combinator.metrics.RecordPolicyReload(len(cfgs), nil)
	e.notifyReload(len(cfgs), nil)
	e.logger.Info("policies reloaded successfully",
		"policy_count", len(cfgs),
	)

	return nil
}

func (e *Engine) notifyReload(loaded int, err error) {
	if e.config.OnReload != nil {
		e.config.OnReload(loaded, err)
	}
}

// Policies returns the current policy list (for introspection).
func (e *Engine) Policies() []*sampling.Policy {
	e.policiesMu.RLock()
	defer e.policiesMu.RUnlock()

	// Return a copy to prevent external modification
	policies := make([]*sampling.Policy, len(e.policies))
	copy(policies, e.policies)
	return policies
}

// startWatching starts watching the source for policy changes.
func (e *Engine) startWatching(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	eventCh, err := e.source.Watch(watchCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start policy watcher: %w", err)
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()

		for {
			select {
			case <-e.stopCh:
				return
			case event, ok := <-eventCh:
				if !ok {
					return
				}
				e.handlePolicyEvent(watchCtx, event)
			}
		}
	}()

	return nil
}

// handlePolicyEvent handles a policy file change event.
func (e *Engine) handlePolicyEvent(ctx context.Context, event PolicyEvent) {
	if event.Error != nil {
		e.logger.Error("policy watcher error", "error", event.Error, "path", event.Path)
		return
	}

	e.logger.Info("policy file changed",
		"type", event.Type,
		"path", event.Path,
	)

	if err := e.ReloadPolicies(ctx); err != nil {
		e.logger.Error("failed to reload policies after file change",
			"error", err,
			"path", event.Path,
		)
	}
}

// Close stops the source watcher. It is safe to call more than once.
func (e *Engine) Close() error {
	e.stopOnce.Do(func() {
		close(e.stopCh)
	})
	e.wg.Wait()
	return nil
}
