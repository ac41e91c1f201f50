package condition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrClosed is returned by a Lazy runtime after Close.
var ErrClosed = errors.New("condition runtime closed")

// Lazy initialises a Runtime on the first evaluation and reuses it for all
// later calls. A failed Init is retried on the next evaluation.
type Lazy struct {
	runtime Runtime
	logger  *slog.Logger

	mu          sync.Mutex
	initialized bool
	closed      bool
}

// NewLazy wraps runtime.
func NewLazy(runtime Runtime, logger *slog.Logger) *Lazy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lazy{
		runtime: runtime,
		logger:  logger.With("component", "condition.runtime"),
	}
}

// EvaluateCondition initialises the runtime if needed and delegates to it.
func (l *Lazy) EvaluateCondition(ctx context.Context, req Request) (*Result, error) {
	if err := l.ensureInit(ctx); err != nil {
		return nil, err
	}
	return l.runtime.EvaluateCondition(ctx, req)
}

func (l *Lazy) ensureInit(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if l.initialized {
		return nil
	}

	if err := l.runtime.Init(ctx); err != nil {
		l.logger.Warn("condition runtime initialisation failed", "error", err)
		return fmt.Errorf("initialising condition runtime: %w", err)
	}
	l.initialized = true
	l.logger.Debug("condition runtime initialised")
	return nil
}

// Initialized reports whether the runtime has been initialised.
func (l *Lazy) Initialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.initialized
}

// Close closes the runtime if it was initialised. Later evaluations fail
// with ErrClosed.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if !l.initialized {
		return nil
	}
	l.initialized = false
	return l.runtime.Close()
}
