package audit

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig contains configuration for the retention pruner.
type RetentionConfig struct {
	// RetentionDays is how many days of decisions to keep.
	// 0 keeps decisions forever.
	RetentionDays int

	// MaxRecords caps the number of stored decisions, oldest removed first.
	// 0 means unlimited.
	MaxRecords int64

	// PruneSchedule is a standard cron expression, e.g. "0 3 * * *".
	// Empty disables scheduled pruning.
	PruneSchedule string
}

// Pruner enforces retention on a Store.
type Pruner struct {
	store     Store
	config    *RetentionConfig
	logger    *slog.Logger
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a retention pruner.
func NewPruner(store Store, config *RetentionConfig, logger *slog.Logger) *Pruner {
	if config == nil {
		config = &RetentionConfig{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pruner{
		store:  store,
		config: config,
		logger: logger.With("component", "audit.retention"),
		now:    time.Now,
	}
	p.scheduler = NewScheduler(p, logger)
	return p
}

// Prune deletes decisions older than the retention period, then the oldest
// decisions beyond MaxRecords. It returns the total number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
		deleted, err := p.PruneBefore(ctx, cutoff)
		if err != nil {
			return total, p.retentionError(err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, p.retentionError(err)
		}
		total += deleted
	}

	if total > 0 {
		p.logger.Info("audit pruning completed",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}
	return total, nil
}

// PruneBefore deletes decisions evaluated strictly before cutoff.
func (p *Pruner) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	end := cutoff.Add(-time.Nanosecond)
	deleted, err := p.store.Delete(ctx, &Query{EndTime: &end})
	if err != nil {
		return 0, err
	}
	p.logger.Debug("pruned decisions by age",
		"cutoff", cutoff,
		"deleted_count", deleted,
	)
	return deleted, nil
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.store.Count(ctx, &Query{})
	if err != nil {
		return 0, err
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	excess := int(count - p.config.MaxRecords)
	oldest, err := p.store.Query(ctx, &Query{Limit: excess, SortOrder: "asc"})
	if err != nil {
		return 0, err
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	ids := make([]string, len(oldest))
	for i, record := range oldest {
		ids[i] = record.ID
	}
	deleted, err := p.store.Delete(ctx, &Query{IDs: ids})
	if err != nil {
		return 0, err
	}

	p.logger.Debug("pruned decisions by count",
		"current_count", count,
		"max_records", p.config.MaxRecords,
		"deleted_count", deleted,
	)
	return deleted, nil
}

func (p *Pruner) retentionError(err error) error {
	return &RetentionError{
		RetentionDays: p.config.RetentionDays,
		MaxRecords:    p.config.MaxRecords,
		Cause:         err,
	}
}

// Start starts scheduled pruning.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops scheduled pruning and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled prune, or nil.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
