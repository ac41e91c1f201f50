package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/tailsim/pkg/sampling/engine"
)

// RecorderConfig contains configuration for the decision recorder.
type RecorderConfig struct {
	// AsyncBuffer is the size of the write queue.
	// Default: 256
	AsyncBuffer int

	// WriteTimeout bounds one store write and how long Record waits on a
	// full queue.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		AsyncBuffer:  256,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes decision results to a Store from a background worker so
// that simulations never block on the database.
type Recorder struct {
	store      Store
	config     *RecorderConfig
	recordChan chan *Record
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	written  int64
	failures int64
}

// NewRecorder creates a recorder and starts its worker.
func NewRecorder(store Store, config *RecorderConfig, logger *slog.Logger) *Recorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = DefaultRecorderConfig().AsyncBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultRecorderConfig().WriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		store:      store,
		config:     config,
		recordChan: make(chan *Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "audit.recorder"),
		now:        time.Now,
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// Record converts res into a Record and queues it for writing. It returns
// the assigned record ID.
func (r *Recorder) Record(ctx context.Context, res *engine.DecisionResult) (string, error) {
	record := NewRecord(res)
	record.ID = uuid.New().String()
	record.RecordedAt = r.now().UTC()

	select {
	case <-r.done:
		return "", &RecorderError{RecordID: record.ID, Cause: ErrRecorderClosed}
	default:
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case r.recordChan <- record:
		r.logger.DebugContext(ctx, "decision queued",
			"record_id", record.ID,
			"run_id", record.RunID,
			"final_decision", record.FinalDecision,
		)
		return record.ID, nil
	case <-timer.C:
		r.logger.ErrorContext(ctx, "audit queue full, dropping record",
			"record_id", record.ID,
			"queue_capacity", r.config.AsyncBuffer,
		)
		return "", &RecorderError{RecordID: record.ID, Cause: context.DeadlineExceeded}
	case <-ctx.Done():
		return "", &RecorderError{RecordID: record.ID, Cause: ctx.Err()}
	case <-r.done:
		return "", &RecorderError{RecordID: record.ID, Cause: ErrRecorderClosed}
	}
}

// Stats returns the number of records written and failed so far.
func (r *Recorder) Stats() (written, failures int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written, r.failures
}

// Close stops accepting records, drains the queue and waits for pending
// writes. It does not close the store.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := r.store.Store(ctx, record)

	r.mu.Lock()
	if err != nil {
		r.failures++
	} else {
		r.written++
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("failed to store decision record",
			"record_id", record.ID,
			"run_id", record.RunID,
			"error", err,
		)
		return
	}

	duration := time.Since(start)
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
		)
	}
}
