// Package audit provides the decision log: every simulated decision run can
// be persisted as an immutable Record, listed, exported and pruned.
//
// # Architecture
//
//  1. Recorder - converts engine.DecisionResult values into records and
//     writes them from a background worker
//  2. Store - persists records (SQLiteStore, MemoryStore)
//  3. Pruner and Scheduler - enforce retention by age and record count,
//     optionally on a cron schedule
//  4. Exporters - write records as JSON or CSV
//
// # Storage
//
// SQLiteStore works with either registered driver:
//
//	"sqlite"  modernc.org/sqlite, pure Go
//	"sqlite3" github.com/mattn/go-sqlite3, cgo
//
// # Basic Usage
//
//	store, err := audit.NewSQLiteStore(&audit.SQLiteConfig{
//	    Driver:  "sqlite",
//	    Path:    "data/decisions.db",
//	    WALMode: true,
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	recorder := audit.NewRecorder(store, nil, logger)
//	defer recorder.Close()
//
//	result := eng.MakeDecision(ctx, trace)
//	if _, err := recorder.Record(ctx, result); err != nil {
//	    logger.Warn("audit record failed", "error", err)
//	}
//
// Closing the recorder drains queued records before returning.
package audit
