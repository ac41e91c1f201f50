package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	// DriverModernc is the pure Go driver registered by modernc.org/sqlite.
	DriverModernc = "sqlite"

	// DriverCGO is the cgo driver registered by github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite store.
type SQLiteConfig struct {
	// Driver selects the database/sql driver: "sqlite" or "sqlite3".
	// Default: "sqlite"
	Driver string

	// Path is the database file path. Parent directories are created.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       DriverModernc,
		Path:         "data/decisions.db",
		MaxOpenConns: 4,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens the database, creates the schema and verifies its
// version.
func NewSQLiteStore(config *SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audit.sqlite")

	driver := config.Driver
	if driver == "" {
		driver = DriverModernc
	}
	if driver != DriverModernc && driver != DriverCGO {
		return nil, NewStorageError("sqlite", "open", fmt.Errorf("%w: %q", ErrUnknownDriver, driver))
	}

	if dir := filepath.Dir(config.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError("sqlite", "mkdir", err)
		}
	}

	db, err := sql.Open(driver, config.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("SQLite store initialized",
		"driver", driver,
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError("sqlite", "enable_wal", err)
		}
	}

	if s.config.BusyTimeout > 0 {
		stmt := fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())
		if _, err := s.db.Exec(stmt); err != nil {
			return NewStorageError("sqlite", "set_busy_timeout", err)
		}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store persists a record.
func (s *SQLiteStore) Store(ctx context.Context, record *Record) error {
	decisions, err := json.Marshal(record.PolicyDecisions)
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}
	evaluated, err := json.Marshal(record.EvaluatedPolicies)
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}

	var errorsVal any
	if len(record.Errors) > 0 {
		data, err := json.Marshal(record.Errors)
		if err != nil {
			return NewStorageError("sqlite", "store", err)
		}
		errorsVal = string(data)
	}

	_, err = s.db.ExecContext(ctx, insertRecord,
		record.ID, record.RunID, record.TraceID,
		record.FinalDecision, string(decisions), string(evaluated), errorsVal, len(record.Errors),
		record.SpanCount,
		record.EvaluatedAt.UnixNano(), int64(record.Duration), record.RecordedAt.UnixNano(),
	)
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves records matching the filters.
func (s *SQLiteStore) Query(ctx context.Context, query *Query) ([]*Record, error) {
	if query == nil {
		query = &Query{}
	}
	where, args := buildWhereClause(query)

	sqlQuery := "SELECT " + selectColumns + " FROM decisions" + where

	order := "DESC"
	if strings.EqualFold(query.SortOrder, "asc") {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY evaluated_at %s, id %s", order, order)

	limit := DefaultQueryLimit
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Count returns the number of records matching the filters.
func (s *SQLiteStore) Count(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}
	where, args := buildWhereClause(query)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM decisions"+where, args...).Scan(&count)
	if err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes records matching the filters.
func (s *SQLiteStore) Delete(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}
	where, args := buildWhereClause(query)

	result, err := s.db.ExecContext(ctx, "DELETE FROM decisions"+where, args...)
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	s.logger.Debug("SQLite store closed")
	return nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// buildWhereClause returns the WHERE clause, including the keyword, and its
// arguments. An empty query yields an empty clause.
func buildWhereClause(query *Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "evaluated_at >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "evaluated_at <= ?")
		args = append(args, query.EndTime.UnixNano())
	}

	if len(query.IDs) > 0 {
		placeholders := strings.Repeat("?, ", len(query.IDs)-1) + "?"
		conditions = append(conditions, "id IN ("+placeholders+")")
		for _, id := range query.IDs {
			args = append(args, id)
		}
	}
	if query.RunID != "" {
		conditions = append(conditions, "run_id = ?")
		args = append(args, query.RunID)
	}
	if query.TraceID != "" {
		conditions = append(conditions, "trace_id = ?")
		args = append(args, query.TraceID)
	}
	if query.FinalDecision != "" {
		conditions = append(conditions, "final_decision = ?")
		args = append(args, query.FinalDecision)
	}
	if query.Policy != "" {
		// evaluated_policies is a JSON array of quoted names.
		name, _ := json.Marshal(query.Policy)
		conditions = append(conditions, `evaluated_policies LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(string(name))+"%")
	}
	if query.ErrorsOnly {
		conditions = append(conditions, "error_count > 0")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanRow(rows *sql.Rows) (*Record, error) {
	var record Record
	var decisions, evaluated string
	var errorsVal sql.NullString
	var evaluatedAt, durationNs, recordedAt int64

	err := rows.Scan(
		&record.ID, &record.RunID, &record.TraceID,
		&record.FinalDecision, &decisions, &evaluated, &errorsVal,
		&record.SpanCount,
		&evaluatedAt, &durationNs, &recordedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(decisions), &record.PolicyDecisions); err != nil {
		return nil, fmt.Errorf("decode policy_decisions: %w", err)
	}
	if err := json.Unmarshal([]byte(evaluated), &record.EvaluatedPolicies); err != nil {
		return nil, fmt.Errorf("decode evaluated_policies: %w", err)
	}
	if errorsVal.Valid && errorsVal.String != "" {
		if err := json.Unmarshal([]byte(errorsVal.String), &record.Errors); err != nil {
			return nil, fmt.Errorf("decode errors: %w", err)
		}
	}

	record.EvaluatedAt = time.Unix(0, evaluatedAt).UTC()
	record.Duration = time.Duration(durationNs)
	record.RecordedAt = time.Unix(0, recordedAt).UTC()

	return &record, nil
}
