package audit

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the decision log schema.
// Timestamps are stored as Unix nanoseconds so both drivers read them back
// identically.
const Schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    trace_id TEXT NOT NULL,

    -- Outcome
    final_decision TEXT NOT NULL,
    policy_decisions TEXT NOT NULL,
    evaluated_policies TEXT NOT NULL,
    errors TEXT,
    error_count INTEGER NOT NULL DEFAULT 0,

    -- Input
    span_count INTEGER NOT NULL,

    -- Timing
    evaluated_at INTEGER NOT NULL,
    duration_ns INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_evaluated_at ON decisions(evaluated_at);
CREATE INDEX IF NOT EXISTS idx_decisions_trace_id ON decisions(trace_id);
CREATE INDEX IF NOT EXISTS idx_decisions_run_id ON decisions(run_id);
CREATE INDEX IF NOT EXISTS idx_decisions_final_decision ON decisions(final_decision);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const selectColumns = `id, run_id, trace_id, final_decision, policy_decisions, evaluated_policies,
	errors, span_count, evaluated_at, duration_ns, recorded_at`

const insertRecord = `
INSERT INTO decisions (
	id, run_id, trace_id,
	final_decision, policy_decisions, evaluated_policies, errors, error_count,
	span_count,
	evaluated_at, duration_ns, recorded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`
