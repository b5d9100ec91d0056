// Package sqlite implements the append-only SQLite log store for the
// mirralism toolkit.
package sqlite

// Schema DDL. Tables are append-only logs; statements are idempotent so an
// existing database keeps its history across runs.
const (
	createScans = `CREATE TABLE IF NOT EXISTS scans (
    scan_id TEXT PRIMARY KEY,
    root TEXT NOT NULL,
    total_files INTEGER NOT NULL,
    violations INTEGER NOT NULL,
    compliance REAL NOT NULL,
    created_at TEXT NOT NULL
);`

	createViolations = `CREATE TABLE IF NOT EXISTS violations (
    violation_id TEXT PRIMARY KEY,
    scan_id TEXT NOT NULL,
    rule_id TEXT NOT NULL,
    path TEXT NOT NULL,
    severity TEXT NOT NULL,
    action TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (scan_id) REFERENCES scans(scan_id)
);`

	createQuarantineEvents = `CREATE TABLE IF NOT EXISTS quarantine_events (
    event_id TEXT PRIMARY KEY,
    batch_id TEXT NOT NULL,
    operation TEXT NOT NULL,
    original_path TEXT NOT NULL,
    quarantined_path TEXT NOT NULL,
    rule_id TEXT,
    error TEXT,
    created_at TEXT NOT NULL
);`

	createPersonalityScores = `CREATE TABLE IF NOT EXISTS personality_scores (
    score_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    score REAL NOT NULL,
    bonus REAL NOT NULL,
    matches INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createJournalEntries = `CREATE TABLE IF NOT EXISTS journal_entries (
    entry_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    recorded_at TEXT NOT NULL,
    fix TEXT NOT NULL,
    mode TEXT,
    duration_ms INTEGER NOT NULL,
    text TEXT NOT NULL,
    hash TEXT NOT NULL UNIQUE,
    score REAL NOT NULL,
    imported_at TEXT NOT NULL
);`

	createAudits = `CREATE TABLE IF NOT EXISTS audits (
    audit_id TEXT PRIMARY KEY,
    root TEXT NOT NULL,
    findings INTEGER NOT NULL,
    high INTEGER NOT NULL,
    score REAL NOT NULL,
    created_at TEXT NOT NULL
);`
)

// Index DDL for the read paths.
const (
	idxScansCreated      = `CREATE INDEX IF NOT EXISTS idx_scans_created ON scans(created_at);`
	idxViolationsScan    = `CREATE INDEX IF NOT EXISTS idx_violations_scan ON violations(scan_id);`
	idxViolationsCreated = `CREATE INDEX IF NOT EXISTS idx_violations_created ON violations(created_at);`
	idxQuarantineBatch   = `CREATE INDEX IF NOT EXISTS idx_quarantine_batch ON quarantine_events(batch_id);`
	idxScoresCreated     = `CREATE INDEX IF NOT EXISTS idx_scores_created ON personality_scores(created_at);`
	idxJournalRecorded   = `CREATE INDEX IF NOT EXISTS idx_journal_recorded ON journal_entries(recorded_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createScans,
	createViolations,
	createQuarantineEvents,
	createPersonalityScores,
	createJournalEntries,
	createAudits,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxScansCreated,
	idxViolationsScan,
	idxViolationsCreated,
	idxQuarantineBatch,
	idxScoresCreated,
	idxJournalRecorded,
}
