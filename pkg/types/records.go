package types

import "time"

// ViolationRecord is one row of the violations log.
type ViolationRecord struct {
	ID        string    `json:"id"`
	ScanID    string    `json:"scan_id"`
	RuleID    string    `json:"rule_id"`
	Path      string    `json:"path"`
	Severity  string    `json:"severity"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

// ScanRecord summarises one scan; Compliance is a percentage in [0, 100].
type ScanRecord struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	TotalFiles int       `json:"total_files"`
	Violations int       `json:"violations"`
	Compliance float64   `json:"compliance"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuarantineEvent records one file moved into, or restored from, quarantine.
type QuarantineEvent struct {
	ID              string    `json:"id"`
	BatchID         string    `json:"batch_id"`
	Operation       string    `json:"operation"` // "quarantine" or "restore"
	OriginalPath    string    `json:"original_path"`
	QuarantinedPath string    `json:"quarantined_path"`
	RuleID          string    `json:"rule_id,omitempty"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Quarantine event operations.
const (
	OpQuarantine = "quarantine"
	OpRestore    = "restore"
)

// ScoreRecord is one personality score computation.
type ScoreRecord struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Excerpt   string    `json:"excerpt"`
	Score     float64   `json:"score"`
	Bonus     float64   `json:"bonus"`
	Matches   int       `json:"matches"`
	CreatedAt time.Time `json:"created_at"`
}

// JournalEntry is one imported voice-journal recording.
type JournalEntry struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recorded_at"`
	Fix        string    `json:"fix"`
	Mode       string    `json:"mode,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Text       string    `json:"text"`
	Hash       string    `json:"hash"`
	Score      float64   `json:"score"`
	ImportedAt time.Time `json:"imported_at"`
}

// AuditRecord summarises one security audit run.
type AuditRecord struct {
	ID        string    `json:"id"`
	Root      string    `json:"root"`
	Findings  int       `json:"findings"`
	High      int       `json:"high"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
