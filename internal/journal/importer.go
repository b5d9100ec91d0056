// Package journal imports SuperWhisper voice recordings from the local
// recordings folder into the log store, repairing their timestamps and
// scoring their text on the way in.
package journal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/logging"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/personality"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/timestamp"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// MetaFileName is the per-recording metadata file SuperWhisper writes.
const MetaFileName = "meta.json"

// ErrNoRecordings is returned when dir holds no recording folders.
var ErrNoRecordings = errors.New("no recordings found")

// meta mirrors the fields of meta.json the importer reads. datetime is kept
// raw because exports carry strings or epoch numbers.
type meta struct {
	Datetime  json.RawMessage `json:"datetime"`
	Result    string          `json:"result"`
	RawResult string          `json:"rawResult"`
	Duration  float64         `json:"duration"`
	ModeName  string          `json:"modeName"`
}

// Sink is the part of the store the importer writes to.
type Sink interface {
	HasJournalHash(hash string) (bool, error)
	AppendJournalEntry(e types.JournalEntry) (string, error)
}

// Importer reads recordings and appends them to a Sink.
type Importer struct {
	sink   Sink
	scorer *personality.Scorer
	policy timestamp.Policy
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewImporter returns an Importer. Timestamps without a zone are read in loc
// (time.Local when nil).
func NewImporter(sink Sink, scorer *personality.Scorer, loc *time.Location, logger *zap.Logger) *Importer {
	if loc == nil {
		loc = time.Local
	}
	return &Importer{
		sink:   sink,
		scorer: scorer,
		policy: timestamp.DefaultPolicy,
		loc:    loc,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// ItemError records a recording that could not be imported.
type ItemError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// ImportResult summarises one ImportDir run.
type ImportResult struct {
	Dir        string      `json:"dir"`
	Imported   int         `json:"imported"`
	Skipped    int         `json:"skipped"`    // empty text
	Duplicates int         `json:"duplicates"` // already in the store
	Repaired   int         `json:"repaired"`   // timestamp replaced by fallback
	Errors     []ItemError `json:"errors,omitempty"`
}

// ImportDir imports every recording folder directly under dir, in name
// order. A bad recording is recorded in Errors and does not stop the run;
// store failures do.
func (im *Importer) ImportDir(ctx context.Context, dir string) (*ImportResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read recordings dir: %w", err)
	}
	var folders []string
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}
	sort.Strings(folders)

	res := &ImportResult{Dir: dir}
	found := 0
	for _, name := range folders {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		folder := filepath.Join(dir, name)
		m, info, err := readMeta(folder)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		found++
		if err != nil {
			res.Errors = append(res.Errors, ItemError{Source: name, Error: err.Error()})
			im.logger.Warn("unreadable recording", zap.String("source", name), zap.Error(err))
			continue
		}

		text := strings.TrimSpace(m.Result)
		if text == "" {
			text = strings.TrimSpace(m.RawResult)
		}
		if text == "" {
			res.Skipped++
			continue
		}

		recorded, fix := im.policy.Repair(rawDatetime(m.Datetime), info.ModTime(), im.now(), im.loc)
		if fix != timestamp.FixNone {
			res.Repaired++
			im.logger.Info("timestamp repaired",
				zap.String("source", name),
				zap.String("fix", string(fix)),
				zap.Time("recorded_at", recorded))
		}

		hash := contentHash(text, recorded)
		dup, err := im.sink.HasJournalHash(hash)
		if err != nil {
			return res, err
		}
		if dup {
			res.Duplicates++
			continue
		}

		score := im.scorer.Analyze(text)
		entry := types.JournalEntry{
			Source:     name,
			RecordedAt: recorded,
			Fix:        string(fix),
			Mode:       m.ModeName,
			DurationMS: int64(m.Duration),
			Text:       text,
			Hash:       hash,
			Score:      score.Score,
			ImportedAt: im.now(),
		}
		if _, err := im.sink.AppendJournalEntry(entry); err != nil {
			if errors.Is(err, types.ErrDuplicate) {
				res.Duplicates++
				continue
			}
			return res, err
		}
		res.Imported++
	}

	if found == 0 {
		return res, fmt.Errorf("%w in %s", ErrNoRecordings, dir)
	}
	im.logger.Info("import complete",
		zap.String("dir", dir),
		zap.Int("imported", res.Imported),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("repaired", res.Repaired))
	return res, nil
}

// readMeta loads folder/meta.json and returns the folder's FileInfo for the
// timestamp fallback.
func readMeta(folder string) (*meta, os.FileInfo, error) {
	data, err := os.ReadFile(filepath.Join(folder, MetaFileName))
	if err != nil {
		return nil, nil, err
	}
	info, err := os.Stat(folder)
	if err != nil {
		return nil, nil, err
	}
	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", MetaFileName, err)
	}
	return &m, info, nil
}

// rawDatetime turns the datetime field into a string for timestamp.Parse.
// JSON numbers are formatted without exponent so epoch values survive.
func rawDatetime(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatInt(int64(f), 10)
	}
	return string(raw)
}

// contentHash identifies an entry by its text and repaired time.
func contentHash(text string, recorded time.Time) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(recorded.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(h.Sum(nil))
}
