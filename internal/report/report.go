// Package report writes timestamped JSON reports into the reports directory.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

const stampLayout = "20060102_150405"

// ErrNoReport is returned by Latest when no report of a kind exists.
var ErrNoReport = errors.New("no report found")

var kindPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Writer stores reports under Dir.
type Writer struct {
	Dir string

	now func() time.Time
}

// NewWriter returns a Writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, now: time.Now}
}

// Write marshals v as indented JSON into <Dir>/<kind>_<YYYYMMDD_HHMMSS>.json
// and returns the path. A second report of the same kind within one second
// gets a _N suffix, starting at 1.
func (w *Writer) Write(kind string, v any) (string, error) {
	if !kindPattern.MatchString(kind) {
		return "", fmt.Errorf("invalid report kind %q", kind)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding %s report: %w", kind, err)
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}

	now := time.Now
	if w.now != nil {
		now = w.now
	}
	base := kind + "_" + now().Format(stampLayout)
	path := filepath.Join(w.Dir, base+".json")
	for n := 1; exists(path); n++ {
		path = filepath.Join(w.Dir, fmt.Sprintf("%s_%d.json", base, n))
	}
	if err := writeAtomic(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

// Latest returns the newest report path for kind.
func (w *Writer) Latest(kind string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(w.Dir, kind+"_*.json"))
	if err != nil {
		return "", fmt.Errorf("listing %s reports: %w", kind, err)
	}
	nameRe := regexp.MustCompile(`^` + regexp.QuoteMeta(kind) + `_(\d{8}_\d{6})(?:_(\d+))?\.json$`)
	type entry struct {
		path  string
		stamp string
		seq   int
	}
	var entries []entry
	for _, m := range matches {
		sub := nameRe.FindStringSubmatch(filepath.Base(m))
		if sub == nil {
			continue
		}
		seq := 0
		if sub[2] != "" {
			seq, _ = strconv.Atoi(sub[2])
		}
		entries = append(entries, entry{path: m, stamp: sub[1], seq: seq})
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("%s: %w", kind, ErrNoReport)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].stamp != entries[j].stamp {
			return entries[i].stamp > entries[j].stamp
		}
		return entries[i].seq > entries[j].seq
	})
	return entries[0].path, nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// writeAtomic writes data to a temp file in the target directory, syncs it
// and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
