// Package quarantine moves violating files into timestamped folders under
// .mirralism/quarantine and restores them from the folder manifest.
package quarantine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/logging"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// ManifestFileName is written at the top of every batch folder.
const ManifestFileName = "manifest.json"

// batchLayout names batch folders; it sorts lexically by time.
const batchLayout = "20060102_150405"

// filesDirName holds the moved files inside a batch folder so they never
// collide with the manifest.
const filesDirName = "files"

// Quarantine errors.
var (
	ErrNothingToQuarantine = errors.New("nothing to quarantine")
	ErrBatchNotFound       = errors.New("quarantine batch not found")
	ErrOutsideRoot         = errors.New("path escapes project root")
)

// Item status values.
const (
	StatusMoved    = "moved"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
	StatusRestored = "restored"
	StatusExists   = "exists"
)

// Item is one file in a batch.
type Item struct {
	OriginalPath    string `json:"original_path"`    // relative to the project root
	QuarantinedPath string `json:"quarantined_path"` // relative to the batch folder
	RuleID          string `json:"rule_id"`
	Severity        string `json:"severity"`
	Size            int64  `json:"size"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
}

// Manifest describes one quarantine batch.
type Manifest struct {
	BatchID   string    `json:"batch_id"`
	Folder    string    `json:"folder"`
	CreatedAt time.Time `json:"created_at"`
	Root      string    `json:"root"`
	Items     []Item    `json:"items"`
}

// Moved returns the number of items that reached quarantine.
func (m *Manifest) Moved() int {
	n := 0
	for _, it := range m.Items {
		if it.Status == StatusMoved {
			n++
		}
	}
	return n
}

// Failed returns the items whose move failed.
func (m *Manifest) Failed() []Item {
	var out []Item
	for _, it := range m.Items {
		if it.Status == StatusFailed {
			out = append(out, it)
		}
	}
	return out
}

// Manager owns one project's quarantine directory.
type Manager struct {
	root   string
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// New returns a Manager moving files from root into dir.
func New(root, dir string, logger *zap.Logger) *Manager {
	return &Manager{
		root:   root,
		dir:    dir,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// Dir returns the quarantine directory.
func (m *Manager) Dir() string { return m.dir }

// Quarantine moves every violation with the quarantine action into a new
// batch folder, preserving relative paths, and writes the manifest. Other
// violations are recorded as skipped. A failure to move one file is recorded
// on its item and does not stop the batch.
func (m *Manager) Quarantine(ctx context.Context, violations []types.Violation) (*Manifest, error) {
	if len(violations) == 0 {
		return nil, ErrNothingToQuarantine
	}

	created := m.now()
	folder, err := m.createBatchDir(created)
	if err != nil {
		return nil, err
	}

	man := &Manifest{
		BatchID:   uuid.Must(uuid.NewV7()).String(),
		Folder:    filepath.Base(folder),
		CreatedAt: created.UTC(),
		Root:      m.root,
	}

	for _, v := range violations {
		item := Item{
			OriginalPath:    v.Path,
			QuarantinedPath: path.Join(filesDirName, v.Path),
			RuleID:          v.RuleID,
			Severity:        v.Severity,
			Size:            v.Size,
		}
		if err := ctx.Err(); err != nil {
			item.Status = StatusSkipped
			item.Error = err.Error()
			man.Items = append(man.Items, item)
			continue
		}
		if v.Action != types.ActionQuarantine {
			item.Status = StatusSkipped
			man.Items = append(man.Items, item)
			continue
		}

		src, err := within(m.root, v.Path)
		if err == nil {
			var dst string
			dst, err = within(folder, item.QuarantinedPath)
			if err == nil {
				err = moveFile(src, dst)
			}
		}
		if err != nil {
			item.Status = StatusFailed
			item.Error = err.Error()
			m.logger.Warn("quarantine move failed",
				zap.String("path", v.Path),
				zap.Error(err))
		} else {
			item.Status = StatusMoved
			m.logger.Info("quarantined",
				zap.String("path", v.Path),
				zap.String("rule", v.RuleID),
				zap.String("folder", man.Folder))
		}
		man.Items = append(man.Items, item)
	}

	if err := writeManifest(filepath.Join(folder, ManifestFileName), man); err != nil {
		return man, fmt.Errorf("write manifest: %w", err)
	}
	return man, nil
}

// createBatchDir makes <dir>/<timestamp>, adding a _N suffix when a batch
// from the same second already exists.
func (m *Manager) createBatchDir(t time.Time) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("create quarantine dir: %w", err)
	}
	name := t.Format(batchLayout)
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d", name, i)
		}
		p := filepath.Join(m.dir, candidate)
		err := os.Mkdir(p, 0o755)
		if err == nil {
			return p, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("create batch dir: %w", err)
		}
	}
}

// within joins the slash-separated rel onto base and rejects paths that
// would land outside base.
func within(base, rel string) (string, error) {
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return filepath.Join(base, local), nil
}

// RestoreResult reports what happened to each item of a restored batch.
type RestoreResult struct {
	BatchID string `json:"batch_id"`
	Folder  string `json:"folder"`
	Items   []Item `json:"items"`
}

// Restored returns the number of files put back.
func (r *RestoreResult) Restored() int {
	n := 0
	for _, it := range r.Items {
		if it.Status == StatusRestored {
			n++
		}
	}
	return n
}

// Restore moves the files of a batch back to their original locations. An
// existing file at the original location is left alone (status "exists")
// unless overwrite is set. Only items still in quarantine are considered;
// restored items are marked in the manifest.
func (m *Manager) Restore(folder string, overwrite bool) (*RestoreResult, error) {
	man, err := m.Load(folder)
	if err != nil {
		return nil, err
	}
	batchDir := filepath.Join(m.dir, man.Folder)

	res := &RestoreResult{BatchID: man.BatchID, Folder: man.Folder}
	for i, it := range man.Items {
		if it.Status != StatusMoved {
			continue
		}
		out := it
		src, err := within(batchDir, it.QuarantinedPath)
		var dst string
		if err == nil {
			dst, err = within(m.root, it.OriginalPath)
		}
		if err == nil {
			if _, statErr := os.Stat(dst); statErr == nil && !overwrite {
				out.Status = StatusExists
				res.Items = append(res.Items, out)
				continue
			}
			err = moveFile(src, dst)
		}
		if err != nil {
			out.Status = StatusFailed
			out.Error = err.Error()
			m.logger.Warn("restore failed", zap.String("path", it.OriginalPath), zap.Error(err))
		} else {
			out.Status = StatusRestored
			out.Error = ""
			man.Items[i].Status = StatusRestored
			m.logger.Info("restored", zap.String("path", it.OriginalPath), zap.String("folder", man.Folder))
		}
		res.Items = append(res.Items, out)
	}

	if res.Restored() > 0 {
		if err := writeManifest(filepath.Join(batchDir, ManifestFileName), man); err != nil {
			return res, fmt.Errorf("update manifest: %w", err)
		}
	}
	return res, nil
}

// Load reads the manifest of the named batch folder. The batch ID is also
// accepted in place of the folder name.
func (m *Manager) Load(folder string) (*Manifest, error) {
	if folder == "" {
		return nil, ErrBatchNotFound
	}
	man, err := readManifest(filepath.Join(m.dir, filepath.Base(folder), ManifestFileName))
	if err == nil {
		return man, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	all, err := m.List()
	if err != nil {
		return nil, err
	}
	for _, candidate := range all {
		if candidate.BatchID == folder {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, folder)
}

// List returns all manifests, newest first. Folders without a readable
// manifest are skipped.
func (m *Manager) List() ([]*Manifest, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read quarantine dir: %w", err)
	}

	var out []*Manifest
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		man, err := readManifest(filepath.Join(m.dir, e.Name(), ManifestFileName))
		if err != nil {
			m.logger.Debug("skipping batch without manifest", zap.String("folder", e.Name()), zap.Error(err))
			continue
		}
		out = append(out, man)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Folder > out[j].Folder
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// moveFile renames src to dst, creating dst's parent. Cross-device renames
// fall back to copy and remove.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	} else if !isCrossDevice(err) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeManifest(p string, man *Manifest) error {
	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func readManifest(p string) (*Manifest, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var man Manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	return &man, nil
}
