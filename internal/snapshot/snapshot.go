// Package snapshot retains copies of the manifest output tree so a bad
// hydration batch can be rolled back.
package snapshot

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/cameronsjo/stevedore/internal/fileutil"
)

const (
	// Prefix marks snapshot directory names.
	Prefix = "snapshot-"
	// backupPrefix marks the automatic pre-rollback copies.
	backupPrefix = "pre-rollback-"
	// dateFormat includes nanoseconds to prevent same-second collisions.
	dateFormat = "20060102-150405.000000000"
	// DefaultKeep is the retention limit when none is configured.
	DefaultKeep = 20
	// minFreeDiskBytes is headroom required beyond the copy itself.
	minFreeDiskBytes = 100 * 1024 * 1024
)

// ErrNotFound indicates the named snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Info describes one retained snapshot.
type Info struct {
	Name      string
	Path      string
	Created   time.Time
	FileCount int
}

// Manager creates, lists, restores, and prunes snapshots of one output
// tree.
type Manager struct {
	// OutputDir is the tree being protected.
	OutputDir string
	// SnapshotsDir is where copies are kept.
	SnapshotsDir string
	// Keep is the retention limit; zero means DefaultKeep.
	Keep int

	logger *slog.Logger
}

// NewManager returns a Manager.
func NewManager(outputDir, snapshotsDir string, keep int, logger *slog.Logger) *Manager {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Manager{OutputDir: outputDir, SnapshotsDir: snapshotsDir, Keep: keep, logger: logger}
}

// Create copies the output tree into a new timestamped snapshot and
// prunes beyond the retention limit. Returns the snapshot name, or an
// empty string when the output tree has nothing to snapshot.
func (m *Manager) Create() (string, error) {
	if !dirHasContent(m.OutputDir) {
		m.logger.Debug("output empty, skipping snapshot", "dir", m.OutputDir)
		return "", nil
	}

	if err := os.MkdirAll(m.SnapshotsDir, 0755); err != nil {
		return "", fmt.Errorf("create snapshots directory: %w", err)
	}

	size, err := dirSize(m.OutputDir)
	if err != nil {
		return "", fmt.Errorf("measure output directory: %w", err)
	}
	if err := checkDiskSpace(m.SnapshotsDir, size+minFreeDiskBytes); err != nil {
		return "", fmt.Errorf("insufficient disk space for snapshot: %w", err)
	}

	name := Prefix + time.Now().Format(dateFormat)
	path := filepath.Join(m.SnapshotsDir, name)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}

	if err := fileutil.CopyDir(m.OutputDir, path); err != nil {
		if cleanupErr := os.RemoveAll(path); cleanupErr != nil {
			return "", fmt.Errorf("copy output to snapshot: %w (cleanup also failed: %v)", err, cleanupErr)
		}
		return "", fmt.Errorf("copy output to snapshot: %w", err)
	}

	m.logger.Info("snapshot created", "name", name)

	if err := m.Prune(); err != nil {
		m.logger.Warn("snapshot pruning failed", "error", err)
	}
	return name, nil
}

// List returns retained snapshots, newest first. Pre-rollback backups
// are included so they can be restored and pruned like any other.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.SnapshotsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshots directory: %w", err)
	}

	var snapshots []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, Prefix) && !strings.HasPrefix(name, backupPrefix) {
			continue
		}

		path := filepath.Join(m.SnapshotsDir, name)
		info, err := entry.Info()
		if err != nil {
			m.logger.Warn("unreadable snapshot", "name", name, "error", err)
			continue
		}

		stamp := strings.TrimPrefix(strings.TrimPrefix(name, Prefix), backupPrefix)
		created, err := time.Parse(dateFormat, stamp)
		if err != nil {
			created = info.ModTime()
		}

		snapshots = append(snapshots, Info{
			Name:      name,
			Path:      path,
			Created:   created,
			FileCount: countFiles(path),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Created.After(snapshots[j].Created)
	})
	return snapshots, nil
}

// Restore replaces the output tree with the named snapshot. The current
// output is backed up first, and the swap goes through a temp copy plus
// rename so a failure cannot leave the output half-written.
func (m *Manager) Restore(name string) error {
	snapshotPath := filepath.Join(m.SnapshotsDir, name)
	if _, err := os.Stat(snapshotPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	size, err := dirSize(snapshotPath)
	if err != nil {
		return fmt.Errorf("measure snapshot: %w", err)
	}
	if err := checkDiskSpace(filepath.Dir(m.OutputDir), size+minFreeDiskBytes); err != nil {
		return fmt.Errorf("insufficient disk space for restore: %w", err)
	}

	if dirHasContent(m.OutputDir) {
		backupPath := filepath.Join(m.SnapshotsDir, backupPrefix+time.Now().Format(dateFormat))
		if err := os.MkdirAll(backupPath, 0755); err != nil {
			return fmt.Errorf("create backup directory: %w", err)
		}
		if err := fileutil.CopyDir(m.OutputDir, backupPath); err != nil {
			os.RemoveAll(backupPath)
			return fmt.Errorf("create pre-rollback backup: %w", err)
		}
		m.logger.Info("pre-rollback backup created", "path", backupPath)
	}

	// Suffix the scratch dirs so concurrent restores cannot collide.
	restoreID := uuid.New().String()[:8]
	tempDir := m.OutputDir + ".restore-temp-" + restoreID
	oldDir := m.OutputDir + ".restore-old-" + restoreID

	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return fmt.Errorf("create temp restore directory: %w", err)
	}
	if err := fileutil.CopyDir(snapshotPath, tempDir); err != nil {
		os.RemoveAll(tempDir)
		return fmt.Errorf("copy snapshot to temp: %w", err)
	}

	_, statErr := os.Stat(m.OutputDir)
	outputExists := statErr == nil

	if outputExists {
		if err := os.Rename(m.OutputDir, oldDir); err != nil {
			os.RemoveAll(tempDir)
			return fmt.Errorf("move current output aside: %w", err)
		}
	}

	if err := os.Rename(tempDir, m.OutputDir); err != nil {
		if outputExists {
			if recoverErr := os.Rename(oldDir, m.OutputDir); recoverErr != nil {
				os.RemoveAll(tempDir)
				return fmt.Errorf("swap in snapshot: %w (recovery also failed: %v)", err, recoverErr)
			}
		}
		os.RemoveAll(tempDir)
		return fmt.Errorf("swap in snapshot: %w", err)
	}

	if outputExists {
		os.RemoveAll(oldDir)
	}

	m.logger.Info("snapshot restored", "name", name)
	return nil
}

// Prune removes snapshots beyond the retention limit, oldest first.
// Removal continues past individual failures and reports them together.
func (m *Manager) Prune() error {
	snapshots, err := m.List()
	if err != nil {
		return err
	}
	if len(snapshots) <= m.Keep {
		return nil
	}

	var errs []string
	for _, snap := range snapshots[m.Keep:] {
		if err := removeWithRetry(snap.Path, 3); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", snap.Name, err))
			continue
		}
		m.logger.Debug("pruned snapshot", "name", snap.Name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to remove %d snapshot(s): %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// dirHasContent reports whether dir exists and has at least one entry.
func dirHasContent(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	return len(entries) > 0
}

func countFiles(dir string) int {
	count := 0
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}

func checkDiskSpace(dir string, requiredBytes int64) error {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return fmt.Errorf("check disk space: %w", err)
	}

	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < requiredBytes {
		return fmt.Errorf("need %d bytes, only %d available", requiredBytes, available)
	}
	return nil
}

func dirSize(dir string) (int64, error) {
	var size int64
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// removeWithRetry retries RemoveAll with short backoff for transient
// failures on busy filesystems.
func removeWithRetry(path string, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := os.RemoveAll(path); err != nil {
			lastErr = err
			time.Sleep(time.Duration(10*(1<<i)) * time.Millisecond)
			continue
		}
		return nil
	}
	return lastErr
}
