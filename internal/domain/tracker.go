package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"vbuild.dev/pkg/vbuild/internal/adapter"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

// DirectoryChangeTracker compares the files below a root directory against a
// baseline snapshot. A tracker is not safe for concurrent use.
type DirectoryChangeTracker interface {
	// Root returns the absolute tracked directory.
	Root() m.Path
	// Baseline returns a copy of the current baseline snapshot.
	Baseline() m.DirectorySnapshot
	// Reset replaces the baseline with a fresh snapshot.
	Reset() error
	// Status snapshots the directory and diffs it against the baseline
	// without modifying the baseline.
	Status() (m.DirectoryStatus, error)
}

type directoryChangeTracker struct {
	fs       adapter.WorkspaceFSAdapter
	root     m.Path
	baseline m.DirectorySnapshot
	excluded []m.Path
}

// TrackerOption customizes a DirectoryChangeTracker.
type TrackerOption func(*directoryChangeTracker)

// WithExcludedFiles keeps the given files out of every snapshot, e.g. a
// persisted baseline stored inside the tracked directory.
func WithExcludedFiles(paths ...m.Path) TrackerOption {
	return func(t *directoryChangeTracker) {
		t.excluded = append(t.excluded, paths...)
	}
}

// NewDirectoryChangeTracker constructs a tracker for root and records the
// initial baseline right away.
func NewDirectoryChangeTracker(fs adapter.WorkspaceFSAdapter, root m.Path, opts ...TrackerOption) (DirectoryChangeTracker, error) {
	t, err := newTracker(fs, root, opts)
	if err != nil {
		return nil, err
	}

	if err := t.Reset(); err != nil {
		return nil, err
	}

	return t, nil
}

// NewDirectoryChangeTrackerFromBaseline constructs a tracker whose baseline
// was recorded earlier, typically loaded from a snapshot store.
func NewDirectoryChangeTrackerFromBaseline(fs adapter.WorkspaceFSAdapter, root m.Path, baseline m.DirectorySnapshot, opts ...TrackerOption) (DirectoryChangeTracker, error) {
	t, err := newTracker(fs, root, opts)
	if err != nil {
		return nil, err
	}

	t.baseline = t.filter(baseline.Clone())

	return t, nil
}

func newTracker(fs adapter.WorkspaceFSAdapter, root m.Path, opts []TrackerOption) (*directoryChangeTracker, error) {
	abs, err := fs.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve tracked directory: %w", err)
	}

	t := &directoryChangeTracker{fs: fs, root: abs, baseline: m.DirectorySnapshot{}}
	for _, opt := range opts {
		opt(t)
	}

	for i, p := range t.excluded {
		if abs, err := fs.Abs(p); err == nil {
			t.excluded[i] = abs
		}
	}

	return t, nil
}

func (t *directoryChangeTracker) Root() m.Path {
	return t.root
}

func (t *directoryChangeTracker) Baseline() m.DirectorySnapshot {
	return t.baseline.Clone()
}

func (t *directoryChangeTracker) Reset() error {
	snapshot, err := TakeSnapshot(t.fs, t.root)
	if err != nil {
		return err
	}

	t.baseline = t.filter(snapshot)
	slog.Debug("Reset tracker baseline", "root", t.root, "files", len(snapshot))

	return nil
}

func (t *directoryChangeTracker) Status() (m.DirectoryStatus, error) {
	current, err := TakeSnapshot(t.fs, t.root)
	if err != nil {
		return m.DirectoryStatus{}, err
	}

	return DiffSnapshots(t.baseline, t.filter(current)), nil
}

func (t *directoryChangeTracker) filter(snapshot m.DirectorySnapshot) m.DirectorySnapshot {
	for _, p := range t.excluded {
		delete(snapshot, p)
	}

	return snapshot
}

// TakeSnapshot records the modification time of every regular file below
// root. Symlinks to regular files are recorded with the target's mtime;
// dangling links are skipped. A root that does not exist yields an empty
// snapshot, and files that vanish during the walk are skipped.
func TakeSnapshot(fs adapter.WorkspaceFSAdapter, root m.Path) (m.DirectorySnapshot, error) {
	snapshot := m.DirectorySnapshot{}

	err := fs.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}

			return err
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, statErr := fs.FileInfo(m.Path(path))
			if statErr != nil {
				return nil
			}

			info = target
		}

		if info.Mode().IsRegular() {
			snapshot[m.Path(path)] = info.ModTime().UnixNano()
		}

		return nil
	})
	if err != nil {
		slog.Error("Failed to snapshot directory", "root", root, "error", err)
		return nil, fmt.Errorf("snapshot %s: %w", root, err)
	}

	return snapshot, nil
}

// DiffSnapshots partitions the union of both snapshots into changed, new,
// deleted and unchanged files. Every slice is sorted and never nil.
func DiffSnapshots(baseline, current m.DirectorySnapshot) m.DirectoryStatus {
	status := m.DirectoryStatus{
		Changed:   []m.Path{},
		New:       []m.Path{},
		Deleted:   []m.Path{},
		Unchanged: []m.Path{},
	}

	for path, mtime := range current {
		old, ok := baseline[path]

		switch {
		case !ok:
			status.New = append(status.New, path)
		case old != mtime:
			status.Changed = append(status.Changed, path)
		default:
			status.Unchanged = append(status.Unchanged, path)
		}
	}

	for path := range baseline {
		if _, ok := current[path]; !ok {
			status.Deleted = append(status.Deleted, path)
		}
	}

	for _, paths := range [][]m.Path{status.Changed, status.New, status.Deleted, status.Unchanged} {
		sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	}

	return status
}
