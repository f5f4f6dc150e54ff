package adapter

import (
	"errors"
	"fmt"

	m "vbuild.dev/pkg/vbuild/internal/model"
	"vbuild.dev/pkg/vbuild/pkg"
)

// SnapshotStore persists a tracker baseline between CLI invocations.
type SnapshotStore interface {
	SaveSnapshot(path m.Path, snapshot m.DirectorySnapshot) error
	LoadSnapshot(path m.Path) (m.DirectorySnapshot, error)
}

// SpillSnapshotStore stores snapshots as a gob stream of FileStamp records.
type SpillSnapshotStore struct{}

// NewSpillSnapshotStore constructs a SpillSnapshotStore.
func NewSpillSnapshotStore() *SpillSnapshotStore {
	return &SpillSnapshotStore{}
}

// SaveSnapshot writes snapshot to path sorted by file path.
func (s *SpillSnapshotStore) SaveSnapshot(path m.Path, snapshot m.DirectorySnapshot) (err error) {
	spill, err := pkg.CreateFileSpill[m.FileStamp](string(path))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	defer func() {
		err = errors.Join(err, spill.Close())
	}()

	if err := spill.AppendBatch(snapshot.Stamps()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot. A missing file is
// reported with an error wrapping os.ErrNotExist.
func (s *SpillSnapshotStore) LoadSnapshot(path m.Path) (m.DirectorySnapshot, error) {
	spill, err := pkg.OpenFileSpill[m.FileStamp](string(path))
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	defer spill.Close()

	snapshot := make(m.DirectorySnapshot, spill.Len())

	err = spill.Range(func(_ uint64, stamp m.FileStamp) error {
		snapshot[stamp.Path] = stamp.ModTime
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	return snapshot, nil
}
