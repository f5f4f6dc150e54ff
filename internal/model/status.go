package model

import "sort"

// DirectorySnapshot maps absolute file paths to their modification time in
// nanoseconds since the Unix epoch. Directories are never recorded.
type DirectorySnapshot map[Path]int64

// Clone returns an independent copy of the snapshot.
func (s DirectorySnapshot) Clone() DirectorySnapshot {
	out := make(DirectorySnapshot, len(s))
	for path, mtime := range s {
		out[path] = mtime
	}

	return out
}

// Stamps returns the snapshot as records sorted by path.
func (s DirectorySnapshot) Stamps() []FileStamp {
	stamps := make([]FileStamp, 0, len(s))
	for path, mtime := range s {
		stamps = append(stamps, FileStamp{Path: path, ModTime: mtime})
	}

	sort.Slice(stamps, func(i, j int) bool {
		return stamps[i].Path < stamps[j].Path
	})

	return stamps
}

// FileStamp is a single snapshot entry, used when persisting a baseline.
type FileStamp struct {
	Path    Path
	ModTime int64
}

// DirectoryStatus partitions the union of two snapshots into four disjoint
// sets. Each slice is sorted by path.
type DirectoryStatus struct {
	Changed   []Path `json:"changed" yaml:"changed"`
	New       []Path `json:"new" yaml:"new"`
	Deleted   []Path `json:"deleted" yaml:"deleted"`
	Unchanged []Path `json:"unchanged" yaml:"unchanged"`
}

// StatusCounts holds the size of each DirectoryStatus category.
type StatusCounts struct {
	Changed   int `json:"changed" yaml:"changed"`
	New       int `json:"new" yaml:"new"`
	Deleted   int `json:"deleted" yaml:"deleted"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
}

// Counts returns the number of paths in each category.
func (s DirectoryStatus) Counts() StatusCounts {
	return StatusCounts{
		Changed:   len(s.Changed),
		New:       len(s.New),
		Deleted:   len(s.Deleted),
		Unchanged: len(s.Unchanged),
	}
}

// ChangedNames returns the base names of the changed files.
func (s DirectoryStatus) ChangedNames() []string {
	names := make([]string, 0, len(s.Changed))
	for _, path := range s.Changed {
		names = append(names, path.Base())
	}

	return names
}

// Touched reports whether anything changed, appeared or disappeared.
func (s DirectoryStatus) Touched() bool {
	return len(s.Changed) > 0 || len(s.New) > 0 || len(s.Deleted) > 0
}
