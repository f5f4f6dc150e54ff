package adapter

import (
	"io"
	"os"
	"path/filepath"

	m "vbuild.dev/pkg/vbuild/internal/model"
)

// WorkspaceFSAdapter abstracts the filesystem operations the packager and the
// change tracker rely on, so domain logic can be exercised without touching
// the real disk layout of a project.
//
//nolint:interfacebloat // A richer interface keeps domain logic decoupled from os/fs.
type WorkspaceFSAdapter interface {
	// Walk traverses root recursively in lexical order. Directory entries are
	// reported to fn as well as files.
	Walk(root m.Path, fn FilepathWalkFunc) error

	// FileInfo returns metadata for path, following symlinks.
	FileInfo(path m.Path) (os.FileInfo, error)

	// Abs resolves path to an absolute, cleaned path.
	Abs(path m.Path) (m.Path, error)

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)

	// MkdirAll creates path and any missing parents.
	MkdirAll(path m.Path) error

	// Open opens a file for reading.
	Open(path m.Path) (io.ReadCloser, error)

	// Create creates or truncates a file for writing.
	Create(path m.Path) (io.WriteCloser, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// Rename moves oldPath to newPath, replacing newPath if it exists.
	Rename(oldPath, newPath m.Path) error

	// Remove deletes a single file.
	Remove(path m.Path) error
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type directly into the
// domain layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalWorkspaceFSAdapter is the os-backed WorkspaceFSAdapter.
type LocalWorkspaceFSAdapter struct{}

// NewLocalWorkspaceFSAdapter constructs a LocalWorkspaceFSAdapter.
func NewLocalWorkspaceFSAdapter() *LocalWorkspaceFSAdapter {
	return &LocalWorkspaceFSAdapter{}
}

// Walk iterates over everything under root.
func (a *LocalWorkspaceFSAdapter) Walk(root m.Path, fn FilepathWalkFunc) error {
	return filepath.Walk(string(root), filepath.WalkFunc(fn))
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalWorkspaceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// Abs returns the absolute form of path.
func (a *LocalWorkspaceFSAdapter) Abs(path m.Path) (m.Path, error) {
	abs, err := filepath.Abs(string(path))
	if err != nil {
		return "", err
	}

	return m.Path(abs), nil
}

// RelPath returns the relative path from base to target.
func (a *LocalWorkspaceFSAdapter) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// MkdirAll creates the directory tree.
func (a *LocalWorkspaceFSAdapter) MkdirAll(path m.Path) error {
	return os.MkdirAll(string(path), 0o750)
}

// Open opens a file for reading.
func (a *LocalWorkspaceFSAdapter) Open(path m.Path) (io.ReadCloser, error) {
	// #nosec G304 - paths are artifact paths chosen by the caller
	return os.Open(string(path))
}

// Create creates or truncates a file for writing.
func (a *LocalWorkspaceFSAdapter) Create(path m.Path) (io.WriteCloser, error) {
	// #nosec G304 - output locations are derived from the build directory
	return os.Create(string(path))
}

// ReadFile loads file contents from disk.
func (a *LocalWorkspaceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalWorkspaceFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// Rename moves oldPath to newPath.
func (a *LocalWorkspaceFSAdapter) Rename(oldPath, newPath m.Path) error {
	return os.Rename(string(oldPath), string(newPath))
}

// Remove deletes a single file.
func (a *LocalWorkspaceFSAdapter) Remove(path m.Path) error {
	return os.Remove(string(path))
}
