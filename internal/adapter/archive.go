package adapter

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	m "vbuild.dev/pkg/vbuild/internal/model"
)

// ArchiveEntry is one member of an artifacts archive.
type ArchiveEntry struct {
	// Name is the member name inside the archive (slash separated).
	Name string
	// Source is the file whose bytes are stored.
	Source m.Path
}

// ArtifactArchiver writes a set of files into a single archive.
type ArtifactArchiver interface {
	WriteArchive(dest m.Path, entries []ArchiveEntry) error
}

// ZipArchiver writes deflate-compressed zip archives.
type ZipArchiver struct {
	fs WorkspaceFSAdapter
}

// NewZipArchiver constructs a ZipArchiver that reads and writes through fs.
func NewZipArchiver(fs WorkspaceFSAdapter) *ZipArchiver {
	return &ZipArchiver{fs: fs}
}

// WriteArchive writes entries to dest in the given order. Duplicate names are
// stored twice. The archive is assembled next to dest and renamed into place,
// so an entry may name a previous dest.
func (a *ZipArchiver) WriteArchive(dest m.Path, entries []ArchiveEntry) error {
	if err := a.fs.MkdirAll(m.Path(filepath.Dir(string(dest)))); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	tmp := m.Path(string(dest) + ".tmp")

	if err := a.writeZip(tmp, entries); err != nil {
		_ = a.fs.Remove(tmp)
		return err
	}

	if err := a.fs.Rename(tmp, dest); err != nil {
		_ = a.fs.Remove(tmp)
		return fmt.Errorf("move archive into place %s: %w", dest, err)
	}

	return nil
}

func (a *ZipArchiver) writeZip(path m.Path, entries []ArchiveEntry) (err error) {
	file, err := a.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", path, err)
	}

	zw := zip.NewWriter(file)

	defer func() {
		err = errors.Join(err, zw.Close(), file.Close())
	}()

	for _, entry := range entries {
		if err := a.addEntry(zw, entry); err != nil {
			return err
		}
	}

	return nil
}

func (a *ZipArchiver) addEntry(zw *zip.Writer, entry ArchiveEntry) error {
	info, err := a.fs.FileInfo(entry.Source)
	if err != nil {
		return fmt.Errorf("stat %s: %w", entry.Source, err)
	}

	src, err := a.fs.Open(entry.Source)
	if err != nil {
		return fmt.Errorf("open %s: %w", entry.Source, err)
	}
	defer src.Close()

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header for %s: %w", entry.Source, err)
	}

	header.Name = entry.Name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("add %s to archive: %w", entry.Name, err)
	}

	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("copy %s into archive: %w", entry.Source, err)
	}

	return nil
}
