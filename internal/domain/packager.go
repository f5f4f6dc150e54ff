package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"vbuild.dev/pkg/vbuild/internal/adapter"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

// Fixed output names inside the build directory.
const (
	ArchiveFileName  = "artifacts.zip"
	ManifestFileName = "artifacts.json"
)

// ArtifactPackager bundles build outputs of one build directory into a zip
// archive or a JSON manifest.
type ArtifactPackager interface {
	// Collect resolves paths into archive entries without writing anything.
	Collect(paths []m.Path) ([]adapter.ArchiveEntry, error)
	// CreateArchive writes <build dir>/artifacts.zip and returns its path.
	CreateArchive(paths []m.Path) (m.Path, error)
	// CreateManifest writes <build dir>/artifacts.json and returns its path.
	CreateManifest(paths []m.Path) (m.Path, error)
}

type artifactPackager struct {
	fs        adapter.WorkspaceFSAdapter
	archiver  adapter.ArtifactArchiver
	manifests adapter.ManifestStore
	buildDir  m.Path
	variant   m.Variant
	kit       m.BuildKit
}

// NewArtifactPackager constructs an ArtifactPackager bound to buildDir.
// Relative input paths are resolved against buildDir.
func NewArtifactPackager(
	fs adapter.WorkspaceFSAdapter,
	archiver adapter.ArtifactArchiver,
	manifests adapter.ManifestStore,
	buildDir m.Path,
	variant m.Variant,
	kit m.BuildKit,
) ArtifactPackager {
	return &artifactPackager{
		fs:        fs,
		archiver:  archiver,
		manifests: manifests,
		buildDir:  buildDir,
		variant:   variant,
		kit:       kit,
	}
}

func (p *artifactPackager) CreateArchive(paths []m.Path) (m.Path, error) {
	entries, err := p.Collect(paths)
	if err != nil {
		return "", err
	}

	dest, err := p.outputPath(ArchiveFileName)
	if err != nil {
		return "", err
	}

	if err := p.archiver.WriteArchive(dest, entries); err != nil {
		slog.Error("Failed to write artifacts archive", "path", dest, "error", err)
		return "", fmt.Errorf("create artifacts archive: %w", err)
	}

	slog.Info("Created artifacts archive", "path", dest, "entries", len(entries), "variant", p.variant)

	return dest, nil
}

func (p *artifactPackager) CreateManifest(paths []m.Path) (m.Path, error) {
	entries, err := p.Collect(paths)
	if err != nil {
		return "", err
	}

	dest, err := p.outputPath(ManifestFileName)
	if err != nil {
		return "", err
	}

	manifest := m.ArtifactManifest{
		Variant:   p.variant.String(),
		BuildKit:  p.kit.String(),
		Artifacts: make([]string, 0, len(entries)),
	}

	for _, entry := range entries {
		manifest.Artifacts = append(manifest.Artifacts, entry.Name)
	}

	if err := p.manifests.SaveManifest(dest, manifest); err != nil {
		slog.Error("Failed to write artifacts manifest", "path", dest, "error", err)
		return "", fmt.Errorf("create artifacts manifest: %w", err)
	}

	slog.Info("Created artifacts manifest", "path", dest, "entries", len(entries), "variant", p.variant)

	return dest, nil
}

func (p *artifactPackager) Collect(paths []m.Path) ([]adapter.ArchiveEntry, error) {
	buildDir, err := p.fs.Abs(p.buildDir)
	if err != nil {
		return nil, fmt.Errorf("resolve build directory: %w", err)
	}

	// Directory walks skip previous outputs; explicitly named files are kept.
	outputs := map[m.Path]bool{
		buildDir.Join(ArchiveFileName):  true,
		buildDir.Join(ManifestFileName): true,
	}

	var entries []adapter.ArchiveEntry

	for _, path := range paths {
		resolved, err := p.resolve(buildDir, path)
		if err != nil {
			return nil, err
		}

		info, err := p.fs.FileInfo(resolved)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				slog.Error("Artifact does not exist", "path", path, "build_dir", buildDir)
				return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, path)
			}

			return nil, fmt.Errorf("stat artifact %s: %w", path, err)
		}

		if !info.IsDir() {
			entries = append(entries, p.entry(buildDir, resolved))
			continue
		}

		dirEntries, err := p.collectDir(buildDir, resolved, outputs)
		if err != nil {
			return nil, err
		}

		entries = append(entries, dirEntries...)
	}

	return entries, nil
}

func (p *artifactPackager) collectDir(buildDir, dir m.Path, outputs map[m.Path]bool) ([]adapter.ArchiveEntry, error) {
	var entries []adapter.ArchiveEntry

	err := p.fs.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}

			return err
		}

		if outputs[m.Path(path)] || !isRegularFile(p.fs, m.Path(path), info) {
			return nil
		}

		entries = append(entries, p.entry(buildDir, m.Path(path)))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk artifact directory %s: %w", dir, err)
	}

	return entries, nil
}

func (p *artifactPackager) resolve(buildDir, path m.Path) (m.Path, error) {
	if !filepath.IsAbs(string(path)) {
		path = buildDir.Join(string(path))
	}

	abs, err := p.fs.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve artifact %s: %w", path, err)
	}

	return abs, nil
}

// entry names files below the build directory by their relative path and
// everything else by its base name.
func (p *artifactPackager) entry(buildDir, path m.Path) adapter.ArchiveEntry {
	name := path.Base()

	rel, err := p.fs.RelPath(buildDir, path)
	if err == nil && isInside(rel) {
		name = filepath.ToSlash(string(rel))
	}

	return adapter.ArchiveEntry{Name: name, Source: path}
}

func (p *artifactPackager) outputPath(name string) (m.Path, error) {
	buildDir, err := p.fs.Abs(p.buildDir)
	if err != nil {
		return "", fmt.Errorf("resolve build directory: %w", err)
	}

	if err := p.fs.MkdirAll(buildDir); err != nil {
		return "", fmt.Errorf("create build directory: %w", err)
	}

	return buildDir.Join(name), nil
}

func isInside(rel m.Path) bool {
	s := string(rel)
	if s == "." || s == ".." || filepath.IsAbs(s) {
		return false
	}

	return !strings.HasPrefix(s, ".."+string(filepath.Separator))
}

// isRegularFile reports whether a walked entry is a regular file, following
// symlinks. Symlinked directories are not descended into.
func isRegularFile(fs adapter.WorkspaceFSAdapter, path m.Path, info os.FileInfo) bool {
	if info.Mode()&os.ModeSymlink == 0 {
		return info.Mode().IsRegular()
	}

	target, err := fs.FileInfo(path)

	return err == nil && target.Mode().IsRegular()
}
