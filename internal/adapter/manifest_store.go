package adapter

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	m "vbuild.dev/pkg/vbuild/internal/model"
)

// ManifestStore persists artifact manifests.
type ManifestStore interface {
	SaveManifest(path m.Path, manifest m.ArtifactManifest) error
	LoadManifest(path m.Path) (m.ArtifactManifest, error)
}

// LocalManifestStore writes manifests as indented UTF-8 JSON.
type LocalManifestStore struct {
	fs WorkspaceFSAdapter
}

// NewLocalManifestStore constructs a LocalManifestStore backed by fs.
func NewLocalManifestStore(fs WorkspaceFSAdapter) *LocalManifestStore {
	return &LocalManifestStore{fs: fs}
}

// SaveManifest writes manifest to path, replacing any previous file.
func (s *LocalManifestStore) SaveManifest(path m.Path, manifest m.ArtifactManifest) error {
	if manifest.Artifacts == nil {
		manifest.Artifacts = []string{}
	}

	data, err := json.MarshalIndent(manifest, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := s.fs.MkdirAll(m.Path(filepath.Dir(string(path)))); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	if err := s.fs.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}

	return nil
}

// LoadManifest reads a manifest written by SaveManifest.
func (s *LocalManifestStore) LoadManifest(path m.Path) (m.ArtifactManifest, error) {
	var manifest m.ArtifactManifest

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return manifest, fmt.Errorf("read manifest %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("decode manifest %s: %w", path, err)
	}

	return manifest, nil
}
