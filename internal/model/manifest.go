package model

// ArtifactManifest describes the contents of an artifacts archive.
// Artifacts keeps the order in which files were added to the archive.
type ArtifactManifest struct {
	Variant   string   `json:"variant"`
	BuildKit  string   `json:"build_kit"`
	Artifacts []string `json:"artifacts"`
}
