package controller

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	m "vbuild.dev/pkg/vbuild/internal/model"
)

// OutputFormat selects how directory status is printed.
type OutputFormat string

// Supported output formats.
const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates a --format value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

type statusReport struct {
	Root              m.Path         `json:"root" yaml:"root"`
	Counts            m.StatusCounts `json:"counts" yaml:"counts"`
	m.DirectoryStatus `yaml:",inline"`
}

// WriteStatus encodes status for machines (json, yaml) or people (text).
func WriteStatus(w io.Writer, format OutputFormat, root m.Path, status m.DirectoryStatus) error {
	report := statusReport{Root: root, Counts: status.Counts(), DirectoryStatus: status}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(report); err != nil {
			return err
		}

		return enc.Close()
	default:
		_, err := io.WriteString(w, renderStatusTable(root, status))
		return err
	}
}
