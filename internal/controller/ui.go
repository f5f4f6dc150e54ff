// Package controller renders vbuild results for the terminal.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"vbuild.dev/pkg/vbuild/internal/domain"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

// UI defines how commands report progress and results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	// Track runs fn while showing title as in-progress work.
	Track(ctx context.Context, title string, fn func(ctx context.Context) error) error
	DisplayBuildResults(ctx context.Context, outcomes []m.BuildOutcome)
	DisplayPackaging(ctx context.Context, variant m.Variant, archive, manifest m.Path)
	DisplaySnapshot(ctx context.Context, root, snapshotPath m.Path, files int)
	DisplayStatus(ctx context.Context, root m.Path, status m.DirectoryStatus) error
	DisplayStageResults(ctx context.Context, results []domain.StageResult)
}

// NewUI returns a TUI when tty is true and a SimpleUI otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
