package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vbuild.dev/pkg/vbuild/internal/domain"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

// SimpleUI implements UI by printing plain text through the cobra command.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Track prints a start and an end line around fn.
func (s *SimpleUI) Track(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()

	s.printf("%s ...\n", title)

	err := fn(ctx)
	if err != nil {
		s.printf("%s: %s (%v)\n", title, failedLabel, err)
		return err
	}

	s.printf("%s: %s (%s)\n", title, okLabel, time.Since(start).Round(time.Millisecond))

	return nil
}

// DisplayBuildResults prints one row per build.
func (s *SimpleUI) DisplayBuildResults(ctx context.Context, outcomes []m.BuildOutcome) {
	if ctx.Err() != nil {
		return
	}

	s.printf("\n%s", renderBuildTable(outcomes))
}

// DisplayPackaging prints where archive and manifest were written.
func (s *SimpleUI) DisplayPackaging(ctx context.Context, variant m.Variant, archive, manifest m.Path) {
	if ctx.Err() != nil {
		return
	}

	if archive != "" {
		s.printf("%s: archive %s\n", variant, archive)
	}

	if manifest != "" {
		s.printf("%s: manifest %s\n", variant, manifest)
	}
}

// DisplaySnapshot confirms a recorded baseline.
func (s *SimpleUI) DisplaySnapshot(ctx context.Context, root, snapshotPath m.Path, files int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Recorded %d file(s) under %s in %s\n", files, root, snapshotPath)
}

// DisplayStatus prints the status table.
func (s *SimpleUI) DisplayStatus(ctx context.Context, root m.Path, status m.DirectoryStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return WriteStatus(s.cmd.OutOrStdout(), FormatText, root, status)
}

// DisplayStageResults prints the verification summary.
func (s *SimpleUI) DisplayStageResults(ctx context.Context, results []domain.StageResult) {
	if ctx.Err() != nil {
		return
	}

	s.printf("\n%s", renderStageTable(results))
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
