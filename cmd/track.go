package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vbuild.dev/pkg/vbuild/internal/controller"
	"vbuild.dev/pkg/vbuild/internal/domain"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

const (
	formatFlagName   = "format"
	watchFlagName    = "watch"
	snapshotFlagName = "snapshot"
)

const trackLongDescription = `Track which files of a directory changed since a recorded baseline.

  vbuild track snapshot [dir]   record the modification time of every file
  vbuild track status [dir]     compare the directory against the baseline

The directory defaults to <root>/build. The baseline is stored in
track.snapshot (default .vbuild/snapshot.gob) relative to the tracked
directory and is itself never reported.`

// trackCmd represents the track command.
var trackCmd = newTrackCmd()

func newTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Snapshot a directory and report changed files",
		Long:  trackLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().String(snapshotFlagName, "", "baseline file (default from "+trackSnapshotKey+")")

	cmd.AddCommand(newTrackSnapshotCmd(), newTrackStatusCmd())

	return cmd
}

func newTrackSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot [dir]",
		Short: "Record a baseline of the directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrackSnapshot(cmd, args)
		},
	}
}

func newTrackStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [dir]",
		Short: "Report changed, new, deleted and unchanged files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatValue, _ := cmd.Flags().GetString(formatFlagName)

			format, err := controller.ParseOutputFormat(formatValue)
			if err != nil {
				return err
			}

			watch, _ := cmd.Flags().GetBool(watchFlagName)

			return runTrackStatus(cmd, args, format, watch)
		},
	}

	cmd.Flags().StringP(formatFlagName, "o", string(controller.FormatText), "output format: text, json or yaml")
	cmd.Flags().BoolP(watchFlagName, "w", false, "print the status again whenever the directory changes")

	return cmd
}

func init() {
	rootCmd.AddCommand(trackCmd)
}

// trackPaths resolves the tracked directory and its snapshot file.
func trackPaths(cmd *cobra.Command, args []string) (dir, snapshotPath m.Path, err error) {
	if len(args) > 0 {
		dir, err = fsAdapter.Abs(m.Path(args[0]))
	} else {
		var root m.Path

		root, err = projectRoot()
		dir = root.Join(m.BuildDirName)
	}

	if err != nil {
		return "", "", err
	}

	snapshot, _ := cmd.Flags().GetString(snapshotFlagName)
	if snapshot == "" {
		snapshot = viper.GetString(trackSnapshotKey)
	}

	if snapshot == "" {
		snapshot = defaultTrackSnapshot
	}

	if !filepath.IsAbs(snapshot) {
		snapshot = filepath.Join(dir.String(), filepath.FromSlash(snapshot))
	}

	return dir, m.Path(snapshot), nil
}

func runTrackSnapshot(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	dir, snapshotPath, err := trackPaths(cmd, args)
	if err != nil {
		return err
	}

	tracker, err := domain.NewDirectoryChangeTracker(fsAdapter, dir, domain.WithExcludedFiles(snapshotPath))
	if err != nil {
		return err
	}

	baseline := tracker.Baseline()
	if err := snapshotStore.SaveSnapshot(snapshotPath, baseline); err != nil {
		return err
	}

	newUI(cmd).DisplaySnapshot(ctx, dir, snapshotPath, len(baseline))

	return nil
}

func runTrackStatus(cmd *cobra.Command, args []string, format controller.OutputFormat, watch bool) error {
	ctx := commandContext(cmd)

	dir, snapshotPath, err := trackPaths(cmd, args)
	if err != nil {
		return err
	}

	baseline, err := snapshotStore.LoadSnapshot(snapshotPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no baseline for %s: run 'vbuild track snapshot' first", dir)
	}

	if err != nil {
		return err
	}

	tracker, err := domain.NewDirectoryChangeTrackerFromBaseline(fsAdapter, dir, baseline, domain.WithExcludedFiles(snapshotPath))
	if err != nil {
		return err
	}

	// The TUI clears nothing between refreshes, so watch output stays plain.
	ui := newUI(cmd)
	if watch {
		ui = controller.NewSimpleUI(cmd)
	}

	report := func() error {
		status, err := tracker.Status()
		if err != nil {
			return err
		}

		if format == controller.FormatText {
			return ui.DisplayStatus(ctx, dir, status)
		}

		return controller.WriteStatus(cmd.OutOrStdout(), format, dir, status)
	}

	if err := report(); err != nil {
		return err
	}

	if !watch {
		return nil
	}

	return watchDirectory(ctx, dir, defaultWatchDebounce, report)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
