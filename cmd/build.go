package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"vbuild.dev/pkg/vbuild/internal/domain"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

const buildLongDescription = `Build one or more variants with the project's build script.

Arguments after -- are passed to the build script unchanged:

  vbuild build -V Bla/Blub -V Other/Variant --parallel 2 -- -j 4

Without --variant the variants listed in vbuild.yaml are built.
The command exits with the exit code of the first failed variant.`

// buildCmd represents the build command.
var buildCmd = newBuildCmd()

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [-- extra args...]",
		Short: "Build variants",
		Long:  buildLongDescription,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlagToConfig(cmd.Flags().Lookup(kitFlagName), buildKitKey)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			variants, err := selectedVariants(cmd)
			if err != nil {
				return err
			}

			return runBuilds(cmd, variants, m.BuildKit(viper.GetString(buildKitKey)), viper.GetString(buildTargetKey), args)
		},
	}

	configureBuildFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func configureBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP(variantFlagName, "V", nil, "variant to build (can be repeated)")

	// Bound in PreRun: package shares the build.kit key.
	cmd.Flags().StringP(kitFlagName, "k", defaultBuildKit, "build kit")

	cmd.Flags().StringP(targetFlagName, "t", defaultBuildTarget, "build target")
	bindFlagToConfig(cmd.Flags().Lookup(targetFlagName), buildTargetKey)

	cmd.Flags().IntP(parallelFlagName, "p", defaultBuildParallel, "number of variants built at the same time")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), buildParallelKey)
}

// selectedVariants returns --variant values, or the configured suites.
func selectedVariants(cmd *cobra.Command) ([]m.Variant, error) {
	values, _ := cmd.Flags().GetStringArray(variantFlagName)

	variants := parseVariants(values)
	if len(variants) > 0 {
		return variants, nil
	}

	suites, err := suitesFromConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to read variants from config: %w", err)
	}

	for _, s := range suites {
		variants = append(variants, s.Variant)
	}

	if len(variants) == 0 {
		return nil, errors.New("no variant given: use --variant or list variants in " + configFileName)
	}

	return variants, nil
}

func runBuilds(cmd *cobra.Command, variants []m.Variant, kit m.BuildKit, target string, extra []string) error {
	ctx := commandContext(cmd)

	root, err := projectRoot()
	if err != nil {
		return err
	}

	recorder, flushMetrics := newRecorder()

	newDriver, err := driverFactory(root, recorder)
	if err != nil {
		return err
	}

	outcomes := make([]m.BuildOutcome, len(variants))

	parallel := viper.GetInt(buildParallelKey)
	if parallel < 1 {
		parallel = 1
	}

	ui := newUI(cmd)
	title := fmt.Sprintf("Building %d variant(s) (%s, target %s)", len(variants), kit, target)

	err = ui.Track(ctx, title, func(ctx context.Context) error {
		return buildAll(ctx, newDriver, variants, kit, target, extra, parallel, outcomes)
	})

	ui.DisplayBuildResults(ctx, outcomes)

	if flushErr := flushMetrics(); flushErr != nil {
		slog.Error("Failed to write metrics", "error", flushErr)
	}

	if err != nil {
		return err
	}

	return firstBuildFailure(outcomes)
}

func buildAll(
	ctx context.Context,
	newDriver domain.DriverFactory,
	variants []m.Variant,
	kit m.BuildKit,
	target string,
	extra []string,
	parallel int,
	outcomes []m.BuildOutcome,
) error {
	var group errgroup.Group

	group.SetLimit(parallel)

	for i, variant := range variants {
		i, variant := i, variant
		group.Go(func() error {
			start := time.Now()
			code, err := newDriver(variant, kit).Execute(ctx, target, extra...)
			outcomes[i] = m.BuildOutcome{
				Variant:    variant,
				BuildKit:   kit,
				Target:     target,
				ReturnCode: code,
				Duration:   time.Since(start),
				Err:        err,
			}

			return nil
		})
	}

	return group.Wait()
}

func firstBuildFailure(outcomes []m.BuildOutcome) error {
	for _, o := range outcomes {
		if o.Err != nil {
			return o.Err
		}

		if o.ReturnCode != 0 {
			return &ExitCodeError{
				Code: o.ReturnCode,
				Err:  fmt.Errorf("build of %s (%s) failed with exit code %d", o.Variant, o.BuildKit, o.ReturnCode),
			}
		}
	}

	return nil
}
