package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"vbuild.dev/pkg/vbuild/internal/domain"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

const stageFlagName = "stage"

const verifyLongDescription = `Verify that variants build and produce their expected outputs.

Each variant runs three stages:

  build      prod kit, target all, checks the configured artifacts
  unittests  test kit, target unittests, checks junit.xml and coverage per component
  reports    test kit, target all, checks the html report per component

Variants, components and artifacts come from the variants list in vbuild.yaml.
All stages run even when an earlier one fails.`

// verifyCmd represents the verify command.
var verifyCmd = newVerifyCmd()

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [-- extra args...]",
		Short: "Build variants and check their outputs",
		Long:  verifyLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, _ := cmd.Flags().GetStringArray(variantFlagName)
			stage, _ := cmd.Flags().GetString(stageFlagName)

			suites, err := selectedSuites(parseVariants(values))
			if err != nil {
				return err
			}

			for i := range suites {
				suites[i].AdditionalArgs = append(suites[i].AdditionalArgs, args...)
			}

			if err := validateStage(domain.Stage(stage)); err != nil {
				return err
			}

			return runVerify(cmd, suites, domain.Stage(stage))
		},
	}

	cmd.Flags().StringArrayP(variantFlagName, "V", nil, "variant to verify (can be repeated)")
	cmd.Flags().StringP(stageFlagName, "s", "", "run a single stage: build, unittests or reports")

	return cmd
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

// selectedSuites returns the configured suites, narrowed to variants when
// given. A requested variant without configuration gets an empty suite.
func selectedSuites(variants []m.Variant) ([]domain.VariantSuite, error) {
	configured, err := suitesFromConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to read variants from config: %w", err)
	}

	if len(variants) == 0 {
		if len(configured) == 0 {
			return nil, errors.New("no variant given: use --variant or list variants in " + configFileName)
		}

		return configured, nil
	}

	byVariant := make(map[m.Variant]domain.VariantSuite, len(configured))
	for _, s := range configured {
		byVariant[s.Variant] = s
	}

	suites := make([]domain.VariantSuite, 0, len(variants))

	for _, v := range variants {
		suite, ok := byVariant[v]
		if !ok {
			suite = domain.VariantSuite{Variant: v}
		}

		suites = append(suites, suite)
	}

	return suites, nil
}

func runVerify(cmd *cobra.Command, suites []domain.VariantSuite, stage domain.Stage) error {
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

	runner := domain.NewVariantRunner(newDriver, fsAdapter)

	var (
		results []domain.StageResult
		errs    []error
	)

	ui := newUI(cmd)

	err = ui.Track(ctx, fmt.Sprintf("Verifying %d variant(s)", len(suites)), func(ctx context.Context) error {
		for _, suite := range suites {
			stageResults, err := runSuite(ctx, runner, suite, stage)
			results = append(results, stageResults...)

			if err != nil {
				slog.Error("Verification failed", "variant", suite.Variant, "error", err)
				errs = append(errs, err)
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		return nil
	})

	ui.DisplayStageResults(ctx, results)

	if flushErr := flushMetrics(); flushErr != nil {
		slog.Error("Failed to write metrics", "error", flushErr)
	}

	if err != nil {
		return err
	}

	if len(errs) > 0 {
		return &ExitCodeError{Code: 1, Err: errors.Join(errs...)}
	}

	return nil
}

func validateStage(stage domain.Stage) error {
	switch stage {
	case "", domain.StageBuild, domain.StageUnittests, domain.StageReports:
		return nil
	default:
		return fmt.Errorf("unknown stage %q (want build, unittests or reports)", stage)
	}
}

func runSuite(ctx context.Context, runner domain.VariantRunner, suite domain.VariantSuite, stage domain.Stage) ([]domain.StageResult, error) {
	var run func(context.Context, domain.VariantSuite) (domain.StageResult, error)

	switch stage {
	case "":
		return runner.RunAll(ctx, suite)
	case domain.StageBuild:
		run = runner.RunBuild
	case domain.StageUnittests:
		run = runner.RunUnittests
	case domain.StageReports:
		run = runner.RunReports
	default:
		return nil, validateStage(stage)
	}

	result, err := run(ctx, suite)

	return []domain.StageResult{result}, err
}
