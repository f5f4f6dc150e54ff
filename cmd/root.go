// Package cmd provides the root command and CLI setup for vbuild.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vbuild.dev/pkg/vbuild/internal/adapter"
	"vbuild.dev/pkg/vbuild/internal/controller"
	"vbuild.dev/pkg/vbuild/internal/domain"
	"vbuild.dev/pkg/vbuild/internal/metrics"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

var commandExecutor adapter.CommandExecutor
var fsAdapter adapter.WorkspaceFSAdapter
var archiver adapter.ArtifactArchiver
var manifestStore adapter.ManifestStore
var snapshotStore adapter.SnapshotStore

func init() {
	// Initialize shared dependencies.
	commandExecutor = adapter.NewLocalCommandExecutor()
	fsAdapter = adapter.NewLocalWorkspaceFSAdapter()
	archiver = adapter.NewZipArchiver(fsAdapter)
	manifestStore = adapter.NewLocalManifestStore(fsAdapter)
	snapshotStore = adapter.NewSpillSnapshotStore()
}

const rootLongDescription = `vbuild drives a variant-aware native build script and packages its outputs.

Every build runs <entry point> -buildKit <kit> -variants <variant> -target <target>
-reconfigure [extra...] in the project root and writes to build/<variant>/<kit>.
Builds failing with a transient license error are retried.`

// ExitCodeError carries the exit status of a failed build out of a command.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}

	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vbuild",
		Short:         "Variant build driver and artifact packager",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			loadDotEnv()

			verbose, _ := cmd.Flags().GetBool(verboseFlagName)
			logFile, _ := cmd.Flags().GetString(logFileFlagName)
			configureLogger(logFile, verbose)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(rootFlagName, "C", defaultRoot, "project root containing the build script")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(rootFlagName), rootKey)

	cmd.PersistentFlags().String(metricsFileFlagName, "", "write Prometheus metrics to this textfile after the run")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(metricsFileFlagName), metricsFileKey)

	cmd.PersistentFlags().BoolP(verboseFlagName, "v", false, "log at debug level")
	cmd.PersistentFlags().String(logFileFlagName, "", "log file (default "+defaultLogFilename+")")
	cmd.PersistentFlags().Bool(plainFlagName, false, "plain output even on a terminal")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err == nil {
		return
	}

	rootCmd.PrintErrln("Error:", err)

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		os.Exit(exitErr.Code)
	}

	os.Exit(1)
}

func newUI(cmd *cobra.Command) controller.UI {
	plain, _ := cmd.Flags().GetBool(plainFlagName)

	return controller.NewUI(cmd, !plain && controller.IsTTY(cmd.OutOrStdout()))
}

// newRecorder returns the metrics recorder for this run and a flush function
// that writes the textfile when --metrics-file is set.
func newRecorder() (metrics.Recorder, func() error) {
	path := viper.GetString(metricsFileKey)
	if path == "" {
		return metrics.NoopRecorder{}, func() error { return nil }
	}

	recorder := metrics.NewPrometheusRecorder(nil)

	return recorder, func() error {
		return recorder.WriteTextfile(path)
	}
}

// driverFactory reads the build and retry settings once and returns a
// factory for drivers under root.
func driverFactory(root m.Path, recorder metrics.Recorder) (domain.DriverFactory, error) {
	policy, err := retryPolicyFromConfig()
	if err != nil {
		return nil, err
	}

	entryPoint := viper.GetStringSlice(buildEntryPointKey)
	classify := domain.SubstringClassifier(viper.GetStringSlice(retrySignaturesKey)...)

	return func(variant m.Variant, kit m.BuildKit) domain.BuildDriver {
		return domain.NewBuildDriver(root, variant, kit, commandExecutor,
			domain.WithEntryPoint(entryPoint...),
			domain.WithClassifier(classify),
			domain.WithRetryPolicy(policy),
			domain.WithRecorder(recorder),
			domain.WithPackagingAdapters(fsAdapter, archiver, manifestStore),
		)
	}, nil
}

func parseVariants(values []string) []m.Variant {
	variants := make([]m.Variant, 0, len(values))
	for _, v := range values {
		if parsed := m.ParseVariant(v); parsed != "" {
			variants = append(variants, parsed)
		}
	}

	return variants
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
