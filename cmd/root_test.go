package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vbuild.dev/pkg/vbuild/internal/metrics"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

func TestParseVariants(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []m.Variant
	}{
		{"empty", nil, []m.Variant{}},
		{"single", []string{"Bla/Blub"}, []m.Variant{"Bla/Blub"}},
		{"backslash", []string{`Other\Variant`}, []m.Variant{"Other/Variant"}},
		{"blank skipped", []string{" ", "A/B "}, []m.Variant{"A/B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseVariants(tt.values))
		})
	}
}

func TestParsePaths(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []m.Path
	}{
		{"empty", []string{}, []m.Path{}},
		{"single", []string{"main.elf"}, []m.Path{m.Path("main.elf")}},
		{
			"multiple",
			[]string{"main.elf", "main.hex", "/tmp/readme.txt"},
			[]m.Path{m.Path("main.elf"), m.Path("main.hex"), m.Path("/tmp/readme.txt")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePaths(tt.args)
			require.Len(t, got, len(tt.want))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "vbuild", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	for _, name := range []string{rootFlagName, metricsFileFlagName, verboseFlagName, logFileFlagName, plainFlagName} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	cmd := newRootCmd()
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"--log-file", logFileIn(t)})
	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, output.String(), "Usage:")
	assert.Contains(t, output.String(), "transient license error")
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"build", "package", "track", "verify", "init", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestInit(t *testing.T) {
	assert.NotNil(t, commandExecutor)
	assert.NotNil(t, fsAdapter)
	assert.NotNil(t, archiver)
	assert.NotNil(t, manifestStore)
	assert.NotNil(t, snapshotStore)
}

func TestExitCodeError(t *testing.T) {
	inner := errors.New("build of A/B (prod) failed")
	err := fmt.Errorf("wrapped: %w", &ExitCodeError{Code: 3, Err: inner})

	var exitErr *ExitCodeError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "exit status 2", (&ExitCodeError{Code: 2}).Error())
}

func TestNewRecorder(t *testing.T) {
	withConfig(t, metricsFileKey, "")

	recorder, flush := newRecorder()
	assert.IsType(t, metrics.NoopRecorder{}, recorder)
	require.NoError(t, flush())

	path := t.TempDir() + "/vbuild.prom"
	withConfig(t, metricsFileKey, path)

	recorder, flush = newRecorder()
	recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	require.NoError(t, flush())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), `vbuild_build_outcomes_total{outcome="success"} 1`)
}

func TestExecute_ProcessLevel_Success(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS") == "1" {
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Println("success")
				return nil
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		rootCmd = mockCmd

		Execute()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_Success")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS=1")
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, string(output), "success")
}

func TestExecute_ProcessLevel_Failure(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS_FAIL") == "1" {
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				return fmt.Errorf("command failed")
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		rootCmd = mockCmd

		Execute()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_Failure")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS_FAIL=1")
	output, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, string(output), "command failed")
}

func TestExecute_ProcessLevel_ExitCode(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS_CODE") == "1" {
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				return &ExitCodeError{Code: 7, Err: errors.New("build failed")}
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		rootCmd = mockCmd

		Execute()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_ExitCode")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS_CODE=1")
	output, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 7, exitErr.ExitCode())
	assert.Contains(t, string(output), "build failed")
}
