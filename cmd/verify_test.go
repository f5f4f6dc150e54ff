package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vbuild.dev/pkg/vbuild/internal/domain"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

func TestVerifyCmd_AllStagesPass(t *testing.T) {
	root := newProject(t)
	withConfig(t, variantsKey, []map[string]interface{}{{
		"variant":    "Bla/Blub",
		"components": []string{"src/app"},
		"artifacts":  []string{"main.elf"},
		"archive":    true,
		"manifest":   true,
	}})

	output, err := executeCommand(t, newVerifyCmd(), "verify")
	require.NoError(t, err)
	assert.Contains(t, output, "unittests")
	assert.Contains(t, output, "reports")

	calls := readCalls(t, root)
	assert.Contains(t, calls, "-buildKit prod -variants Bla/Blub -target all")
	assert.Contains(t, calls, "-buildKit test -variants Bla/Blub -target unittests")
	assert.Contains(t, calls, "-buildKit test -variants Bla/Blub -target all")

	assert.FileExists(t, filepath.Join(root, "build", "Bla", "Blub", "prod", "artifacts.zip"))
	assert.FileExists(t, filepath.Join(root, "build", "Bla", "Blub", "prod", "artifacts.json"))
}

func TestVerifyCmd_MissingArtifact(t *testing.T) {
	newProject(t)
	withConfig(t, variantsKey, []map[string]interface{}{{
		"variant":   "Bla/Blub",
		"artifacts": []string{"main.elf", "main.hex"},
	}})

	output, err := executeCommand(t, newVerifyCmd(), "verify", "--stage", "build")
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrVerification)
	assert.Contains(t, err.Error(), "-main.hex")

	var exitErr *ExitCodeError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, output, "FAILED")
}

func TestVerifyCmd_BuildFailureKeepsGoing(t *testing.T) {
	root := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "fail_with"), []byte("2"), 0o644))

	_, err := executeCommand(t, newVerifyCmd(), "verify", "-V", "A/B")
	require.Error(t, err)

	// build, unittests and reports each ran once.
	calls := readCalls(t, root)
	assert.Contains(t, calls, "-target unittests")
	assert.Contains(t, calls, "-buildKit prod")
	assert.Contains(t, calls, "-buildKit test -variants A/B -target all")
}

func TestVerifyCmd_UnknownStage(t *testing.T) {
	newProject(t)

	_, err := executeCommand(t, newVerifyCmd(), "verify", "-V", "A/B", "--stage", "deploy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestVerifyCmd_InvalidRetryPolicy(t *testing.T) {
	root := newProject(t)
	withConfig(t, retryModeKey, "random")

	_, err := executeCommand(t, newVerifyCmd(), "verify", "-V", "A/B")
	require.ErrorIs(t, err, domain.ErrInvalidRetryPolicy)
	assert.NoFileExists(t, filepath.Join(root, "calls.log"))
}

func TestSelectedSuites(t *testing.T) {
	withConfig(t, variantsKey, []map[string]interface{}{
		{"variant": "A/B", "artifacts": []string{"main.elf"}},
		{"variant": "C/D"},
	})

	suites, err := selectedSuites(nil)
	require.NoError(t, err)
	require.Len(t, suites, 2)

	suites, err = selectedSuites([]m.Variant{"A/B", "X/Y"})
	require.NoError(t, err)
	require.Len(t, suites, 2)
	assert.Equal(t, []m.Path{"main.elf"}, suites[0].ExpectedBuildArtifacts)
	assert.Equal(t, domain.VariantSuite{Variant: "X/Y"}, suites[1])
}
