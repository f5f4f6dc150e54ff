package domain_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vbuild.dev/pkg/vbuild/internal/adapter"
	adaptermocks "vbuild.dev/pkg/vbuild/internal/adapter/mocks"
	"vbuild.dev/pkg/vbuild/internal/domain"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

func newTestRunner(root string, executor adapter.CommandExecutor) domain.VariantRunner {
	factory := func(variant m.Variant, kit m.BuildKit) domain.BuildDriver {
		return domain.NewBuildDriver(m.Path(root), variant, kit, executor,
			domain.WithEntryPoint("build.bat"), domain.WithSleep(func(time.Duration) {}))
	}

	return domain.NewVariantRunner(factory, adapter.NewLocalWorkspaceFSAdapter())
}

func otherVariantSuite() domain.VariantSuite {
	return domain.VariantSuite{
		Variant:                m.VariantFromSuiteName("Test_Other__Variant"),
		ComponentPaths:         []m.Path{"component3", "component4"},
		ExpectedBuildArtifacts: []m.Path{"artifact3", "artifact4"},
	}
}

func expectBuild(executor *adaptermocks.MockCommandExecutor, kit, target string, code int) {
	cmd := []string{"build.bat", "-buildKit", kit, "-variants", "Other/Variant", "-target", target, "-reconfigure"}
	executor.EXPECT().
		Execute(mock.Anything, cmd, mock.Anything, mock.Anything).
		Return(m.CommandResult{ReturnCode: code}, nil).
		Once()
}

func TestVariantRunner_RunBuild(t *testing.T) {
	root := t.TempDir()
	executor := adaptermocks.NewMockCommandExecutor(t)
	suite := otherVariantSuite()
	suite.CreateArchive = true
	suite.CreateManifest = true

	buildDir := filepath.Join(root, "build", "Other", "Variant", "prod")
	writeFile(t, filepath.Join(buildDir, "artifact3"), "3")
	writeFile(t, filepath.Join(buildDir, "artifact4"), "4")

	expectBuild(executor, "prod", "all", 0)

	result, err := newTestRunner(root, executor).RunBuild(context.Background(), suite)

	require.NoError(t, err)
	assert.True(t, result.Passed())
	assert.Equal(t, domain.StageBuild, result.Stage)
	assert.Equal(t, m.KitProd, result.BuildKit)
	assert.Equal(t, m.Path(filepath.Join(buildDir, "artifacts.zip")), result.Archive)
	assert.Equal(t, m.Path(filepath.Join(buildDir, "artifacts.json")), result.Manifest)
	assert.Equal(t, []string{"artifact3", "artifact4"}, zipNames(t, result.Archive))
}

func TestVariantRunner_RunBuild_MissingArtifact(t *testing.T) {
	root := t.TempDir()
	executor := adaptermocks.NewMockCommandExecutor(t)
	suite := otherVariantSuite()
	suite.CreateArchive = true

	buildDir := filepath.Join(root, "build", "Other", "Variant", "prod")
	writeFile(t, filepath.Join(buildDir, "artifact3"), "3")

	expectBuild(executor, "prod", "all", 0)

	result, err := newTestRunner(root, executor).RunBuild(context.Background(), suite)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVerification)
	assert.Contains(t, err.Error(), "-artifact4")
	assert.Equal(t, []m.Path{"artifact4"}, result.Missing)
	assert.Empty(t, result.Archive)

	_, statErr := os.Stat(filepath.Join(buildDir, "artifacts.zip"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestVariantRunner_RunBuild_BuildFailure(t *testing.T) {
	root := t.TempDir()
	executor := adaptermocks.NewMockCommandExecutor(t)

	expectBuild(executor, "prod", "all", 3)

	result, err := newTestRunner(root, executor).RunBuild(context.Background(), otherVariantSuite())

	require.ErrorIs(t, err, domain.ErrVerification)
	assert.Equal(t, 3, result.ReturnCode)
	assert.False(t, result.Passed())
}

func TestVariantRunner_RunUnittests(t *testing.T) {
	root := t.TempDir()
	executor := adaptermocks.NewMockCommandExecutor(t)

	buildDir := filepath.Join(root, "build", "Other", "Variant", "test")
	for _, component := range []string{"component3", "component4"} {
		writeFile(t, filepath.Join(buildDir, component, "junit.xml"), "<testsuites/>")
		writeFile(t, filepath.Join(buildDir, component, "reports", "coverage", "index.html"), "<html/>")
	}

	expectBuild(executor, "test", "unittests", 0)

	result, err := newTestRunner(root, executor).RunUnittests(context.Background(), otherVariantSuite())

	require.NoError(t, err)
	assert.Equal(t, domain.StageUnittests, result.Stage)
	assert.Equal(t, "unittests", result.Target)
	assert.Equal(t, m.KitTest, result.BuildKit)
}

func TestVariantRunner_RunReports_Missing(t *testing.T) {
	root := t.TempDir()
	executor := adaptermocks.NewMockCommandExecutor(t)

	buildDir := filepath.Join(root, "build", "Other", "Variant", "test")
	writeFile(t, filepath.Join(buildDir, "component3", "reports", "html", "index.html"), "<html/>")

	expectBuild(executor, "test", "all", 0)

	result, err := newTestRunner(root, executor).RunReports(context.Background(), otherVariantSuite())

	require.ErrorIs(t, err, domain.ErrVerification)
	assert.Equal(t, []m.Path{m.Path(filepath.Join("component4", "reports", "html", "index.html"))}, result.Missing)
}

func TestVariantRunner_RunAll_ContinuesAfterFailure(t *testing.T) {
	root := t.TempDir()
	executor := adaptermocks.NewMockCommandExecutor(t)
	suite := otherVariantSuite()
	suite.ComponentPaths = nil

	expectBuild(executor, "prod", "all", 1)
	expectBuild(executor, "test", "unittests", 0)
	expectBuild(executor, "test", "all", 0)

	results, err := newTestRunner(root, executor).RunAll(context.Background(), suite)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrVerification))
	require.Len(t, results, 3)
	assert.False(t, results[0].Passed())
	assert.True(t, results[1].Passed())
	assert.True(t, results[2].Passed())
}

func TestVariantRunner_RunAll_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := newTestRunner(t.TempDir(), adaptermocks.NewMockCommandExecutor(t)).RunAll(ctx, otherVariantSuite())

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}
