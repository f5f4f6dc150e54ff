package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"vbuild.dev/pkg/vbuild/internal/adapter"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

// Stage names one step of a variant verification.
type Stage string

// Verification stages in the order RunAll executes them.
const (
	StageBuild     Stage = "build"
	StageUnittests Stage = "unittests"
	StageReports   Stage = "reports"
)

// Build targets used by the stages.
const (
	TargetAll       = "all"
	TargetUnittests = "unittests"
)

// VariantSuite describes what a variant must produce. Paths are relative to
// the variant's build directory.
type VariantSuite struct {
	Variant                m.Variant
	ComponentPaths         []m.Path
	ExpectedBuildArtifacts []m.Path
	CreateArchive          bool
	CreateManifest         bool
	AdditionalArgs         []string
}

// StageResult reports the outcome of one verification stage.
type StageResult struct {
	Stage      Stage
	Variant    m.Variant
	BuildKit   m.BuildKit
	Target     string
	ReturnCode int
	Missing    []m.Path
	Archive    m.Path
	Manifest   m.Path
	Duration   time.Duration
}

// Passed reports whether the build succeeded and nothing was missing.
func (r StageResult) Passed() bool {
	return r.ReturnCode == 0 && len(r.Missing) == 0
}

// DriverFactory creates the BuildDriver used for one stage.
type DriverFactory func(variant m.Variant, kit m.BuildKit) BuildDriver

// VariantRunner verifies that a variant builds and produces its outputs.
// A failing check returns the StageResult together with an error wrapping
// ErrVerification.
type VariantRunner interface {
	RunBuild(ctx context.Context, suite VariantSuite) (StageResult, error)
	RunUnittests(ctx context.Context, suite VariantSuite) (StageResult, error)
	RunReports(ctx context.Context, suite VariantSuite) (StageResult, error)
	// RunAll runs every stage and keeps going after failures.
	RunAll(ctx context.Context, suite VariantSuite) ([]StageResult, error)
}

type variantRunner struct {
	newDriver DriverFactory
	fs        adapter.WorkspaceFSAdapter
}

// NewVariantRunner constructs a VariantRunner.
func NewVariantRunner(newDriver DriverFactory, fs adapter.WorkspaceFSAdapter) VariantRunner {
	return &variantRunner{newDriver: newDriver, fs: fs}
}

func (r *variantRunner) RunBuild(ctx context.Context, suite VariantSuite) (StageResult, error) {
	driver := r.newDriver(suite.Variant, m.KitProd)

	result, err := r.runStage(ctx, driver, StageBuild, TargetAll, suite, suite.ExpectedBuildArtifacts)
	if err != nil || !result.Passed() {
		return result, err
	}

	if suite.CreateArchive {
		result.Archive, err = driver.CreateArtifactsArchive(suite.ExpectedBuildArtifacts)
		if err != nil {
			return result, fmt.Errorf("%s: %w", suite.Variant, err)
		}
	}

	if suite.CreateManifest {
		result.Manifest, err = driver.CreateArtifactsJSON(suite.ExpectedBuildArtifacts)
		if err != nil {
			return result, fmt.Errorf("%s: %w", suite.Variant, err)
		}
	}

	return result, nil
}

func (r *variantRunner) RunUnittests(ctx context.Context, suite VariantSuite) (StageResult, error) {
	var expected []m.Path
	for _, component := range suite.ComponentPaths {
		expected = append(expected,
			component.Join("junit.xml"),
			component.Join("reports", "coverage", "index.html"),
		)
	}

	driver := r.newDriver(suite.Variant, m.KitTest)

	return r.runStage(ctx, driver, StageUnittests, TargetUnittests, suite, expected)
}

func (r *variantRunner) RunReports(ctx context.Context, suite VariantSuite) (StageResult, error) {
	var expected []m.Path
	for _, component := range suite.ComponentPaths {
		expected = append(expected, component.Join("reports", "html", "index.html"))
	}

	driver := r.newDriver(suite.Variant, m.KitTest)

	return r.runStage(ctx, driver, StageReports, TargetAll, suite, expected)
}

func (r *variantRunner) RunAll(ctx context.Context, suite VariantSuite) ([]StageResult, error) {
	stages := []func(context.Context, VariantSuite) (StageResult, error){
		r.RunBuild,
		r.RunUnittests,
		r.RunReports,
	}

	results := make([]StageResult, 0, len(stages))

	var errs []error

	for _, run := range stages {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		result, err := run(ctx, suite)
		results = append(results, result)

		if err != nil {
			errs = append(errs, err)
		}
	}

	return results, errors.Join(errs...)
}

func (r *variantRunner) runStage(ctx context.Context, driver BuildDriver, stage Stage, target string, suite VariantSuite, expected []m.Path) (StageResult, error) {
	start := time.Now()
	result := StageResult{
		Stage:    stage,
		Variant:  suite.Variant,
		BuildKit: driver.BuildKit(),
		Target:   target,
	}

	code, err := driver.Execute(ctx, target, suite.AdditionalArgs...)
	result.ReturnCode = code
	result.Duration = time.Since(start)

	if err != nil {
		return result, err
	}

	if code != 0 {
		slog.Error("Verification build failed", "variant", suite.Variant, "stage", stage, "return_code", code)
		return result, fmt.Errorf("%w: %s %s: build exited with %d", ErrVerification, suite.Variant, stage, code)
	}

	missing, present, err := r.checkExpected(driver.BuildDir(), expected)
	if err != nil {
		return result, err
	}

	result.Missing = missing
	if len(missing) > 0 {
		slog.Error("Verification outputs missing", "variant", suite.Variant, "stage", stage, "missing", len(missing))
		return result, fmt.Errorf("%w: %s %s: missing outputs\n%s", ErrVerification, suite.Variant, stage, missingDiff(expected, present))
	}

	slog.Info("Verification stage passed", "variant", suite.Variant, "stage", stage, "duration", result.Duration)

	return result, nil
}

func (r *variantRunner) checkExpected(buildDir m.Path, expected []m.Path) (missing, present []m.Path, err error) {
	for _, rel := range expected {
		_, statErr := r.fs.FileInfo(buildDir.Join(string(rel)))

		switch {
		case statErr == nil:
			present = append(present, rel)
		case errors.Is(statErr, os.ErrNotExist):
			missing = append(missing, rel)
		default:
			return nil, nil, fmt.Errorf("check %s: %w", rel, statErr)
		}
	}

	return missing, present, nil
}

// missingDiff renders expected against present outputs as a unified diff, so
// missing entries show up as removed lines.
func missingDiff(expected, present []m.Path) string {
	diff := difflib.UnifiedDiff{
		A:        pathLines(expected),
		B:        pathLines(present),
		FromFile: "expected",
		ToFile:   "present",
		Context:  1,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return err.Error()
	}

	return text
}

func pathLines(paths []m.Path) []string {
	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, p.String()+"\n")
	}

	return lines
}
