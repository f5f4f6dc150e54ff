package domain

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"vbuild.dev/pkg/vbuild/internal/adapter"
	"vbuild.dev/pkg/vbuild/internal/metrics"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

// failedOutputLines is how much of a failed build's output is logged.
const failedOutputLines = 40

// BuildDriver runs the project's build script for one variant and build kit.
type BuildDriver interface {
	Variant() m.Variant
	BuildKit() m.BuildKit
	// BuildDir returns <root>/build/<variant>/<kit>.
	BuildDir() m.Path
	// Command returns the argument vector Execute would run.
	Command(target string, additionalArgs ...string) []string
	// Execute runs the build script and returns its exit code. Transient
	// failures are retried according to the retry policy. The error is
	// non-nil only when the script could not be started.
	Execute(ctx context.Context, target string, additionalArgs ...string) (int, error)
	// CreateArtifactsArchive packages paths into <build dir>/artifacts.zip.
	CreateArtifactsArchive(paths []m.Path) (m.Path, error)
	// CreateArtifactsJSON writes the manifest <build dir>/artifacts.json.
	CreateArtifactsJSON(paths []m.Path) (m.Path, error)
}

// BuildOption customizes a BuildDriver.
type BuildOption func(*buildDriver)

// WithEntryPoint overrides the build script invocation, e.g. "build.bat" or
// "pwsh", "-File", "build.ps1".
func WithEntryPoint(args ...string) BuildOption {
	return func(d *buildDriver) {
		if len(args) > 0 {
			d.entryPoint = append([]string(nil), args...)
		}
	}
}

// WithClassifier sets the function that recognizes transient failures.
func WithClassifier(classifier TransientClassifier) BuildOption {
	return func(d *buildDriver) {
		if classifier != nil {
			d.classifier = classifier
		}
	}
}

// WithRetryPolicy sets the retry budget and backoff.
func WithRetryPolicy(policy RetryPolicy) BuildOption {
	return func(d *buildDriver) {
		d.policy = policy
	}
}

// WithSleep replaces the blocking pause between retries.
func WithSleep(sleep func(time.Duration)) BuildOption {
	return func(d *buildDriver) {
		if sleep != nil {
			d.sleep = sleep
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(recorder metrics.Recorder) BuildOption {
	return func(d *buildDriver) {
		if recorder != nil {
			d.recorder = recorder
		}
	}
}

// WithLogger sets the logger used for build records.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(d *buildDriver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithBuildEnv replaces the environment of the build script. Nil inherits the
// current process environment.
func WithBuildEnv(env map[string]string) BuildOption {
	return func(d *buildDriver) {
		d.env = env
	}
}

// WithPackagingAdapters sets the adapters used by the artifact operations.
func WithPackagingAdapters(fs adapter.WorkspaceFSAdapter, archiver adapter.ArtifactArchiver, manifests adapter.ManifestStore) BuildOption {
	return func(d *buildDriver) {
		d.fs = fs
		d.archiver = archiver
		d.manifests = manifests
	}
}

type buildDriver struct {
	root       m.Path
	variant    m.Variant
	kit        m.BuildKit
	executor   adapter.CommandExecutor
	entryPoint []string
	env        map[string]string
	classifier TransientClassifier
	policy     RetryPolicy
	sleep      func(time.Duration)
	recorder   metrics.Recorder
	logger     *slog.Logger
	fs         adapter.WorkspaceFSAdapter
	archiver   adapter.ArtifactArchiver
	manifests  adapter.ManifestStore
}

// DefaultEntryPoint returns build.bat on Windows and ./build.sh elsewhere.
func DefaultEntryPoint() []string {
	if runtime.GOOS == "windows" {
		return []string{"build.bat"}
	}

	return []string{"./build.sh"}
}

// NewBuildDriver constructs a BuildDriver for variant and kit of the project
// at root. The build script always runs with root as working directory.
func NewBuildDriver(root m.Path, variant m.Variant, kit m.BuildKit, executor adapter.CommandExecutor, opts ...BuildOption) BuildDriver {
	fs := adapter.NewLocalWorkspaceFSAdapter()
	d := &buildDriver{
		root:       root,
		variant:    variant,
		kit:        kit,
		executor:   executor,
		entryPoint: DefaultEntryPoint(),
		classifier: SubstringClassifier(DefaultTransientSignatures...),
		policy:     DefaultRetryPolicy(),
		sleep:      time.Sleep,
		recorder:   metrics.NoopRecorder{},
		logger:     slog.Default(),
		fs:         fs,
		archiver:   adapter.NewZipArchiver(fs),
		manifests:  adapter.NewLocalManifestStore(fs),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *buildDriver) Variant() m.Variant {
	return d.variant
}

func (d *buildDriver) BuildKit() m.BuildKit {
	return d.kit
}

func (d *buildDriver) BuildDir() m.Path {
	return m.BuildDir(d.root, d.variant, d.kit)
}

func (d *buildDriver) Command(target string, additionalArgs ...string) []string {
	command := make([]string, 0, len(d.entryPoint)+7+len(additionalArgs))
	command = append(command, d.entryPoint...)
	command = append(command,
		"-buildKit", d.kit.String(),
		"-variants", d.variant.String(),
		"-target", target,
		"-reconfigure",
	)

	return append(command, additionalArgs...)
}

func (d *buildDriver) Execute(ctx context.Context, target string, additionalArgs ...string) (int, error) {
	logger := d.logger.With(
		"invocation", uuid.NewString(),
		"variant", d.variant.String(),
		"build_kit", d.kit.String(),
		"target", target,
	)
	command := d.Command(target, additionalArgs...)
	start := time.Now()

	defer func() {
		d.recorder.ObserveBuildDuration(time.Since(start))
	}()

	for retries := 0; ; retries++ {
		d.recorder.IncBuildAttempt(d.variant.String())
		logger.Info("Running build", "attempt", retries+1, "command", strings.Join(command, " "), "dir", d.root)

		result, err := d.executor.Execute(ctx, command, adapter.WithDir(d.root), adapter.WithEnv(d.env))
		if err != nil {
			d.recorder.IncBuildOutcome(metrics.OutcomeSpawnError)
			logger.Error("Failed to start build", "attempt", retries+1, "error", err)

			return -1, fmt.Errorf("build %s (%s) target %s: %w", d.variant, d.kit, target, err)
		}

		logger.Debug("Build output", "attempt", retries+1, "output", result.Stdout)

		if result.Succeeded() {
			d.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
			logger.Info("Build succeeded", "attempt", retries+1, "duration", time.Since(start))

			return 0, nil
		}

		if !d.classifier(result.ReturnCode, result.Stdout) {
			d.recorder.IncBuildOutcome(metrics.OutcomeFailed)
			logger.Error("Build failed", "attempt", retries+1, "return_code", result.ReturnCode,
				"output", tailLines(result.Stdout, failedOutputLines))

			return result.ReturnCode, nil
		}

		if retries >= d.policy.MaxRetries {
			d.recorder.IncBuildOutcome(metrics.OutcomeTransient)
			logger.Error("Transient build failure persisted after retries", "retries", retries,
				"return_code", result.ReturnCode, "output", tailLines(result.Stdout, failedOutputLines))

			return result.ReturnCode, nil
		}

		delay := d.policy.Delay(retries + 1)
		d.recorder.IncBuildRetry(d.variant.String())
		logger.Warn("Transient build failure, retrying", "attempt", retries+1,
			"return_code", result.ReturnCode, "delay", delay)
		d.sleep(delay)
	}
}

func (d *buildDriver) CreateArtifactsArchive(paths []m.Path) (m.Path, error) {
	return d.packager().CreateArchive(paths)
}

func (d *buildDriver) CreateArtifactsJSON(paths []m.Path) (m.Path, error) {
	return d.packager().CreateManifest(paths)
}

func (d *buildDriver) packager() ArtifactPackager {
	return NewArtifactPackager(d.fs, d.archiver, d.manifests, d.BuildDir(), d.variant, d.kit)
}

func tailLines(output string, n int) string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}

	return strings.Join(lines[len(lines)-n:], "\n")
}
