// Package adapter contains the infrastructure adapters (process execution,
// filesystem, archive and persistence) used by the domain layer.
package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"

	m "vbuild.dev/pkg/vbuild/internal/model"
)

// ErrProcessSpawn is returned when an external process cannot be started at all.
var ErrProcessSpawn = errors.New("process spawn failed")

// CommandExecutor runs external processes synchronously.
type CommandExecutor interface {
	// Execute runs command and blocks until it exits. A non-zero exit status is
	// reported in the result, not as an error. Only spawn failures return an
	// error wrapping ErrProcessSpawn.
	Execute(ctx context.Context, command []string, opts ...ExecOption) (m.CommandResult, error)
}

// ExecOption customizes a single Execute call.
type ExecOption func(*execConfig)

type execConfig struct {
	dir string
	env map[string]string
}

// WithDir sets the working directory of the child process.
func WithDir(dir m.Path) ExecOption {
	return func(c *execConfig) {
		c.dir = string(dir)
	}
}

// WithEnv replaces the child's environment. A nil map inherits the current
// process environment.
func WithEnv(env map[string]string) ExecOption {
	return func(c *execConfig) {
		c.env = env
	}
}

// LocalCommandExecutor runs processes on the local machine using os/exec.
type LocalCommandExecutor struct{}

// NewLocalCommandExecutor constructs a LocalCommandExecutor.
func NewLocalCommandExecutor() *LocalCommandExecutor {
	return &LocalCommandExecutor{}
}

// Execute runs the command with stderr redirected into stdout.
func (a *LocalCommandExecutor) Execute(ctx context.Context, command []string, opts ...ExecOption) (m.CommandResult, error) {
	if len(command) == 0 {
		return m.CommandResult{}, fmt.Errorf("%w: empty command", ErrProcessSpawn)
	}

	cfg := execConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	// #nosec G204 - the command line is assembled by the build driver from configuration
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = cfg.dir

	if cfg.env != nil {
		cmd.Env = envList(cfg.env)
	}

	var output bytes.Buffer

	cmd.Stdout = &output
	cmd.Stderr = &output

	slog.Debug("executing command", "command", command, "dir", cfg.dir)

	err := cmd.Run()
	result := m.CommandResult{Stdout: output.String()}

	if err == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ReturnCode = exitErr.ExitCode()
		slog.Debug("command exited with non-zero status", "command", command, "code", result.ReturnCode)

		return result, nil
	}

	slog.Error("failed to start command", "command", command, "error", err)

	return m.CommandResult{}, fmt.Errorf("%w: %s: %w", ErrProcessSpawn, command[0], err)
}

func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	list := make([]string, 0, len(keys))
	for _, key := range keys {
		list = append(list, key+"="+env[key])
	}

	return list
}
