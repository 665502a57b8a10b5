// Package local runs sessions as PTY-backed processes on the server host.
// Used for development and single-node deployments; the production path is
// the kubernetes backend.
package local

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/gamgui-io/gamgui/internal/models"
	"github.com/gamgui-io/gamgui/internal/runner"
)

// Config configures a local runner.
type Config struct {
	// Command is the program each session runs.
	// Empty means lookup "gam" in PATH, falling back to the user's shell.
	Command string
}

// Runner starts sessions as local PTY processes.
type Runner struct {
	command string
}

// New creates a local runner with the given configuration.
func New(cfg Config) *Runner {
	return &Runner{command: cfg.Command}
}

// Kind returns the backend kind identifier.
func (r *Runner) Kind() string {
	return "local"
}

// Start spawns the session process in a PTY.
func (r *Runner) Start(ctx context.Context, opts runner.StartOptions) (runner.Handle, error) {
	path, err := r.resolveCommand()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", runner.ErrNotAvailable, err)
	}

	cmd := exec.Command(path)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	for k, v := range opts.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	proc, err := NewProcess(ProcessOptions{
		SessionID: opts.SessionID,
		Cmd:       cmd,
		Rows:      opts.Rows,
		Cols:      opts.Cols,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start session process: %w", err)
	}
	return proc, nil
}

// resolveCommand finds the session binary.
// Check order: configured path → "gam" in PATH → $SHELL → /bin/sh.
func (r *Runner) resolveCommand() (string, error) {
	if r.command != "" {
		if _, err := os.Stat(r.command); err == nil {
			return r.command, nil
		}
		if path, err := exec.LookPath(r.command); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("configured command not found: %s", r.command)
	}

	if path, err := exec.LookPath("gam"); err == nil {
		return path, nil
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		if _, err := os.Stat(shell); err == nil {
			return shell, nil
		}
	}

	if _, err := os.Stat("/bin/sh"); err == nil {
		return "/bin/sh", nil
	}

	return "", fmt.Errorf("no session command found")
}

var _ runner.Runner = (*Runner)(nil)

// statusForExit maps a process exit to a session status.
func statusForExit(err error) models.SessionStatus {
	if err != nil {
		return models.SessionStatusFailed
	}
	return models.SessionStatusSucceeded
}
