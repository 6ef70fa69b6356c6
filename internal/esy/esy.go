// Package esy invokes the external build tool.
package esy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Runner runs the build tool with argv and returns its exit code. A
// non-zero exit code is not an error; err is reserved for failing to run
// the tool at all.
type Runner interface {
	Run(ctx context.Context, argv []string) (int, error)
}

// ExecRunner runs the build tool as a subprocess sharing esyr's stdio.
type ExecRunner struct {
	Path   string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates an ExecRunner for the executable at path wired to
// the process stdio.
func NewExecRunner(path string) *ExecRunner {
	return &ExecRunner{Path: path, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run starts the tool and waits for it. Canceling ctx interrupts the tool
// and kills it if it has not exited shortly after.
func (r *ExecRunner) Run(ctx context.Context, argv []string) (int, error) {
	cmd := exec.CommandContext(ctx, r.Path, argv...)
	cmd.Dir = r.Dir
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		// Killed by a signal.
		return 1, nil
	}
	return 0, fmt.Errorf("running %s: %w", r.Path, err)
}
