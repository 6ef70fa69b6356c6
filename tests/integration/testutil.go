// Package integration runs the esyr binary against throwaway projects with a
// fake esy installed.
package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

var (
	// esyrBin is the path to the built esyr binary.
	esyrBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the module root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// SetEsyrBin sets the path to the esyr binary (called from TestMain).
func SetEsyrBin(path string) {
	esyrBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// fakeEsyScript prints its argv and the package.json it was started with.
// A build leaves an executable where esy would.
// FAKE_ESY_CODE sets its exit code; FAKE_ESY_MODE=crash kills esyr while
// the merged manifest is in place and FAKE_ESY_MODE=hang waits to be
// interrupted.
const fakeEsyScript = `#!/bin/sh
echo "argv: $*"
cat package.json
if [ "$1" = build ]; then
  mkdir -p _build/default && echo exe > _build/default/Main.exe
fi
case "$FAKE_ESY_MODE" in
crash) kill -9 $PPID ;;
hang) echo ready > esy.ready; exec sleep 30 ;;
esac
exit ${FAKE_ESY_CODE:-0}
`

// TestEnv is an isolated esyr home plus one project directory.
type TestEnv struct {
	t       *testing.T
	Home    string
	Project string
	Env     []string
}

// NewTestEnv creates a project containing manifest, its main file and a
// fake esy under node_modules/.bin.
func NewTestEnv(t *testing.T, manifest string) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build esyr: %v", buildErr)
	}
	if esyrBin == "" {
		t.Fatal("esyr binary not built (esyrBin is empty)")
	}

	tempDir := t.TempDir()
	e := &TestEnv{
		t:       t,
		Home:    filepath.Join(tempDir, "home", ".esyr"),
		Project: filepath.Join(tempDir, "project"),
	}
	bin := filepath.Join(e.Project, "node_modules", ".bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	e.WriteFile("package.json", manifest)
	e.WriteFile("Main.re", "print_endline(\"hello\");\n")
	if err := os.WriteFile(filepath.Join(bin, "esy"), []byte(fakeEsyScript), 0o755); err != nil {
		t.Fatalf("failed to write fake esy: %v", err)
	}
	return e
}

// WriteFile writes content to name inside the project.
func (e *TestEnv) WriteFile(name, content string) {
	e.t.Helper()
	if err := os.WriteFile(filepath.Join(e.Project, name), []byte(content), 0o644); err != nil {
		e.t.Fatalf("failed to write %s: %v", name, err)
	}
}

// ReadFile returns the content of name inside the project.
func (e *TestEnv) ReadFile(name string) string {
	e.t.Helper()
	data, err := os.ReadFile(filepath.Join(e.Project, name))
	if err != nil {
		e.t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}

// Exists reports whether name exists inside the project.
func (e *TestEnv) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(e.Project, name))
	return err == nil
}

// CmdResult holds the result of an esyr command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Command prepares esyr with args in the project directory.
func (e *TestEnv) Command(args ...string) (*exec.Cmd, *bytes.Buffer, *bytes.Buffer) {
	cmd := exec.Command(esyrBin, args...)
	cmd.Dir = e.Project
	cmd.Env = append(os.Environ(), append([]string{"ESYR_HOME=" + e.Home}, e.Env...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	return cmd, &stdout, &stderr
}

// RunEsyr executes esyr with the given arguments and waits for it.
func (e *TestEnv) RunEsyr(args ...string) CmdResult {
	e.t.Helper()

	cmd, stdout, stderr := e.Command(args...)
	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run esyr: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunEsyr executes esyr and fails the test if it returns non-zero.
func (e *TestEnv) MustRunEsyr(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunEsyr(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("esyr %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// waitForFile polls for name inside the project.
func (e *TestEnv) waitForFile(name string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if e.Exists(name) {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}
