package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/esyr/pkg/types"
)

const projectManifest = `{
  "name": "hello",
  "version": "1.0.0",
  "description": "says hello",
  "main": "Hello.re",
  "repository": "https://github.com/me/hello",
  "license": "MIT",
  "esy": {"build": "jbuilder build"},
  "esyr": {"build": [["esyr", "mkdunes"], "esy"]}
}
`

// fakeEsy prints its arguments and the package.json it sees, then exits
// with $FAKE_ESY_CODE.
const fakeEsy = `#!/bin/sh
echo "argv: $*"
cat package.json
exit ${FAKE_ESY_CODE:-0}
`

// runCLI runs esyr with args in dir and returns the exit code and output.
func runCLI(t *testing.T, dir, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Chdir(dir)
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := run(context.Background(), root, args)
	return code, stdout.String(), stderr.String()
}

// newTestProject creates a project with a fake esy installed where npm would
// put it, and points the esyr home at a temp dir.
func newTestProject(t *testing.T, pkg string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake esy is a shell script")
	}
	t.Setenv("ESYR_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, types.ManifestFile), []byte(pkg), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Hello.re"), []byte("print_endline(\"hi\");\n"), 0o644))
	bin := filepath.Join(dir, "node_modules", ".bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "esy"), []byte(fakeEsy), 0o755))
	return dir
}

func readProjectFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestUsage(t *testing.T) {
	t.Setenv("ESYR_HOME", t.TempDir())
	for _, args := range [][]string{nil, {"help"}} {
		t.Run(fmt.Sprint(args), func(t *testing.T) {
			code, out, _ := runCLI(t, t.TempDir(), "", args...)
			assert.Equal(t, exitSuccess, code)
			assert.Contains(t, out, "Usage: esyr <command>")
			assert.Contains(t, out, "<anything else>")
		})
	}
}

func TestVersion(t *testing.T) {
	t.Setenv("ESYR_HOME", t.TempDir())
	code, out, _ := runCLI(t, t.TempDir(), "", "version")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "esyr v")
	assert.Contains(t, out, modulePath)
}

func TestNoProject(t *testing.T) {
	t.Setenv("ESYR_HOME", t.TempDir())
	code, _, errOut := runCLI(t, t.TempDir(), "", "build")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "No package.json file was found, try: esyr init")
}

func TestPassThrough(t *testing.T) {
	dir := newTestProject(t, projectManifest)
	sub := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	code, out, _ := runCLI(t, sub, "", "build", "--release")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "argv: build --release")
	assert.Contains(t, out, types.CommentField, "esy must see the merged manifest")
	assert.Equal(t, projectManifest, readProjectFile(t, dir, types.ManifestFile))
	assert.NoFileExists(t, filepath.Join(dir, types.BackupFile))
	assert.FileExists(t, filepath.Join(dir, "jbuild"))
}

func TestHomeFlagBeforeCommand(t *testing.T) {
	tests := []struct {
		name string
		args func(home string) []string
	}{
		{"separate value", func(home string) []string { return []string{"--home", home, "build", "--release"} }},
		{"inline value", func(home string) []string { return []string{"--home=" + home, "build", "--release"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newTestProject(t, projectManifest)
			home := filepath.Join(t.TempDir(), "flaghome")

			code, out, _ := runCLI(t, dir, "", tt.args(home)...)
			require.Equal(t, exitSuccess, code)
			assert.Contains(t, out, "argv: build --release\n")
			assert.Contains(t, out, types.CommentField, "the build sequence must be looked up by command name")
			assert.FileExists(t, filepath.Join(home, configFileExt))
			assert.FileExists(t, filepath.Join(dir, "jbuild"))
		})
	}
}

func TestHomeFlagMissingValue(t *testing.T) {
	dir := newTestProject(t, projectManifest)

	code, out, errOut := runCLI(t, dir, "", "--home")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "flag needs an argument: --home")
	assert.NotContains(t, out, "argv:")
}

func TestPassThroughExitCode(t *testing.T) {
	dir := newTestProject(t, projectManifest)
	t.Setenv("FAKE_ESY_CODE", "4")

	code, _, _ := runCLI(t, dir, "", "install")
	assert.Equal(t, 4, code)
	assert.Equal(t, projectManifest, readProjectFile(t, dir, types.ManifestFile))
}

func TestValidationAbortsBeforeSwap(t *testing.T) {
	pkg := `{"name": "bad name!", "main": "Hello.re"}`
	dir := newTestProject(t, pkg)

	code, out, errOut := runCLI(t, dir, "", "build")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "URL-friendly")
	assert.NotContains(t, out, "argv:")
	assert.Equal(t, pkg, readProjectFile(t, dir, types.ManifestFile))
}

func TestCleanRestoresBackup(t *testing.T) {
	dir := newTestProject(t, projectManifest)
	require.NoError(t, os.Rename(filepath.Join(dir, types.ManifestFile), filepath.Join(dir, types.BackupFile)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, types.ManifestFile), []byte(`{"__comment": "generated", "name": "hello", "main": "Hello.re"}`), 0o644))

	code, _, errOut := runCLI(t, dir, "", "build")
	assert.Equal(t, exitUserError, code, "a pending backup blocks new runs")
	assert.Contains(t, errOut, "esyr clean")

	code, _, _ = runCLI(t, dir, "", "clean")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, projectManifest, readProjectFile(t, dir, types.ManifestFile))
	assert.NoFileExists(t, filepath.Join(dir, types.BackupFile))

	code, _, _ = runCLI(t, dir, "", "clean")
	assert.Equal(t, exitSuccess, code)
}

func TestGitignore(t *testing.T) {
	dir := newTestProject(t, projectManifest)
	code, out, _ := runCLI(t, dir, "", "gitignore")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "node_modules\njbuild\njbuild-ignore\n.merlin\nhello.opam\nhello.install\n_build\nHello.exe\n", out)
}

func TestMkDunes(t *testing.T) {
	dir := newTestProject(t, projectManifest)

	code, _, _ := runCLI(t, dir, "", "mkdunes", "--version", "0")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, readProjectFile(t, dir, "jbuild"), "( public_name hello )")
	assert.FileExists(t, filepath.Join(dir, "hello.opam"))

	code, _, errOut := runCLI(t, dir, "", "mkdunes", "--version", "1")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "npm i -g esyr")
}

func TestEsyDirect(t *testing.T) {
	dir := newTestProject(t, projectManifest)
	code, out, _ := runCLI(t, dir, "", "esy", "help")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "argv: help")
	assert.NotContains(t, out, types.CommentField)
}

func TestInit(t *testing.T) {
	t.Setenv("ESYR_HOME", t.TempDir())
	dir := filepath.Join(t.TempDir(), "my-app")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	answers := strings.Join([]string{
		"",         // name: directory name
		"1.x",      // rejected
		"0.1.0",    // version
		"An app",   // description
		"1Main.re", // rejected
		"App.re",   // entry point
		"git@github.com:me/my-app.git",
		"reason cli",
		"Me",
		"NOT-A-LICENSE", // rejected
		"",              // license: ISC
		"yes",
	}, "\n") + "\n"

	code, out, _ := runCLI(t, dir, answers, "init")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "Invalid version")
	assert.Contains(t, out, "subfolders are not yet supported")
	assert.Contains(t, out, "Sorry, invalid license")

	m, err := types.ParseManifest([]byte(readProjectFile(t, dir, types.ManifestFile)))
	require.NoError(t, err)
	assert.Equal(t, "my-app", m.Name)
	assert.Equal(t, "0.1.0", m.Version)
	assert.Equal(t, "An app", m.Description)
	assert.Equal(t, "App.re", m.Main)
	assert.Equal(t, "git+ssh://git@github.com/me/my-app.git", m.Repository.URL)
	assert.Equal(t, "https://github.com/me/my-app#readme", m.Homepage)
	assert.Equal(t, []string{"reason", "cli"}, m.Keywords)
	assert.Equal(t, "Me", m.Extra["author"])
	assert.Equal(t, "ISC", m.License)
	assert.Equal(t, DefaultExtends, m.Extends())
}

func TestInitDeclined(t *testing.T) {
	t.Setenv("ESYR_HOME", t.TempDir())
	dir := t.TempDir()
	code, out, _ := runCLI(t, dir, strings.Repeat("\n", 8)+"no\n", "init")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "Aborted")
	assert.NoFileExists(t, filepath.Join(dir, types.ManifestFile))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		message string
	}{
		{"success", nil, exitSuccess, ""},
		{"build tool code", &exitCodeError{code: 9}, 9, ""},
		{"no project", types.ErrNoProject, exitUserError, "try: esyr init"},
		{"validation", fmt.Errorf("%w (x y)", types.ErrInvalidName), exitUserError, "URL-friendly"},
		{"corrupt cache", fmt.Errorf("loading: %w", types.ErrCorruptCache), exitSysError, "corrupt"},
		{"restore failure", &types.RestoreError{Backup: types.BackupFile, Err: errors.New("EACCES")}, exitSysError, "FATAL"},
		{"filesystem", &os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}, exitSysError, "permission denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.want, exitCode(&buf, tt.err))
			if tt.message == "" {
				assert.Empty(t, buf.String())
			} else {
				assert.Contains(t, buf.String(), tt.message)
			}
		})
	}
}
