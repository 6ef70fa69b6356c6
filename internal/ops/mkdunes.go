package ops

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/esyr/pkg/types"
)

// ReplaceMarker tags a file esyr generated and may overwrite. Removing it
// from a file keeps esyr's hands off.
const ReplaceMarker = "$ESYR_CAN_REPLACE$"

// DunesVersion is the only build-file layout this version generates.
const DunesVersion = 0

// GeneratedFile is one file emitted by mkdunes.
type GeneratedFile struct {
	Name    string
	Content string
}

// DunesFiles returns the build files mkdunes generates for m.
func DunesFiles(m *types.Manifest) []GeneratedFile {
	jbuild := []string{
		";; Autogenerated by esyr " + ReplaceMarker,
		Sexp("jbuild_version", 1),
		Sexp("executable", []any{
			[]any{"name", m.BinName()},
			[]any{"public_name", m.Name},
			[]any{"libraries", []any{}},
		}),
		"",
	}
	ignore := []string{
		"# Autogenerated by esyr " + ReplaceMarker,
		".git",
		"node_modules",
		"",
	}
	return []GeneratedFile{
		{Name: m.Name + ".opam", Content: "# Autogenerated by esyr " + ReplaceMarker + "\n"},
		{Name: "jbuild-ignore", Content: strings.Join(ignore, "\n")},
		{Name: "jbuild", Content: strings.Join(jbuild, "\n")},
	}
}

// Sexp renders items as a parenthesized s-expression. Nested []any values
// become nested lists.
func Sexp(items ...any) string {
	return sexp(items)
}

func sexp(v any) string {
	list, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, sexp(item))
	}
	return "( " + strings.Join(parts, " ") + " )"
}

// MkDunes writes the dune/jbuilder files for m. Files that exist without
// ReplaceMarker are left alone.
func (r *Runner) MkDunes(m *types.Manifest, args []string) error {
	version, err := dunesVersion(args)
	if err != nil {
		return err
	}
	if version != DunesVersion {
		return fmt.Errorf("%w: I don't know how to mkdunes version %d prehaps try `npm i -g esyr` to upgrade", types.ErrMkDunesVersion, version)
	}
	for _, f := range DunesFiles(m) {
		if err := r.writeReplaceable(f); err != nil {
			return err
		}
	}
	return nil
}

func dunesVersion(args []string) (int, error) {
	for i, a := range args {
		if a != "--version" {
			continue
		}
		if i+1 >= len(args) {
			return 0, fmt.Errorf("%w: missing version number in command %s", types.ErrMkDunesVersion, strings.Join(args, " "))
		}
		n, err := strconv.Atoi(args[i+1])
		if err != nil {
			return 0, fmt.Errorf("%w: invalid version number in command %s", types.ErrMkDunesVersion, strings.Join(args, " "))
		}
		return n, nil
	}
	return DunesVersion, nil
}

func (r *Runner) writeReplaceable(f GeneratedFile) error {
	existing, err := util.ReadFile(r.fs, f.Name)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("reading %s: %w", f.Name, err)
	case !strings.Contains(string(existing), ReplaceMarker):
		r.log.Debug("keeping hand-edited file", zap.String("file", f.Name))
		return nil
	case string(existing) == f.Content:
		return nil
	}
	if err := util.WriteFile(r.fs, f.Name, []byte(f.Content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", f.Name, err)
	}
	r.log.Debug("generated", zap.String("file", f.Name))
	return nil
}
