package ops

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/esyr/pkg/types"
)

// dirDest matches destinations naming a directory prefix rather than a file.
var dirDest = regexp.MustCompile(`[./\\]`)

// ExeDest returns where mvexe places the executable for dest.
func ExeDest(m *types.Manifest, dest string) string {
	if dirDest.MatchString(dest) {
		return dest + m.BinName() + ".exe"
	}
	return dest
}

// MvExe moves the executable esy built to dest.
func (r *Runner) MvExe(m *types.Manifest, dest string) error {
	src := m.BinPath()
	dst := ExeDest(m, dest)
	if _, err := r.fs.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", types.ErrMissingBinary, src)
		}
		return err
	}

	if outsideRoot(dst) {
		// Destinations outside the project root bypass the chrooted fs.
		root := r.fs.Root()
		if !filepath.IsAbs(dst) {
			dst = filepath.Join(root, dst)
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		if err := os.Rename(filepath.Join(root, filepath.FromSlash(src)), dst); err != nil {
			return fmt.Errorf("rename: %w", err)
		}
	} else {
		dst = filepath.ToSlash(dst)
		if dir := path.Dir(dst); dir != "." {
			if err := r.fs.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("mkdir: %w", err)
			}
		}
		if err := r.fs.Rename(src, dst); err != nil {
			return fmt.Errorf("rename: %w", err)
		}
	}
	r.log.Debug("moved executable", zap.String("from", src), zap.String("to", dst))
	return nil
}

func outsideRoot(dst string) bool {
	if filepath.IsAbs(dst) {
		return true
	}
	clean := path.Clean(filepath.ToSlash(dst))
	return clean == ".." || strings.HasPrefix(clean, "../")
}
