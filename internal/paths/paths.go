// Package paths resolves the esyr home directory and locates project roots.
package paths

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/esyr/pkg/types"
)

// DefaultHomeDirName is the per-user directory under $HOME holding the
// fetch cache and config.yaml.
const DefaultHomeDirName = ".esyr"

// EnvHomeDir overrides the esyr home directory.
const EnvHomeDir = "ESYR_HOME"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir func() (string, error)
}{
	homeDir: os.UserHomeDir,
}

// DefaultHomeDir returns ~/.esyr.
func DefaultHomeDir() (string, error) {
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultHomeDirName), nil
}

// ResolveHomeDir returns the esyr home directory following the precedence
// chain: flag > ESYR_HOME env > DefaultHomeDir().
func ResolveHomeDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvHomeDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultHomeDir()
}

// FindRoot walks upward from start and returns the nearest directory that
// contains a package.json. It returns types.ErrNoProject once the
// filesystem root has been checked. Nothing is modified.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		_, err := os.Stat(filepath.Join(dir, types.ManifestFile))
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", types.ErrNoProject
		}
		dir = parent
	}
}
