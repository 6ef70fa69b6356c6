package cache

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/mesh-intelligence/esyr/pkg/types"
)

// OpenStore returns the durable store selected by cfg.CacheBackend, rooted
// at cfg.HomeDir.
func OpenStore(cfg types.Config) (Store, error) {
	switch cfg.CacheBackend {
	case types.BackendJSON:
		return NewJSONStore(osfs.New(filepath.Dir(cfg.HomeDir)), filepath.Base(cfg.HomeDir)), nil
	case types.BackendSQLite:
		return NewSQLiteStore(cfg.HomeDir), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, types.ErrBackendUnknown
	}
}
