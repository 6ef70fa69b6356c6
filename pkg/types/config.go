package types

import "errors"

// Config holds launcher settings loaded from config.yaml and the environment.
type Config struct {
	EsyPath      string `json:"esy_path" yaml:"esy_path"`
	CacheBackend string `json:"cache_backend" yaml:"cache_backend"`
	HomeDir      string `json:"home_dir" yaml:"home_dir,omitempty"`
	Debug        bool   `json:"debug" yaml:"debug"`
}

// Supported cache backend names.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// DefaultEsyPath is where npm installs the esy binary relative to a project root.
const DefaultEsyPath = "./node_modules/.bin/esy"

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("cache backend must not be empty")
	ErrBackendUnknown = errors.New("unknown cache backend")
	ErrEsyPathEmpty   = errors.New("esy path must not be empty")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendJSON:   true,
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.CacheBackend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.CacheBackend] {
		return ErrBackendUnknown
	}
	if c.EsyPath == "" {
		return ErrEsyPathEmpty
	}
	return nil
}
