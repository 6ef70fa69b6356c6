package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/esyr/pkg/types"
)

// JSONFile is the cache file name inside the esyr home directory.
const JSONFile = "cache.json"

// JSONStore keeps the cache as a single JSON file. Writes go to a temp file
// that is renamed over JSONFile, so an interrupted write never damages the
// existing cache.
type JSONStore struct {
	fs  billy.Filesystem
	dir string
}

// NewJSONStore returns a store keeping its file in dir on fs. dir is created
// on first save.
func NewJSONStore(fs billy.Filesystem, dir string) *JSONStore {
	return &JSONStore{fs: fs, dir: dir}
}

func (s *JSONStore) path(name string) string {
	return s.fs.Join(s.dir, name)
}

// Load reads cache.json. A missing file yields an empty state.
func (s *JSONStore) Load(ctx context.Context) (*State, error) {
	data, err := util.ReadFile(s.fs, s.path(JSONFile))
	if errors.Is(err, fs.ErrNotExist) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", JSONFile, err)
	}
	state := NewState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrCorruptCache, s.path(JSONFile), err)
	}
	return state, nil
}

// Save writes state atomically.
func (s *JSONStore) Save(ctx context.Context, state *State) error {
	if err := s.fs.MkdirAll(s.dir, 0o777); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	tmp := s.path("_cache-" + uuid.NewString() + ".json")
	if err := util.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("writeFile: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path(JSONFile)); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
