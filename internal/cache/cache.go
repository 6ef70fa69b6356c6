// Package cache keeps documents fetched from extends URLs so each URL is
// downloaded at most once per cache lifetime. The in-process Cache is loaded
// once and is the source of truth for the rest of the run; a Store mirrors it
// to disk so it survives across runs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/esyr/pkg/types"
)

// State is the persisted cache content.
type State struct {
	PackageJSON map[string]json.RawMessage `json:"package_json"`
}

// NewState returns an empty cache state.
func NewState() *State {
	return &State{PackageJSON: make(map[string]json.RawMessage)}
}

// Store persists cache state. Load returns a fresh state when nothing has
// been stored yet and wraps types.ErrCorruptCache when stored data cannot be
// decoded.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}

// Cache is the process-wide fetch cache.
type Cache struct {
	store Store
	log   *zap.Logger

	mu    sync.Mutex
	state *State
	dirty bool
}

// New creates a Cache backed by store. Nothing is read until first use.
func New(store Store, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{store: store, log: log}
}

// Load reads the durable store on first call and returns the in-process
// state on every later call. A corrupt store is returned as an error; any
// other read failure is logged and the cache starts empty.
func (c *Cache) Load(ctx context.Context) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

func (c *Cache) loadLocked(ctx context.Context) (*State, error) {
	if c.state != nil {
		return c.state, nil
	}
	state, err := c.store.Load(ctx)
	switch {
	case errors.Is(err, types.ErrCorruptCache):
		return nil, err
	case err != nil:
		c.log.Warn("cache unavailable, esyr will be slower", zap.Error(err))
		state = NewState()
	default:
		c.log.Debug("cache loaded", zap.Int("entries", len(state.PackageJSON)))
	}
	if state.PackageJSON == nil {
		state.PackageJSON = make(map[string]json.RawMessage)
	}
	c.state = state
	return c.state, nil
}

// Get returns a private copy of the document cached for url.
func (c *Cache) Get(ctx context.Context, url string) (json.RawMessage, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.loadLocked(ctx)
	if err != nil {
		return nil, false, err
	}
	doc, ok := state.PackageJSON[url]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), doc...), true, nil
}

// Put stores a copy of doc under url.
func (c *Cache) Put(ctx context.Context, url string, doc json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.loadLocked(ctx)
	if err != nil {
		return err
	}
	state.PackageJSON[url] = append(json.RawMessage(nil), doc...)
	c.dirty = true
	return nil
}

// Save writes the in-process state to the durable store. Failure only costs
// performance on the next run, so it is logged and never returned.
func (c *Cache) Save(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		c.log.Debug("no cache to store")
		return
	}
	if !c.dirty {
		c.log.Debug("cache unchanged, not storing")
		return
	}
	c.log.Debug("storing cache")
	if err := c.store.Save(ctx, c.state); err != nil {
		c.log.Warn("unable to save cache, esyr will be slower", zap.Error(err))
		return
	}
	c.dirty = false
}
