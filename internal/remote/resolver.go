// Package remote resolves extends URLs to JSON documents through the fetch
// cache.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/esyr/internal/cache"
	"github.com/mesh-intelligence/esyr/pkg/types"
)

// Fetcher retrieves the raw body behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches over HTTP(S). The status code is not inspected: the
// body has to parse as JSON either way.
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch issues a GET and reads the full body.
func (f HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Resolver returns base documents for extends URLs. Each URL is fetched at
// most once per cache lifetime; concurrent callers share one fetch.
type Resolver struct {
	cache   *cache.Cache
	fetcher Fetcher
	log     *zap.Logger
	group   singleflight.Group
}

// NewResolver creates a Resolver. A nil fetcher uses HTTPFetcher.
func NewResolver(c *cache.Cache, f Fetcher, log *zap.Logger) *Resolver {
	if f == nil {
		f = HTTPFetcher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{cache: c, fetcher: f, log: log}
}

// Resolve returns the JSON object behind url. The result is a fresh copy the
// caller may modify freely.
func (r *Resolver) Resolve(ctx context.Context, url string) (map[string]any, error) {
	r.log.Debug("package.json extends", zap.String("url", url))

	raw, ok, err := r.cache.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if ok {
		r.log.Debug("found in cache", zap.String("url", url))
		return decodeObject(url, raw)
	}

	v, err, _ := r.group.Do(url, func() (any, error) {
		return r.download(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	return decodeObject(url, v.(json.RawMessage))
}

func (r *Resolver) download(ctx context.Context, url string) (json.RawMessage, error) {
	// Another caller may have finished the same download while this one
	// waited to enter the group.
	if raw, ok, err := r.cache.Get(ctx, url); err != nil || ok {
		return raw, err
	}

	r.log.Debug("downloading", zap.String("url", url))
	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("getting config [%s]: %w", url, err)
	}
	if _, err := decodeObject(url, body); err != nil {
		return nil, err
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return nil, &types.InvalidRemoteConfigError{URL: url, Reason: "content does not parse as JSON.", Err: err}
	}
	raw := json.RawMessage(compact.Bytes())
	if err := r.cache.Put(ctx, url, raw); err != nil {
		return nil, err
	}
	r.log.Debug("downloading complete", zap.String("url", url))
	return raw, nil
}

func decodeObject(url string, data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &types.InvalidRemoteConfigError{URL: url, Reason: "content does not parse as JSON.", Err: err}
	}
	if dec.More() {
		return nil, &types.InvalidRemoteConfigError{URL: url, Reason: "content does not parse as JSON."}
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, &types.InvalidRemoteConfigError{URL: url, Reason: "content is not a JSON object."}
	}
	return doc, nil
}
