// Package manifest reads project manifests and resolves their inheritance:
// a manifest naming a base URL in esyr.extends is merged over the document
// behind that URL, local fields winning.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/tidwall/jsonc"

	"github.com/mesh-intelligence/esyr/pkg/types"
)

// Resolver returns the base document for an extends URL.
type Resolver interface {
	Resolve(ctx context.Context, url string) (map[string]any, error)
}

// Read parses the manifest at name. Comments and trailing commas are
// tolerated.
func Read(fs billy.Filesystem, name string) (*types.Manifest, error) {
	data, err := util.ReadFile(fs, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	m, err := types.ParseManifest(jsonc.ToJSON(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return m, nil
}

// LoadMerged reads package.json from the project root and, when it extends a
// base URL, returns it merged over the resolved base. The merge runs on the
// documents as written, so a local empty string or null still overrides the
// base. A manifest without esyr.extends is returned as read.
func LoadMerged(ctx context.Context, fs billy.Filesystem, r Resolver) (*types.Manifest, error) {
	local, err := Read(fs, types.ManifestFile)
	if err != nil {
		return nil, err
	}
	url := local.Extends()
	if url == "" {
		return local, nil
	}

	base, err := r.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := local.ToMap()
	if err != nil {
		return nil, err
	}
	if esyr, ok := doc["esyr"].(map[string]any); ok {
		delete(esyr, "extends")
	}
	merged, err := types.ManifestFromMap(Merge(base, doc))
	if err != nil {
		return nil, fmt.Errorf("merging %s: %w", url, err)
	}
	return merged, nil
}

// Write stores m at name, marked as generated by esyr.
func Write(fs billy.Filesystem, name string, m *types.Manifest) error {
	doc, err := m.ToMap()
	if err != nil {
		return err
	}
	doc[types.CommentField] = types.GeneratedComment
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return util.WriteFile(fs, name, data, 0o644)
}
