package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
)

// Fixed file names in a project root.
const (
	ManifestFile = "package.json"
	BackupFile   = "_esyr_orig_package.json"
)

// CommentField carries GeneratedComment in a manifest written by esyr.
const (
	CommentField     = "__comment"
	GeneratedComment = "Generated by esyr, run `esyr clean` to revert to the original"
)

// DefaultBuildDir is where esy places build output unless
// esy.buildsInSource names another directory.
const DefaultBuildDir = "_build"

// Repository is the normalized form of the manifest repository field.
type Repository struct {
	Type string `json:"type,omitempty"`
	URL  string `json:"url"`
}

// UnmarshalJSON accepts both the object form and a bare URL string.
func (r *Repository) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Repository{URL: s}
		return nil
	}
	type plain Repository
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Repository(p)
	return nil
}

// Bugs is the issue tracker location.
type Bugs struct {
	URL string `json:"url,omitempty"`
}

// UnmarshalJSON accepts both the object form and a bare URL string.
func (b *Bugs) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = Bugs{URL: s}
		return nil
	}
	type plain Bugs
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = Bugs(p)
	return nil
}

// EsyrSection is the "esyr" object of a manifest: an optional base URL to
// inherit from and named operation sequences keyed by esyr command.
type EsyrSection struct {
	Extends  string
	Commands map[string]OperationList
	// Extra keeps non-sequence entries this version does not interpret.
	Extra map[string]json.RawMessage
}

// UnmarshalJSON splits the section into extends, sequences and the rest.
func (s *EsyrSection) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	out := EsyrSection{}
	for key, raw := range fields {
		if key == "extends" {
			if err := json.Unmarshal(raw, &out.Extends); err != nil {
				return fmt.Errorf("esyr.extends: %w", err)
			}
			continue
		}
		if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '[' {
			var ops OperationList
			if err := json.Unmarshal(t, &ops); err != nil {
				return fmt.Errorf("esyr.%s: %w", key, err)
			}
			if out.Commands == nil {
				out.Commands = make(map[string]OperationList)
			}
			out.Commands[key] = ops
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[key] = raw
	}
	*s = out
	return nil
}

// MarshalJSON writes the section back as a single object.
func (s EsyrSection) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Commands)+len(s.Extra)+1)
	for k, v := range s.Extra {
		out[k] = v
	}
	for k, v := range s.Commands {
		out[k] = v
	}
	if s.Extends != "" {
		out["extends"] = s.Extends
	}
	return json.Marshal(out)
}

// Manifest is a project package.json. Fields esyr reads, writes or validates
// are typed; everything else is preserved untouched in Extra.
//
// A parsed manifest also keeps the document it was decoded from and marshals
// back to exactly that document, so sub-fields the typed form does not model
// (bugs.email, repository.directory, a string repository) and explicit
// empty or null values survive. A manifest built in code marshals from its
// typed fields.
type Manifest struct {
	Name        string
	Version     string
	Description string
	Main        string
	Repository  *Repository
	Bugs        *Bugs
	Homepage    string
	Keywords    []string
	License     string
	Esyr        *EsyrSection

	Extra map[string]any

	doc map[string]any
}

// knownField binds a JSON key to a typed Manifest field.
type knownField struct {
	key   string
	ptr   func(m *Manifest) any
	value func(m *Manifest) (any, bool)
}

var knownFields = []knownField{
	{"name", func(m *Manifest) any { return &m.Name }, func(m *Manifest) (any, bool) { return m.Name, m.Name != "" }},
	{"version", func(m *Manifest) any { return &m.Version }, func(m *Manifest) (any, bool) { return m.Version, m.Version != "" }},
	{"description", func(m *Manifest) any { return &m.Description }, func(m *Manifest) (any, bool) { return m.Description, m.Description != "" }},
	{"main", func(m *Manifest) any { return &m.Main }, func(m *Manifest) (any, bool) { return m.Main, m.Main != "" }},
	{"repository", func(m *Manifest) any { return &m.Repository }, func(m *Manifest) (any, bool) { return m.Repository, m.Repository != nil }},
	{"bugs", func(m *Manifest) any { return &m.Bugs }, func(m *Manifest) (any, bool) { return m.Bugs, m.Bugs != nil }},
	{"homepage", func(m *Manifest) any { return &m.Homepage }, func(m *Manifest) (any, bool) { return m.Homepage, m.Homepage != "" }},
	{"keywords", func(m *Manifest) any { return &m.Keywords }, func(m *Manifest) (any, bool) { return m.Keywords, m.Keywords != nil }},
	{"license", func(m *Manifest) any { return &m.License }, func(m *Manifest) (any, bool) { return m.License, m.License != "" }},
	{"esyr", func(m *Manifest) any { return &m.Esyr }, func(m *Manifest) (any, bool) { return m.Esyr, m.Esyr != nil }},
}

// UnmarshalJSON decodes known fields strictly and keeps the rest in Extra.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return ErrEmptyManifest
	}
	out := Manifest{}
	for _, f := range knownFields {
		raw, ok := fields[f.key]
		if !ok {
			continue
		}
		delete(fields, f.key)
		if err := json.Unmarshal(raw, f.ptr(&out)); err != nil {
			return fmt.Errorf("field %q: %w", f.key, err)
		}
	}
	if len(fields) > 0 {
		out.Extra = make(map[string]any, len(fields))
		for key, raw := range fields {
			v, err := decodeValue(raw)
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			out.Extra[key] = v
		}
	}
	doc, err := decodeValue(data)
	if err != nil {
		return err
	}
	out.doc, _ = doc.(map[string]any)
	*m = out
	return nil
}

// MarshalJSON writes the parsed document, or known fields and Extra as a
// single object for a manifest built in code.
func (m Manifest) MarshalJSON() ([]byte, error) {
	if m.doc != nil {
		return json.Marshal(m.doc)
	}
	out := make(map[string]any, len(m.Extra)+len(knownFields))
	for k, v := range m.Extra {
		out[k] = v
	}
	for _, f := range knownFields {
		if v, ok := f.value(&m); ok {
			out[f.key] = v
		}
	}
	return json.Marshal(out)
}

// ParseManifest decodes a manifest from strict JSON.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ToMap returns the manifest as a generic JSON document.
func (m *Manifest) ToMap() (map[string]any, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	v, err := decodeValue(data)
	if err != nil {
		return nil, err
	}
	doc, _ := v.(map[string]any)
	return doc, nil
}

// ManifestFromMap converts a generic JSON document back into a Manifest.
func ManifestFromMap(doc map[string]any) (*Manifest, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// Extends returns the base URL the manifest inherits from, if any.
func (m *Manifest) Extends() string {
	if m.Esyr == nil {
		return ""
	}
	return m.Esyr.Extends
}

// Commands returns the operation sequence declared for an esyr command.
func (m *Manifest) Commands(command string) (OperationList, bool) {
	if m.Esyr == nil {
		return nil, false
	}
	ops, ok := m.Esyr.Commands[command]
	return ops, ok
}

var mainExt = regexp.MustCompile(`(\.re|\.ml)$`)

// BinName is the executable name derived from main.
func (m *Manifest) BinName() string {
	return mainExt.ReplaceAllString(m.Main, "")
}

// BuildDir returns esy.buildsInSource when it names a directory, otherwise
// DefaultBuildDir.
func (m *Manifest) BuildDir() string {
	esy, ok := m.Extra["esy"].(map[string]any)
	if !ok {
		return DefaultBuildDir
	}
	if dir, ok := esy["buildsInSource"].(string); ok && dir != "" {
		return dir
	}
	return DefaultBuildDir
}

// BinPath is where esy leaves the built executable, relative to the root.
func (m *Manifest) BinPath() string {
	return path.Join(m.BuildDir(), "default", m.BinName()+".exe")
}

func decodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
