package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `{
  "name": "hello",
  "version": "1.0.0",
  "main": "Main.re",
  "description": "says hello",
  "keywords": ["reason", "native"],
  "license": "ISC",
  "author": {"name": "Someone"},
  "dependencies": {"@esy-ocaml/reason": "^3.0.0"},
  "esy": {"build": "jbuilder build", "buildsInSource": "_build"},
  "esyr": {
    "extends": "https://example.com/base.json",
    "build": [["esyr", "mkdunes"], "esy", ["esyr", "mvexe", "./"]],
    "note": "kept"
  }
}`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, "hello", m.Name)
	assert.Equal(t, "1.0.0", m.Version)
	assert.Equal(t, "Main.re", m.Main)
	assert.Equal(t, []string{"reason", "native"}, m.Keywords)
	assert.Equal(t, "ISC", m.License)
	assert.Equal(t, "https://example.com/base.json", m.Extends())

	ops, ok := m.Commands("build")
	require.True(t, ok)
	assert.Len(t, ops, 3)
	_, ok = m.Commands("install")
	assert.False(t, ok)

	assert.Contains(t, m.Extra, "author")
	assert.Contains(t, m.Extra, "dependencies")
	assert.Contains(t, m.Extra, "esy")
	assert.NotContains(t, m.Extra, "name")
	assert.Contains(t, m.Esyr.Extra, "note")
}

func TestManifestRoundTrip(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, sampleManifest, string(out))
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"name": `},
		{"not an object", `[1,2]`},
		{"null", `null`},
		{"name not a string", `{"name": 5}`},
		{"keywords not a list", `{"keywords": "a b"}`},
		{"extends not a string", `{"esyr": {"extends": 1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestRepositoryStringForm(t *testing.T) {
	m, err := ParseManifest([]byte(`{"repository": "github:me/thing", "bugs": "https://x/issues"}`))
	require.NoError(t, err)
	assert.Equal(t, &Repository{URL: "github:me/thing"}, m.Repository)
	assert.Equal(t, &Bugs{URL: "https://x/issues"}, m.Bugs)
}

func TestManifestMarshalsParsedDocument(t *testing.T) {
	const data = `{
		"repository": "https://github.com/me/thing",
		"bugs": {"url": "https://github.com/me/thing/issues", "email": "b@example.com"},
		"description": "",
		"license": null
	}`
	m, err := ParseManifest([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, &Repository{URL: "https://github.com/me/thing"}, m.Repository)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, data, string(out))

	built := &Manifest{Name: "n", Repository: &Repository{Type: "git", URL: "u"}}
	out, err = json.Marshal(built)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "n", "repository": {"type": "git", "url": "u"}}`, string(out))
}

func TestManifestMapConversion(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)

	doc, err := m.ToMap()
	require.NoError(t, err)
	assert.Equal(t, "hello", doc["name"])

	back, err := ManifestFromMap(doc)
	require.NoError(t, err)
	assert.Equal(t, m.Name, back.Name)
	assert.Equal(t, m.Extends(), back.Extends())
	assert.Equal(t, m.Extra, back.Extra)
}

func TestManifestNumbersPreserved(t *testing.T) {
	m, err := ParseManifest([]byte(`{"name": "n", "x": {"big": 12345678901234567890, "f": 1.50}}`))
	require.NoError(t, err)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(out), "12345678901234567890")
	assert.Contains(t, string(out), "1.50")
}

func TestManifestBinaryPaths(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		binName string
		binPath string
	}{
		{"default build dir", `{"main": "Main.re"}`, "Main", "_build/default/Main.exe"},
		{"ml entry", `{"main": "app.ml"}`, "app", "_build/default/app.exe"},
		{"buildsInSource dir", `{"main": "Main.re", "esy": {"buildsInSource": "out"}}`, "Main", "out/default/Main.exe"},
		{"buildsInSource bool", `{"main": "Main.re", "esy": {"buildsInSource": true}}`, "Main", "_build/default/Main.exe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.binName, m.BinName())
			assert.Equal(t, tt.binPath, m.BinPath())
		})
	}
}
