package types

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		version string
		valid   bool
	}{
		{"1.0.0", true},
		{"v1.2.3", true},
		{"0.0.0", true},
		{"1.0.0-alpha.1", true},
		{"1.0.0-0.3.7", true},
		{"1.0.0+build.5", true},
		{"1.0.0-rc.1+sha.abc123", true},
		{"1.0", false},
		{"01.0.0", false},
		{"1.0.0-01", false},
		{"1.0.0-", false},
		{"latest", false},
		{"", false},
		{"1.0.0-" + strings.Repeat("a", SemverMaxLength), false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := ValidateVersion(tt.version)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidVersion)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"esyr", "my-app", "a.b_c~d", "X1"} {
		assert.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", "has space", "slash/name", "@scope", "q?"} {
		assert.ErrorIs(t, ValidateName(bad), ErrInvalidName, bad)
	}
}

func TestValidateMain(t *testing.T) {
	for _, ok := range []string{"Main.re", "main.ml", "_1.re", "9lives.ml"} {
		assert.NoError(t, ValidateMain(ok), ok)
	}
	for _, bad := range []string{"Main.js", "src/Main.re", "Main-x.re", "Main.rei", ".re", ""} {
		assert.ErrorIs(t, ValidateMain(bad), ErrInvalidMain, bad)
	}
}

func TestValidateEntryPoint(t *testing.T) {
	assert.NoError(t, ValidateEntryPoint("Main.re"))
	assert.NoError(t, ValidateEntryPoint("app_1.ml"))
	assert.ErrorIs(t, ValidateEntryPoint("9lives.ml"), ErrInvalidMain)
	assert.ErrorIs(t, ValidateEntryPoint("bin/Main.re"), ErrInvalidMain)
	assert.ErrorIs(t, ValidateEntryPoint("Main.txt"), ErrInvalidMain)
}

func TestValidateLicense(t *testing.T) {
	tests := []struct {
		license string
		valid   bool
	}{
		{"ISC", true},
		{"MIT", true},
		{"Apache-2.0", true},
		{"MIT OR Apache-2.0", true},
		{"GPL-3.0-only", true},
		{"UNLICENSED", true},
		{"SEE LICENSE IN LICENSE.txt", true},
		{"GPL-3.0", false},
		{"LicenseRef-Proprietary", false},
		{"SEE LICENSE IN ", false},
		{"Not A License", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.license, func(t *testing.T) {
			err := ValidateLicense(tt.license)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidLicense)
			}
		})
	}
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		wantErr  error
	}{
		{"missing name", Manifest{Main: "Main.re"}, ErrMissingName},
		{"bad name", Manifest{Name: "a b", Main: "Main.re"}, ErrInvalidName},
		{"missing main", Manifest{Name: "app"}, ErrMissingMain},
		{"bad main", Manifest{Name: "app", Main: "Main.js"}, ErrInvalidMain},
		{"valid", Manifest{Name: "app", Main: "Main.re"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestManifestAdvisories(t *testing.T) {
	m := Manifest{Name: "app", Main: "Main.re"}
	assert.Equal(t, []string{"No description", "No repository field.", "No license field."}, m.Advisories())

	m.Description = "d"
	m.License = "MIT"
	m.SetRepository("https://example.com/a/b")
	assert.Empty(t, m.Advisories())
}
