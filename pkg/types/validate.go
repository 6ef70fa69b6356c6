package types

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/github/go-spdx/v2/spdxexp"
)

var (
	nameRe = regexp.MustCompile(`^[A-Za-z0-9_.~-]+$`)

	// mainRe is the pattern the overlay pipeline enforces on main.
	mainRe = regexp.MustCompile(`^[A-Za-z0-9_]+(\.re|\.ml)$`)

	// entryPointRe is the stricter pattern init applies to a new entry point.
	entryPointRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*\.(ml|re)$`)

	// semverRe is the grammar used by node-semver, with an optional leading v.
	semverRe = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
		`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][a-zA-Z0-9-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][a-zA-Z0-9-]*))*))?` +
		`(?:\+([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)
)

// SemverMaxLength bounds version strings.
const SemverMaxLength = 256

// ValidateName checks that name is usable in a URL.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

// ValidateMain checks the main field against the pattern the pipeline
// accepts.
func ValidateMain(main string) error {
	if !mainRe.MatchString(main) {
		return fmt.Errorf("%w (%s)", ErrInvalidMain, main)
	}
	return nil
}

// ValidateEntryPoint checks a main file proposed by init: it must begin with
// a letter and subfolders are not supported.
func ValidateEntryPoint(main string) error {
	if !entryPointRe.MatchString(main) {
		return fmt.Errorf("%w: the name must begin with a letter, subfolders are not yet supported", ErrInvalidMain)
	}
	return nil
}

// ValidateVersion checks a semantic version string.
func ValidateVersion(version string) error {
	if len(version) > SemverMaxLength || !semverRe.MatchString(version) {
		return ErrInvalidVersion
	}
	return nil
}

// deprecatedLicenses are identifiers SPDX still parses but which are not
// accepted for new packages.
var deprecatedLicenses = map[string]string{
	"GPL-1.0":                         "GPL-1.0-only",
	"GPL-2.0":                         "GPL-2.0-only",
	"GPL-3.0":                         "GPL-3.0-only",
	"LGPL-2.0":                        "LGPL-2.0-only",
	"LGPL-2.1":                        "LGPL-2.1-only",
	"LGPL-3.0":                        "LGPL-3.0-only",
	"AGPL-1.0":                        "AGPL-1.0-only",
	"AGPL-3.0":                        "AGPL-3.0-only",
	"GFDL-1.1":                        "GFDL-1.1-only",
	"GFDL-1.2":                        "GFDL-1.2-only",
	"GFDL-1.3":                        "GFDL-1.3-only",
	"GPL-2.0+":                        "GPL-2.0-or-later",
	"GPL-3.0+":                        "GPL-3.0-or-later",
	"LGPL-2.1+":                       "LGPL-2.1-or-later",
	"LGPL-3.0+":                       "LGPL-3.0-or-later",
	"eCos-2.0":                        "GPL-2.0-or-later WITH eCos-exception-2.0",
	"Nunit":                           "zlib-acknowledgement",
	"StandardML-NJ":                   "SMLNJ",
	"wxWindows":                       "GPL-2.0-or-later WITH WxWindows-exception-3.1",
	"GPL-2.0-with-autoconf-exception": "GPL-2.0-only WITH Autoconf-exception-2.0",
}

const licenseHelp = `license should be a valid SPDX license expression (without "LicenseRef"), "UNLICENSED", or "SEE LICENSE IN <filename>"`

// ValidateLicense reports whether license is acceptable for a new package:
// a current SPDX expression, UNLICENSED, or a SEE LICENSE IN reference.
func ValidateLicense(license string) error {
	switch {
	case strings.TrimSpace(license) == "":
		return fmt.Errorf("%w: %s", ErrInvalidLicense, licenseHelp)
	case license == "UNLICENSED" || license == "UNLICENCED":
		return nil
	case strings.HasPrefix(license, "SEE LICENSE IN ") || strings.HasPrefix(license, "SEE LICENCE IN "):
		if strings.TrimSpace(license[len("SEE LICENSE IN "):]) == "" {
			return fmt.Errorf("%w: %s", ErrInvalidLicense, licenseHelp)
		}
		return nil
	case strings.Contains(license, "LicenseRef"):
		return fmt.Errorf("%w: %s", ErrInvalidLicense, licenseHelp)
	}
	if current, ok := deprecatedLicenses[license]; ok {
		return fmt.Errorf("%w: %s is deprecated, use %s", ErrInvalidLicense, license, current)
	}
	if valid, _ := spdxexp.ValidateLicenses([]string{license}); !valid {
		return fmt.Errorf("%w: %s", ErrInvalidLicense, licenseHelp)
	}
	return nil
}

// Validate checks the fields the overlay pipeline needs before it touches
// the project. Existence of the main file is checked by the caller.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if err := ValidateName(m.Name); err != nil {
		return fmt.Errorf("%w (%s)", err, m.Name)
	}
	if m.Main == "" {
		return ErrMissingMain
	}
	return ValidateMain(m.Main)
}

// Advisories lists non-fatal gaps in the manifest metadata.
func (m *Manifest) Advisories() []string {
	var out []string
	if m.Description == "" {
		out = append(out, "No description")
	}
	if m.Repository == nil {
		out = append(out, "No repository field.")
	}
	if m.License == "" {
		out = append(out, "No license field.")
	}
	return out
}
