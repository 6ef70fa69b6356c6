package types

import (
	"errors"
	"fmt"
)

// Project and manifest errors.
var (
	ErrNoProject     = errors.New("no package.json file was found")
	ErrEmptyManifest = errors.New("package.json is apparently empty")
	ErrBackupExists  = errors.New("backup of package.json already exists, run `esyr clean` first")
	ErrCorruptCache  = errors.New("cache file is corrupt")
)

// Manifest validation errors.
var (
	ErrMissingName    = errors.New("package.json must have a 'name' entry")
	ErrMissingMain    = errors.New("package.json must have a 'main' entry")
	ErrInvalidName    = errors.New("name can only contain URL-friendly characters")
	ErrInvalidMain    = errors.New("main file must only have alphanumeric characters in the name and end with .ml or .re")
	ErrMainNotFound   = errors.New("main file does not exist")
	ErrInvalidVersion = errors.New("invalid version")
	ErrInvalidLicense = errors.New("invalid license")
)

// Operation errors.
var (
	ErrMkDunesVersion = errors.New("unsupported mkdunes version")
	ErrMissingBinary  = errors.New("built executable not found")
)

// InvalidRemoteConfigError reports that the document behind an extends URL
// could not be used as a manifest base.
type InvalidRemoteConfigError struct {
	URL    string
	Reason string
	Err    error
}

func (e *InvalidRemoteConfigError) Error() string {
	return fmt.Sprintf("getting config [%s] %s", e.URL, e.Reason)
}

func (e *InvalidRemoteConfigError) Unwrap() error { return e.Err }

// RestoreError means the original package.json could not be moved back into
// place. The backup file still holds the original.
type RestoreError struct {
	Backup string
	Err    error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("could not replace original package.json from %s: %v", e.Backup, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }
