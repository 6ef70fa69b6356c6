//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binLint = "golangci-lint"

// lintPaths are the esyr packages; the reference material under _examples
// is not part of the module.
var lintPaths = []string{"./cmd/...", "./internal/...", "./pkg/...", "./tests/..."}

// Vet runs go vet over the esyr packages.
func Vet() error {
	return sh.RunV(binGo, append([]string{"vet"}, lintPaths...)...)
}

// Lint runs go vet, then golangci-lint, over the esyr packages.
func Lint() error {
	mg.Deps(Vet)
	return sh.RunV(binLint, append([]string{"run"}, lintPaths...)...)
}
