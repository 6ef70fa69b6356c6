//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the esyr project using Mage.
//
// Usage:
//
//	mage build             Compile the esyr binary to bin/
//	mage test:all          Run all tests (unit + integration)
//	mage test:unit         Run only unit tests (exclude integration)
//	mage test:integration  Run only integration tests (builds first)
//	mage vet               Run go vet
//	mage lint              Run go vet and golangci-lint
//	mage clean             Remove build artifacts
//	mage install           Install esyr to GOPATH/bin
//	mage stats             Print Go LOC and documentation word counts
package main

const (
	binGo      = "go"
	binaryName = "esyr"
	binaryDir  = "bin"
	cmdDir     = "./cmd/esyr"
)
