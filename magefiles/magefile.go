// Copyright (c) 2026 suetake6183. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Package main provides build targets for the mirralism project using Mage.
//
// Usage:
//
//	mage build          Compile the mirralism binary to bin/
//	mage test:all       Run all tests
//	mage test:unit      Run tests with -short
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Write a coverage profile and print the total
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install mirralism to GOPATH/bin
//	mage stats          Print Go LOC and documentation word counts
package main

const (
	binGo      = "go"
	binaryName = "mirralism"
	binaryDir  = "bin"
	cmdDir     = "./cmd/mirralism"
)
