// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for fix binaries.
//
// Three variables are injected at build time with -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/fix/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// When they are not injected, [Info] falls back to the VCS stamp the
// Go toolchain embeds in module builds.
package version
