// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for fix packages.
//
// [CountingBackend] wraps an [object.Backend] and counts every load and
// create, so tests can assert that an operation touched storage only
// as much as it had to (truncation never loads, element selection
// loads only the tree's own handle list).
//
// [Literal], [Blob], [Tree], and [Uint64] build handles with a minimum
// of ceremony. [RequireReceive] and [RequireClosed] encapsulate the
// timeout safety valve pattern for tests that fan work out to
// goroutines.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
