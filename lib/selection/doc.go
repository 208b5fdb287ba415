// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package selection resolves Selection thunks: structural access into
// blobs and trees that the reduction engine delegates to a [Selector].
//
// A selection spec is a tree whose first element is an operation name
// (a literal blob) and whose second element is the target data:
//
//	["element",  target, index]        one element of a tree
//	["range",    target, start, end]   bytes [start, end) of a blob, or
//	                                   elements [start, end) of a tree
//	["truncate", target]               the target cut to size zero
//
// Integers are literal blobs of at most eight bytes, little-endian.
//
// Selection materializes as little as it can. Element and range on a
// tree load only the tree's own handle list, never element content.
// Blob ranges go through [object.BlobRangeLoader] when the backend has
// one. Truncation never touches storage: the result is named from
// metadata alone, and an empty tree keeps its tag so its type stays
// discoverable.
//
// Accessibility follows the target. Selecting from a reference yields
// references; selecting from an object yields whatever the tree holds.
// A selected Encode element comes back as its bare thunk, which the
// executing engine then keeps forcing.
//
// Malformed specs, type mismatches and out-of-range indices are
// ordinary failures ([object.Failure]).
package selection
