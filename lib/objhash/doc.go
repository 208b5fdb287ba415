// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package objhash derives the 192-bit content pointers that identify
// Fix objects.
//
// Pointers are BLAKE3 keyed hashes truncated to 24 bytes. Two domain
// keys separate the two physical object kinds, so a blob whose bytes
// happen to equal the encoding of some tree never shares its pointer:
//
//   - [HashBlob] hashes raw blob bytes in the blob domain
//   - [HashTree] hashes the canonical CBOR encoding of a tree's element
//     list in the tree domain
//
// The truncation is a fixed property of the format. Changing either
// domain key or the pointer width invalidates every stored name.
//
// This package has no dependencies on other Fix packages.
package objhash
