// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration shared by every
// Fix package that serializes objects.
//
// Fix names are content addresses: the pointer of a tree is the BLAKE3
// hash of its encoded element list. Two processes that encode the same
// elements must therefore produce the same bytes, so the encoder uses
// Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys,
// smallest integer encoding, no indefinite-length items.
//
// Three callers depend on this package:
//
//   - lib/object encodes tree element lists (the input to tree naming)
//   - lib/objstore encodes the on-disk object records of the disk backend
//   - cmd/fix prints a tree's encoding in diagnostic notation (cat --cbor)
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// The decoder forbids indefinite-length items and duplicate map keys,
// neither of which the encoder ever produces, and accepts arrays up to
// [MaxArrayElements] long so that the largest representable tree
// (2^31-1 elements) still decodes.
//
// # Struct Tag Rules
//
// Types in this module are only ever serialized as CBOR, so they use
// `cbor` struct tags. Record types that sit on the hashing path use
// the `toarray` option to keep field order explicit and encodings
// compact.
package codec
