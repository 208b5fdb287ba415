// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objhash

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Size is the width of a pointer in bytes (192 bits).
const Size = 24

// Pointer is an opaque content identifier. Equal pointers denote equal
// content within one domain.
type Pointer [Size]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. The byte values
// are the ASCII encoding of the domain name, zero-padded to 32 bytes,
// so the keys stay readable in hex dumps.
type domainKey [32]byte

var (
	blobDomainKey = domainKey{
		'f', 'i', 'x', '.', 'o', 'b', 'j', 'e', 'c', 't', '.', 'b', 'l', 'o', 'b', 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	treeDomainKey = domainKey{
		'f', 'i', 'x', '.', 'o', 'b', 'j', 'e', 'c', 't', '.', 't', 'r', 'e', 'e', 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// HashBlob computes the blob-domain pointer of data.
func HashBlob(data []byte) Pointer {
	return keyedHash(blobDomainKey, data)
}

// HashTree computes the tree-domain pointer of an encoded element
// list. The caller supplies the canonical encoding; see lib/object.
func HashTree(encoded []byte) Pointer {
	return keyedHash(treeDomainKey, encoded)
}

// IsZero reports whether p is the all-zero pointer, which no hash
// output is expected to produce and which marks an unset name.
func (p Pointer) IsZero() bool {
	return p == Pointer{}
}

// String returns the canonical lowercase hex form of the pointer.
func (p Pointer) String() string {
	return hex.EncodeToString(p[:])
}

// Short returns the first 12 hex characters, for log output.
func (p Pointer) Short() string {
	return hex.EncodeToString(p[:6])
}

// Parse parses a 48-character hex string into a Pointer.
func Parse(hexString string) (Pointer, error) {
	var pointer Pointer
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return pointer, fmt.Errorf("parsing object pointer: %w", err)
	}
	if len(decoded) != Size {
		return pointer, fmt.Errorf("object pointer is %d bytes, want %d", len(decoded), Size)
	}
	copy(pointer[:], decoded)
	return pointer, nil
}

// FromBytes copies a raw pointer out of b. Used when decoding stored
// records, where the pointer travels as a CBOR byte string.
func FromBytes(b []byte) (Pointer, error) {
	var pointer Pointer
	if len(b) != Size {
		return pointer, fmt.Errorf("object pointer is %d bytes, want %d", len(b), Size)
	}
	copy(pointer[:], b)
	return pointer, nil
}

// keyedHash computes the BLAKE3 keyed hash of data and truncates it to
// a pointer.
func keyedHash(key domainKey, data []byte) Pointer {
	// NewKeyed only fails for a key of the wrong length, which the
	// fixed-size domainKey rules out.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("objhash: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	var pointer Pointer
	copy(pointer[:], digest[:Size])
	return pointer
}
