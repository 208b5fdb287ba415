// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bureau-foundation/fix/lib/objhash"
)

const (
	// PageSize is the unit of estimated memory footprint (64 KiB).
	PageSize = 65536

	// HandleSize is the in-memory cost of one tree element (256 bits).
	HandleSize = 32

	// LiteralCapacity is the largest blob carried inline in its name.
	LiteralCapacity = 30
)

// BlobName identifies an immutable byte sequence and its length.
// Blobs of at most LiteralCapacity bytes are always literals; longer
// blobs are named by pointer. The zero BlobName is the empty literal.
type BlobName struct {
	pointer objhash.Pointer
	size    uint64
	literal [LiteralCapacity]byte
	named   bool
}

// LiteralBlob returns the literal name of data. Fails if data does not
// fit inline.
func LiteralBlob(data []byte) (BlobName, error) {
	if len(data) > LiteralCapacity {
		return BlobName{}, fmt.Errorf("literal blob of %d bytes exceeds capacity %d", len(data), LiteralCapacity)
	}
	var name BlobName
	copy(name.literal[:], data)
	name.size = uint64(len(data))
	return name, nil
}

// TruncatedLiteral returns the literal name of the first
// LiteralCapacity bytes of data. It never fails.
func TruncatedLiteral(data []byte) BlobName {
	if len(data) > LiteralCapacity {
		data = data[:LiteralCapacity]
	}
	name, _ := LiteralBlob(data)
	return name
}

// NameBlob derives the canonical name of data: a literal when data
// fits inline, otherwise the blob-domain pointer plus length.
func NameBlob(data []byte) BlobName {
	if len(data) <= LiteralCapacity {
		name, _ := LiteralBlob(data)
		return name
	}
	return BlobName{
		pointer: objhash.HashBlob(data),
		size:    uint64(len(data)),
		named:   true,
	}
}

// namedBlob builds a pointer-named blob from decoded metadata. Sizes
// that would fit inline are rejected because the canonical name of
// such content is a literal.
func namedBlob(pointer objhash.Pointer, size uint64) (BlobName, error) {
	if size <= LiteralCapacity {
		return BlobName{}, fmt.Errorf("blob of %d bytes must be a literal", size)
	}
	return BlobName{pointer: pointer, size: size, named: true}, nil
}

// IsLiteral reports whether the content is carried inline.
func (b BlobName) IsLiteral() bool { return !b.named }

// Literal returns a copy of the inline content, or nil for a named
// blob.
func (b BlobName) Literal() []byte {
	if b.named {
		return nil
	}
	content := make([]byte, b.size)
	copy(content, b.literal[:b.size])
	return content
}

// Pointer returns the content pointer of a named blob. Literals have
// the zero pointer.
func (b BlobName) Pointer() objhash.Pointer { return b.pointer }

// Size returns the blob length in bytes without touching storage.
func (b BlobName) Size() uint64 { return b.size }

// Footprint returns the number of pages the blob occupies when loaded.
func (b BlobName) Footprint() uint32 { return pagesFor(b.size) }

// Equal reports whether two blob names denote the same content. Blob
// names are always comparable.
func (b BlobName) Equal(other BlobName) bool { return b == other }

// String renders the name as "literal:<hex>" or
// "blob:<pointer>:<size>". [ParseBlobName] accepts both forms.
func (b BlobName) String() string {
	if !b.named {
		return "literal:" + hex.EncodeToString(b.literal[:b.size])
	}
	return fmt.Sprintf("blob:%s:%d", b.pointer, b.size)
}

// ParseBlobName parses the output of [BlobName.String].
func ParseBlobName(text string) (BlobName, error) {
	if encoded, ok := strings.CutPrefix(text, "literal:"); ok {
		data, err := hex.DecodeString(encoded)
		if err != nil {
			return BlobName{}, fmt.Errorf("parsing literal blob: %w", err)
		}
		return LiteralBlob(data)
	}
	rest, ok := strings.CutPrefix(text, "blob:")
	if !ok {
		return BlobName{}, fmt.Errorf("blob name %q has no literal: or blob: prefix", text)
	}
	pointerText, sizeText, ok := strings.Cut(rest, ":")
	if !ok {
		return BlobName{}, fmt.Errorf("blob name %q has no size", text)
	}
	pointer, err := objhash.Parse(pointerText)
	if err != nil {
		return BlobName{}, err
	}
	size, err := strconv.ParseUint(sizeText, 10, 64)
	if err != nil {
		return BlobName{}, fmt.Errorf("parsing blob size: %w", err)
	}
	return namedBlob(pointer, size)
}

// Uint64Blob encodes n as an 8-byte little-endian literal. Selection
// indices, resource limits and arithmetic procedures use this form.
func Uint64Blob(n uint64) BlobName {
	var buffer [8]byte
	binary.LittleEndian.PutUint64(buffer[:], n)
	name, _ := LiteralBlob(buffer[:])
	return name
}

// BlobUint64 decodes a literal of at most 8 bytes as a little-endian
// unsigned integer. Shorter literals are zero-extended.
func BlobUint64(b BlobName) (uint64, error) {
	if b.named || b.size > 8 {
		return 0, fmt.Errorf("integer blob must be a literal of at most 8 bytes, got %d bytes", b.size)
	}
	var buffer [8]byte
	copy(buffer[:], b.literal[:b.size])
	return binary.LittleEndian.Uint64(buffer[:]), nil
}

// pagesFor returns ceil(bytes / PageSize), saturating at MaxUint32.
func pagesFor(bytes uint64) uint32 {
	pages := bytes / PageSize
	if bytes%PageSize != 0 {
		pages++
	}
	if pages > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(pages)
}

// saturatingAdd adds two page counts, clamping at MaxUint32.
func saturatingAdd(a, b uint32) uint32 {
	sum := a + b
	if sum < a {
		return math.MaxUint32
	}
	return sum
}
