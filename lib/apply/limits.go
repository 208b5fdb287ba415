// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apply

import (
	"encoding/binary"

	"github.com/bureau-foundation/fix/lib/object"
)

// limitsSize is the encoded size of [Limits].
const limitsSize = 12

// ErrLimitsExceeded is the failure message for exhausted budgets.
const ErrLimitsExceeded = "resource limits exceeded"

// Limits bounds one application. Zero fields are unlimited.
type Limits struct {
	// Footprint is the page budget for the combination and the result.
	Footprint uint32
	// Steps is the Starlark execution step budget.
	Steps uint64
}

// Blob encodes the limits as a literal: a little-endian uint32
// footprint followed by a little-endian uint64 step count.
func (l Limits) Blob() object.BlobName {
	var buffer [limitsSize]byte
	binary.LittleEndian.PutUint32(buffer[0:4], l.Footprint)
	binary.LittleEndian.PutUint64(buffer[4:12], l.Steps)
	name, _ := object.LiteralBlob(buffer[:])
	return name
}

// Handle returns the limits as an inaccessible literal handle, ready
// to be the first element of a combination.
func (l Limits) Handle() object.Handle {
	return object.FromData(object.RefData[object.Handle](object.BlobRef(l.Blob())))
}

// ParseLimits decodes the first element of a combination.
func ParseLimits(h object.Handle) (Limits, error) {
	data, ok := h.AsData()
	if !ok || data.Kind() != object.BlobKind {
		return Limits{}, object.NewFailure("apply: limits is not a blob")
	}
	name := data.Lower().Blob()
	if !name.IsLiteral() || name.Size() != limitsSize {
		return Limits{}, object.NewFailure("apply: malformed limits")
	}
	content := name.Literal()
	return Limits{
		Footprint: binary.LittleEndian.Uint32(content[0:4]),
		Steps:     binary.LittleEndian.Uint64(content[4:12]),
	}, nil
}

// allowsFootprint reports whether footprint fits the page budget.
func (l Limits) allowsFootprint(footprint uint32) bool {
	return l.Footprint == 0 || footprint <= l.Footprint
}
