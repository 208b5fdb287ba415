// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"sync/atomic"

	"github.com/bureau-foundation/fix/lib/object"
)

// CountingBackend counts the calls made to an inner backend. It is
// safe for concurrent use.
type CountingBackend struct {
	Inner object.Backend

	blobLoads   atomic.Int64
	rangeLoads  atomic.Int64
	treeLoads   atomic.Int64
	blobCreates atomic.Int64
	treeCreates atomic.Int64
}

// Counts is a snapshot of a CountingBackend.
type Counts struct {
	BlobLoads   int64
	RangeLoads  int64
	TreeLoads   int64
	BlobCreates int64
	TreeCreates int64
}

// Loads is the total number of read calls.
func (c Counts) Loads() int64 { return c.BlobLoads + c.RangeLoads + c.TreeLoads }

// NewCountingBackend wraps inner.
func NewCountingBackend(inner object.Backend) *CountingBackend {
	return &CountingBackend{Inner: inner}
}

// Counts returns the current counters.
func (b *CountingBackend) Counts() Counts {
	return Counts{
		BlobLoads:   b.blobLoads.Load(),
		RangeLoads:  b.rangeLoads.Load(),
		TreeLoads:   b.treeLoads.Load(),
		BlobCreates: b.blobCreates.Load(),
		TreeCreates: b.treeCreates.Load(),
	}
}

// Reset zeroes every counter.
func (b *CountingBackend) Reset() {
	b.blobLoads.Store(0)
	b.rangeLoads.Store(0)
	b.treeLoads.Store(0)
	b.blobCreates.Store(0)
	b.treeCreates.Store(0)
}

func (b *CountingBackend) LoadBlob(ctx context.Context, name object.BlobName) ([]byte, error) {
	b.blobLoads.Add(1)
	return b.Inner.LoadBlob(ctx, name)
}

// LoadBlobRange forwards to the inner backend's range loader when it
// has one and counts a range load either way.
func (b *CountingBackend) LoadBlobRange(ctx context.Context, name object.BlobName, start, end uint64) ([]byte, error) {
	b.rangeLoads.Add(1)
	if ranger, ok := b.Inner.(object.BlobRangeLoader); ok {
		return ranger.LoadBlobRange(ctx, name, start, end)
	}
	content, err := b.Inner.LoadBlob(ctx, name)
	if err != nil {
		return nil, err
	}
	return content[start:end], nil
}

func (b *CountingBackend) LoadTree(ctx context.Context, name object.TreeName[object.Handle]) ([]object.Handle, error) {
	b.treeLoads.Add(1)
	return b.Inner.LoadTree(ctx, name)
}

func (b *CountingBackend) CreateBlob(ctx context.Context, data []byte) (object.BlobName, error) {
	b.blobCreates.Add(1)
	return b.Inner.CreateBlob(ctx, data)
}

func (b *CountingBackend) CreateTree(ctx context.Context, elements []object.Handle) (object.TreeName[object.Handle], error) {
	b.treeCreates.Add(1)
	return b.Inner.CreateTree(ctx, elements)
}
