// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/bureau-foundation/fix/lib/objhash"
	"github.com/bureau-foundation/fix/lib/object"
)

// Memory is an in-process backend. Content is copied on the way in and
// out so callers cannot mutate stored objects.
type Memory struct {
	mutex sync.RWMutex
	blobs map[objhash.Pointer][]byte
	trees map[objhash.Pointer][]object.Handle
}

// NewMemory returns an empty memory backend.
func NewMemory() *Memory {
	return &Memory{
		blobs: make(map[objhash.Pointer][]byte),
		trees: make(map[objhash.Pointer][]object.Handle),
	}
}

// LoadBlob implements [object.Backend].
func (m *Memory) LoadBlob(ctx context.Context, name object.BlobName) ([]byte, error) {
	m.mutex.RLock()
	content, ok := m.blobs[name.Pointer()]
	m.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return slices.Clone(content), nil
}

// LoadBlobRange implements [object.BlobRangeLoader].
func (m *Memory) LoadBlobRange(ctx context.Context, name object.BlobName, start, end uint64) ([]byte, error) {
	m.mutex.RLock()
	content, ok := m.blobs[name.Pointer()]
	m.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if start > end || end > uint64(len(content)) {
		return nil, fmt.Errorf("range [%d, %d) out of bounds for %s", start, end, name)
	}
	return slices.Clone(content[start:end]), nil
}

// LoadTree implements [object.Backend].
func (m *Memory) LoadTree(ctx context.Context, name object.TreeName[object.Handle]) ([]object.Handle, error) {
	m.mutex.RLock()
	elements, ok := m.trees[name.Pointer()]
	m.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return slices.Clone(elements), nil
}

// CreateBlob implements [object.Backend].
func (m *Memory) CreateBlob(ctx context.Context, data []byte) (object.BlobName, error) {
	name := object.NameBlob(data)
	if name.IsLiteral() {
		return name, nil
	}
	m.mutex.Lock()
	if _, exists := m.blobs[name.Pointer()]; !exists {
		m.blobs[name.Pointer()] = slices.Clone(data)
	}
	m.mutex.Unlock()
	return name, nil
}

// CreateTree implements [object.Backend].
func (m *Memory) CreateTree(ctx context.Context, elements []object.Handle) (object.TreeName[object.Handle], error) {
	name, err := object.NameTree(elements)
	if err != nil {
		return object.TreeName[object.Handle]{}, err
	}
	if name.Size() == 0 {
		return name, nil
	}
	m.mutex.Lock()
	if _, exists := m.trees[name.Pointer()]; !exists {
		m.trees[name.Pointer()] = slices.Clone(elements)
	}
	m.mutex.Unlock()
	return name, nil
}

// Len returns the number of stored blobs and trees.
func (m *Memory) Len() (blobs, trees int) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.blobs), len(m.trees)
}

// Close implements [Store]. It releases nothing.
func (m *Memory) Close() error { return nil }
