// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"context"
	"fmt"
)

// Backend is the content store the data model reads from and writes
// to. Implementations live in lib/objstore.
//
// Creates must be idempotent: concurrent creates of identical content
// converge on the same name. Backends only ever see pointer-named
// blobs; literals are resolved by the helpers in this package without
// I/O.
type Backend interface {
	// LoadBlob returns the full content of a named blob.
	LoadBlob(ctx context.Context, name BlobName) ([]byte, error)

	// LoadTree returns the elements of a non-empty tree.
	LoadTree(ctx context.Context, name TreeName[Handle]) ([]Handle, error)

	// CreateBlob stores data and returns its canonical name.
	CreateBlob(ctx context.Context, data []byte) (BlobName, error)

	// CreateTree stores elements and returns the untagged name derived
	// by [NameTree].
	CreateTree(ctx context.Context, elements []Handle) (TreeName[Handle], error)
}

// BlobRangeLoader is implemented by backends that can read part of a
// blob without loading all of it.
type BlobRangeLoader interface {
	LoadBlobRange(ctx context.Context, name BlobName, start, end uint64) ([]byte, error)
}

// LoadBlob returns the content of a blob, reading literals inline and
// checking that the backend returned the declared length.
func LoadBlob(ctx context.Context, backend Backend, name BlobName) ([]byte, error) {
	if name.IsLiteral() {
		return name.Literal(), nil
	}
	content, err := backend.LoadBlob(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	if uint64(len(content)) != name.size {
		return nil, fmt.Errorf("loading %s: backend returned %d bytes", name, len(content))
	}
	return content, nil
}

// LoadBlobRange returns bytes [start, end) of a blob. Backends that
// implement [BlobRangeLoader] serve the range directly.
func LoadBlobRange(ctx context.Context, backend Backend, name BlobName, start, end uint64) ([]byte, error) {
	if start > end || end > name.size {
		return nil, fmt.Errorf("range [%d, %d) out of bounds for blob of %d bytes", start, end, name.size)
	}
	if name.IsLiteral() {
		return name.Literal()[start:end], nil
	}
	if ranger, ok := backend.(BlobRangeLoader); ok {
		content, err := ranger.LoadBlobRange(ctx, name, start, end)
		if err != nil {
			return nil, fmt.Errorf("loading %s[%d:%d]: %w", name, start, end, err)
		}
		if uint64(len(content)) != end-start {
			return nil, fmt.Errorf("loading %s[%d:%d]: backend returned %d bytes", name, start, end, len(content))
		}
		return content, nil
	}
	content, err := LoadBlob(ctx, backend, name)
	if err != nil {
		return nil, err
	}
	return content[start:end], nil
}

// CreateBlob names data, storing it only when it is too long to be a
// literal.
func CreateBlob(ctx context.Context, backend Backend, data []byte) (BlobName, error) {
	if len(data) <= LiteralCapacity {
		return NameBlob(data), nil
	}
	name, err := backend.CreateBlob(ctx, data)
	if err != nil {
		return BlobName{}, fmt.Errorf("creating blob of %d bytes: %w", len(data), err)
	}
	return name, nil
}

// LoadTree returns the elements of a tree at kind T. Empty trees never
// reach the backend, so a truncated name that was never stored still
// loads.
func LoadTree[T Kind](ctx context.Context, backend Backend, name TreeName[T]) ([]T, error) {
	if name.size == 0 {
		return []T{}, nil
	}
	handles, err := backend.LoadTree(ctx, name.Relax())
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	if uint64(len(handles)) != uint64(name.size) {
		return nil, fmt.Errorf("loading %s: backend returned %d elements", name, len(handles))
	}
	elements := make([]T, len(handles))
	for i, handle := range handles {
		element, err := fromHandle[T](handle)
		if err != nil {
			return nil, fmt.Errorf("loading %s: element %d: %w", name, i, err)
		}
		elements[i] = element
	}
	return elements, nil
}

// CreateTree stores elements and returns their name at kind T with
// the given tag.
func CreateTree[T Kind](ctx context.Context, backend Backend, elements []T, tag bool) (TreeName[T], error) {
	handles := make([]Handle, len(elements))
	for i, element := range elements {
		handle, err := toHandle(element)
		if err != nil {
			return TreeName[T]{}, err
		}
		handles[i] = handle
	}
	name, err := backend.CreateTree(ctx, handles)
	if err != nil {
		return TreeName[T]{}, fmt.Errorf("creating tree of %d elements: %w", len(elements), err)
	}
	return retypeTree[Handle, T](name).WithTag(tag), nil
}

// TryMap loads the elements of tree, applies fn to each in order, and
// stores the results as a new tree with the original tag. The first
// failing element aborts the map.
func TryMap[T, U Kind](ctx context.Context, backend Backend, tree TreeName[T], fn func(context.Context, T) (U, error)) (TreeName[U], error) {
	elements, err := LoadTree(ctx, backend, tree)
	if err != nil {
		return TreeName[U]{}, err
	}
	mapped := make([]U, len(elements))
	for i, element := range elements {
		result, err := fn(ctx, element)
		if err != nil {
			return TreeName[U]{}, err
		}
		mapped[i] = result
	}
	return CreateTree(ctx, backend, mapped, tree.tag)
}

// fromHandle narrows a stored handle to the element kind T.
func fromHandle[T Kind](h Handle) (T, error) {
	var element T
	switch target := any(&element).(type) {
	case *Handle:
		*target = h
	case *Value:
		value, err := ValueFromHandle(h)
		if err != nil {
			return element, err
		}
		*target = value
	default:
		return element, fmt.Errorf("unsupported element kind %T", element)
	}
	return element, nil
}

// toHandle widens an element of kind T to a Handle.
func toHandle[T Kind](element T) (Handle, error) {
	switch element := any(element).(type) {
	case Handle:
		return element, nil
	case Value:
		return element.Relax(), nil
	default:
		return Handle{}, fmt.Errorf("unsupported element kind %T", element)
	}
}
