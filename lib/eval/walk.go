// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"context"

	"github.com/bureau-foundation/fix/lib/object"
)

// frame is an accessible tree whose elements are being evaluated.
type frame struct {
	original object.Data[object.Handle]
	tag      bool
	elements []object.Handle
	results  []object.Value
	executed bool
	changed  bool
}

// eval evaluates handle depth-first using an explicit stack of frames.
func (e *Engine) eval(ctx context.Context, handle object.Handle) (object.Value, error) {
	var stack []*frame
	next := handle
	for {
		value, changed, descend, err := e.reduce(ctx, next)
		if err != nil {
			return object.Value{}, err
		}
		if descend != nil {
			if len(descend.elements) > 0 {
				stack = append(stack, descend)
				next = descend.elements[0]
				continue
			}
			if value, changed, err = e.finish(ctx, descend); err != nil {
				return object.Value{}, err
			}
		}

		for {
			if len(stack) == 0 {
				return value, nil
			}
			top := stack[len(stack)-1]
			top.results = append(top.results, value)
			top.changed = top.changed || changed
			if len(top.results) < len(top.elements) {
				next = top.elements[len(top.results)]
				break
			}
			stack = stack[:len(stack)-1]
			if value, changed, err = e.finish(ctx, top); err != nil {
				return object.Value{}, err
			}
		}
	}
}

// reduce handles everything except tree traversal. It executes
// Encodes until data remains, returns leaves as values, and returns a
// frame for an accessible tree. changed reports whether anything was
// executed.
func (e *Engine) reduce(ctx context.Context, handle object.Handle) (object.Value, bool, *frame, error) {
	changed := false
	for {
		switch handle.Kind() {
		case object.ThunkHandle:
			thunk, _ := handle.AsThunk()
			return object.DeferredValue(thunk), changed, nil, nil
		case object.EncodeHandle:
			encode, _ := handle.AsEncode()
			data, err := e.execute(ctx, encode)
			if err != nil {
				return object.Value{}, false, nil, err
			}
			handle = object.FromData(data)
			changed = true
			continue
		}

		data, _ := handle.AsData()
		accessible, ok := data.AsObject()
		if !ok || accessible.Kind() == object.BlobKind {
			value, err := object.ValueFromHandle(handle)
			return value, changed, nil, err
		}
		tree := accessible.Tree()
		elements, err := object.LoadTree(ctx, e.backend, tree)
		if err != nil {
			return object.Value{}, false, nil, err
		}
		return object.Value{}, changed, &frame{
			original: data,
			tag:      tree.Tagged(),
			elements: elements,
			results:  make([]object.Value, 0, len(elements)),
			executed: changed,
		}, nil
	}
}

// finish rebuilds a tree from its evaluated elements. A tree whose
// elements were all unchanged is returned as is without touching
// storage.
func (e *Engine) finish(ctx context.Context, f *frame) (object.Value, bool, error) {
	if !f.changed {
		value, err := object.ValueFromHandle(object.FromData(f.original))
		return value, f.executed, err
	}
	name, err := object.CreateTree(ctx, e.backend, f.results, f.tag)
	if err != nil {
		return object.Value{}, false, err
	}
	return object.ValueOf(object.ObjectData(object.TreeObject(name))), true, nil
}
