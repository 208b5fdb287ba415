// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apply

import (
	"context"

	"github.com/bureau-foundation/fix/lib/object"
)

// Procedure computes the result of one application.
type Procedure func(ctx context.Context, call *Call) (object.RuntimeValue, error)

// Call is the evaluated input of one application.
type Call struct {
	// Backend is where arguments are read and results are created.
	Backend object.Backend

	// Limits are the decoded resource limits.
	Limits Limits

	// Combination is the full evaluated combination tree.
	Combination object.TreeName[object.Value]

	// Procedure is the procedure element, as passed.
	Procedure object.Value

	// Args are the elements after the procedure.
	Args []object.Value
}

// Require fails unless the call has exactly n arguments.
func (c *Call) Require(name string, n int) error {
	if len(c.Args) != n {
		return object.Failf("%s: want %d args, got %d", name, n, len(c.Args))
	}
	return nil
}

// data returns argument i as data.
func (c *Call) data(i int) (object.Data[object.Value], error) {
	if i < 0 || i >= len(c.Args) {
		return object.Data[object.Value]{}, object.Failf("apply: no argument %d", i)
	}
	data, ok := c.Args[i].AsData()
	if !ok {
		return object.Data[object.Value]{}, object.Failf("apply: argument %d is a thunk", i)
	}
	return data, nil
}

// Bytes returns the content of blob argument i. Literal blobs are
// always readable; named blobs must be accessible.
func (c *Call) Bytes(ctx context.Context, i int) ([]byte, error) {
	data, err := c.data(i)
	if err != nil {
		return nil, err
	}
	if data.Kind() != object.BlobKind {
		return nil, object.Failf("apply: argument %d not a blob", i)
	}
	return readBlob(ctx, c.Backend, data)
}

// Uint64 decodes integer argument i.
func (c *Call) Uint64(i int) (uint64, error) {
	data, err := c.data(i)
	if err != nil {
		return 0, err
	}
	if data.Kind() != object.BlobKind {
		return 0, object.Failf("apply: argument %d not a blob", i)
	}
	n, err := object.BlobUint64(data.Lower().Blob())
	if err != nil {
		return 0, object.Failf("apply: argument %d not an int", i)
	}
	return n, nil
}

// Elements loads the elements of accessible tree argument i.
func (c *Call) Elements(ctx context.Context, i int) ([]object.Value, error) {
	data, err := c.data(i)
	if err != nil {
		return nil, err
	}
	accessible, ok := data.AsObject()
	if !ok || accessible.Kind() != object.TreeKind {
		return nil, object.Failf("apply: argument %d not a tree", i)
	}
	return object.LoadTree(ctx, c.Backend, accessible.Tree())
}

// readBlob returns blob content when the data permits reading it.
func readBlob[T object.Kind](ctx context.Context, backend object.Backend, data object.Data[T]) ([]byte, error) {
	name := data.Lower().Blob()
	if !name.IsLiteral() && !data.IsAccessible() {
		return nil, object.NewFailure("apply: blob not accessible")
	}
	return object.LoadBlob(ctx, backend, name)
}

// BlobResult stores content and returns it as accessible data.
func BlobResult(ctx context.Context, backend object.Backend, content []byte) (object.RuntimeValue, error) {
	name, err := object.CreateBlob(ctx, backend, content)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	return object.RuntimeData(object.ObjectData(object.BlobObject[object.Handle](name))), nil
}

// Uint64Result returns n as an accessible 8-byte literal.
func Uint64Result(n uint64) object.RuntimeValue {
	return object.RuntimeData(object.ObjectData(object.BlobObject[object.Handle](object.Uint64Blob(n))))
}

// TreeResult stores elements and returns them as an accessible tree.
func TreeResult(ctx context.Context, backend object.Backend, elements []object.Handle, tag bool) (object.RuntimeValue, error) {
	name, err := object.CreateTree(ctx, backend, elements, tag)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	return object.RuntimeData(object.ObjectData(object.TreeObject(name))), nil
}

// runtimeOf converts a handle produced by a procedure into a result.
// An Encode becomes its thunk: a result cannot demand accessibility.
func runtimeOf(h object.Handle) object.RuntimeValue {
	switch h.Kind() {
	case object.DataHandle:
		data, _ := h.AsData()
		return object.RuntimeData(data)
	case object.ThunkHandle:
		thunk, _ := h.AsThunk()
		return object.RuntimeThunk(thunk)
	default:
		encode, _ := h.AsEncode()
		return object.RuntimeThunk(encode.Thunk)
	}
}
