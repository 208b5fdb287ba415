// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apply

import (
	"go.starlark.net/starlark"

	"github.com/bureau-foundation/fix/lib/object"
)

// predeclared are the globals every Starlark procedure sees, in
// addition to the Starlark universe.
var predeclared = starlark.StringDict{
	"u64":         starlark.NewBuiltin("u64", builtinU64),
	"application": starlark.NewBuiltin("application", builtinApplication),
	"selection":   starlark.NewBuiltin("selection", builtinSelection),
	"identify":    starlark.NewBuiltin("identify", builtinIdentify),
	"encode":      starlark.NewBuiltin("encode", builtinEncode),
	"ref":         starlark.NewBuiltin("ref", builtinRef),
}

func bridgeOf(thread *starlark.Thread) *bridge {
	return thread.Local(localBridge).(*bridge)
}

// u64(b) decodes a little-endian integer of at most 8 bytes.
func builtinU64(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var content starlark.Bytes
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &content); err != nil {
		return nil, err
	}
	if len(content) > 8 {
		return nil, object.NewFailure("u64: more than 8 bytes")
	}
	n, err := object.BlobUint64(object.NameBlob([]byte(content)))
	if err != nil {
		return nil, object.AsFailure(err)
	}
	return starlark.MakeUint64(n), nil
}

// application(procedure, *args) returns an application thunk under
// the current call's limits.
func builtinApplication(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) != 0 || len(args) == 0 {
		return nil, object.NewFailure("application: want procedure")
	}
	b := bridgeOf(thread)
	handles, err := b.handles(args, 1)
	if err != nil {
		return nil, err
	}
	elements := append([]object.Handle{b.call.Limits.Handle()}, handles...)
	combination, err := object.CreateTree(b.ctx, b.call.Backend, elements, false)
	if err != nil {
		return nil, err
	}
	return handleValue{object.FromThunk(object.Apply(combination))}, nil
}

// selection(op, target, *ints) returns a selection thunk.
func builtinSelection(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) != 0 || len(args) < 2 {
		return nil, object.NewFailure("selection: want op and target")
	}
	b := bridgeOf(thread)
	handles, err := b.handles(args, 1)
	if err != nil {
		return nil, err
	}
	spec, err := object.CreateTree(b.ctx, b.call.Backend, handles, false)
	if err != nil {
		return nil, err
	}
	return handleValue{object.FromThunk(object.Select(spec))}, nil
}

// identify(x) returns an identification thunk of data x.
func builtinIdentify(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	data, err := unpackData(thread, fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	return handleValue{object.FromThunk(object.Identify(data))}, nil
}

// ref(x) returns data x made inaccessible.
func builtinRef(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	data, err := unpackData(thread, fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	return handleValue{object.FromData(object.RefData[object.Handle](data.Lower()))}, nil
}

// encode(thunk, access="keep") wraps a thunk so that evaluation
// forces it. Data is identified first.
func builtinEncode(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		target starlark.Value
		access = "keep"
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "thunk", &target, "access?", &access); err != nil {
		return nil, err
	}
	parsed, err := object.ParseAccess(access)
	if err != nil {
		return nil, object.AsFailure(err)
	}
	handle, err := bridgeOf(thread).fromStarlark(target, 0)
	if err != nil {
		return nil, err
	}

	var thunk object.Thunk
	switch handle.Kind() {
	case object.ThunkHandle:
		thunk, _ = handle.AsThunk()
	case object.EncodeHandle:
		encode, _ := handle.AsEncode()
		thunk = encode.Thunk
	default:
		data, _ := handle.AsData()
		thunk = object.Identify(data)
	}
	return handleValue{object.FromEncode(object.Encode{Thunk: thunk, Access: parsed})}, nil
}

func unpackData(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (object.Data[object.Handle], error) {
	var target starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &target); err != nil {
		return object.Data[object.Handle]{}, err
	}
	handle, err := bridgeOf(thread).fromStarlark(target, 0)
	if err != nil {
		return object.Data[object.Handle]{}, err
	}
	data, ok := handle.AsData()
	if !ok {
		return object.Data[object.Handle]{}, object.Failf("%s: not data", fn.Name())
	}
	return data, nil
}
