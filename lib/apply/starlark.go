// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/bureau-foundation/fix/lib/object"
)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// localBridge is the thread-local key of the running call's bridge.
const localBridge = "fix.bridge"

// starlarkProcedure returns a procedure that runs program. The program
// must define a global function apply; it is called with the
// converted arguments and its return value becomes the result.
func starlarkProcedure(program []byte, logger *slog.Logger) Procedure {
	return func(ctx context.Context, call *Call) (object.RuntimeValue, error) {
		thread := &starlark.Thread{
			Name: "apply",
			Print: func(_ *starlark.Thread, message string) {
				logger.Info("starlark print", "message", message)
			},
		}
		if call.Limits.Steps != 0 {
			thread.SetMaxExecutionSteps(call.Limits.Steps)
		}
		stop := context.AfterFunc(ctx, func() {
			thread.Cancel(context.Cause(ctx).Error())
		})
		defer stop()

		b := &bridge{ctx: ctx, call: call}
		thread.SetLocal(localBridge, b)

		result, err := b.run(thread, program)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return object.RuntimeValue{}, fmt.Errorf("starlark: %w", ctxErr)
			}
			if call.Limits.Steps != 0 && thread.ExecutionSteps() >= call.Limits.Steps {
				logger.Debug("starlark step budget exhausted", "steps", thread.ExecutionSteps())
				return object.RuntimeValue{}, object.NewFailure(ErrLimitsExceeded)
			}
			return object.RuntimeValue{}, asStarlarkFailure(err)
		}
		return result, nil
	}
}

// asStarlarkFailure keeps failures raised by the builtins and converts
// every other program error.
func asStarlarkFailure(err error) error {
	var failure *object.Failure
	if errors.As(err, &failure) {
		return failure
	}
	return object.AsFailure(fmt.Errorf("starlark: %w", err))
}

// maxResultDepth bounds the nesting of a returned value.
const maxResultDepth = 10000

// bridge converts between Fix values and Starlark values for one call.
type bridge struct {
	ctx  context.Context
	call *Call

	// converting holds the lists on the current conversion path.
	converting map[*starlark.List]struct{}
}

func (b *bridge) run(thread *starlark.Thread, program []byte) (object.RuntimeValue, error) {
	globals, err := starlark.ExecFileOptions(fileOptions, thread, "procedure.star", program, predeclared)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	entry, ok := globals["apply"].(starlark.Callable)
	if !ok {
		return object.RuntimeValue{}, object.NewFailure("starlark: no apply function")
	}

	args := make(starlark.Tuple, len(b.call.Args))
	for i, arg := range b.call.Args {
		converted, err := b.toStarlark(arg)
		if err != nil {
			return object.RuntimeValue{}, err
		}
		args[i] = converted
	}

	returned, err := starlark.Call(thread, entry, args, nil)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	handle, err := b.fromStarlark(returned, 0)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	return runtimeOf(handle), nil
}

// toStarlark converts an argument. Readable blobs become bytes and
// accessible trees become tuples; everything else is an opaque handle.
func (b *bridge) toStarlark(v object.Value) (starlark.Value, error) {
	data, ok := v.AsData()
	if !ok {
		return handleValue{v.Relax()}, nil
	}
	switch data.Kind() {
	case object.BlobKind:
		if data.Lower().Blob().IsLiteral() || data.IsAccessible() {
			content, err := readBlob(b.ctx, b.call.Backend, data)
			if err != nil {
				return nil, err
			}
			return starlark.Bytes(content), nil
		}
	case object.TreeKind:
		if accessible, ok := data.AsObject(); ok {
			elements, err := object.LoadTree(b.ctx, b.call.Backend, accessible.Tree())
			if err != nil {
				return nil, err
			}
			tuple := make(starlark.Tuple, len(elements))
			for i, element := range elements {
				if tuple[i], err = b.toStarlark(element); err != nil {
					return nil, err
				}
			}
			return tuple, nil
		}
	}
	return handleValue{v.Relax()}, nil
}

// fromStarlark stores a Starlark value and returns its handle. A list
// that contains itself is a failure, as is nesting beyond
// maxResultDepth.
func (b *bridge) fromStarlark(x starlark.Value, depth int) (object.Handle, error) {
	if depth > maxResultDepth {
		return object.Handle{}, object.NewFailure("starlark: value too deep")
	}
	switch x := x.(type) {
	case handleValue:
		return x.handle, nil
	case starlark.Bytes:
		return b.blob([]byte(x))
	case starlark.String:
		return b.blob([]byte(x))
	case starlark.Bool:
		var content byte
		if x {
			content = 1
		}
		return b.blob([]byte{content})
	case starlark.Int:
		n, ok := x.Uint64()
		if !ok {
			return object.Handle{}, object.NewFailure("starlark: int out of range")
		}
		return accessibleBlob(object.Uint64Blob(n)), nil
	case starlark.Tuple:
		return b.tree(x, depth)
	case *starlark.List:
		if _, ok := b.converting[x]; ok {
			return object.Handle{}, object.NewFailure("starlark: cyclic value")
		}
		if b.converting == nil {
			b.converting = make(map[*starlark.List]struct{})
		}
		b.converting[x] = struct{}{}
		defer delete(b.converting, x)
		elements := make([]starlark.Value, x.Len())
		for i := range elements {
			elements[i] = x.Index(i)
		}
		return b.tree(elements, depth)
	case starlark.NoneType:
		return object.Handle{}, object.NewFailure("starlark: returned None")
	}
	return object.Handle{}, object.Failf("starlark: cannot store %s", x.Type())
}

func (b *bridge) blob(content []byte) (object.Handle, error) {
	name, err := object.CreateBlob(b.ctx, b.call.Backend, content)
	if err != nil {
		return object.Handle{}, err
	}
	return accessibleBlob(name), nil
}

func (b *bridge) tree(values []starlark.Value, depth int) (object.Handle, error) {
	handles, err := b.handles(values, depth+1)
	if err != nil {
		return object.Handle{}, err
	}
	name, err := object.CreateTree(b.ctx, b.call.Backend, handles, false)
	if err != nil {
		return object.Handle{}, err
	}
	return object.FromData(object.ObjectData(object.TreeObject(name))), nil
}

func (b *bridge) handles(values []starlark.Value, depth int) ([]object.Handle, error) {
	handles := make([]object.Handle, len(values))
	for i, value := range values {
		handle, err := b.fromStarlark(value, depth)
		if err != nil {
			return nil, err
		}
		handles[i] = handle
	}
	return handles, nil
}

func accessibleBlob(name object.BlobName) object.Handle {
	return object.FromData(object.ObjectData(object.BlobObject[object.Handle](name)))
}

// handleValue carries a Fix handle through a Starlark program
// unchanged.
type handleValue struct {
	handle object.Handle
}

var _ starlark.Value = handleValue{}

func (h handleValue) String() string { return h.handle.String() }
func (handleValue) Type() string { return "handle" }
func (handleValue) Freeze() {}
func (handleValue) Truth() starlark.Bool { return starlark.True }
func (handleValue) Hash() (uint32, error) { return 0, errors.New("unhashable type: handle") }
