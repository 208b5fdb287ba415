// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apply

import (
	"context"
	"math/bits"

	"github.com/bureau-foundation/fix/lib/object"
)

// builtins are registered in every new [Registry].
var builtins = map[string]Procedure{
	"identity": identity,
	"add":      add,
	"mul":      mul,
	"sub":      sub,
	"concat":   concat,
	"length":   length,
	"tree":     tree,
	"tagged":   tagged,
	"fib":      fib,
	"defer":    deferArgs,
	"fail":     fail,
}

// identity returns its single argument unchanged.
func identity(ctx context.Context, call *Call) (object.RuntimeValue, error) {
	if err := call.Require("identity", 1); err != nil {
		return object.RuntimeValue{}, err
	}
	return runtimeOf(call.Args[0].Relax()), nil
}

// add sums its integer arguments. Overflow fails.
func add(ctx context.Context, call *Call) (object.RuntimeValue, error) {
	return fold(call, "add", func(a, b uint64) (uint64, bool) {
		sum, carry := bits.Add64(a, b, 0)
		return sum, carry == 0
	})
}

// mul multiplies its integer arguments. Overflow fails.
func mul(ctx context.Context, call *Call) (object.RuntimeValue, error) {
	return fold(call, "mul", func(a, b uint64) (uint64, bool) {
		high, low := bits.Mul64(a, b)
		return low, high == 0
	})
}

func fold(call *Call, name string, combine func(a, b uint64) (uint64, bool)) (object.RuntimeValue, error) {
	if len(call.Args) == 0 {
		return object.RuntimeValue{}, object.Failf("%s: no arguments", name)
	}
	accumulator, err := call.Uint64(0)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	for i := 1; i < len(call.Args); i++ {
		n, err := call.Uint64(i)
		if err != nil {
			return object.RuntimeValue{}, err
		}
		var ok bool
		if accumulator, ok = combine(accumulator, n); !ok {
			return object.RuntimeValue{}, object.Failf("%s: overflow", name)
		}
	}
	return Uint64Result(accumulator), nil
}

// sub subtracts its second argument from its first.
func sub(ctx context.Context, call *Call) (object.RuntimeValue, error) {
	if err := call.Require("sub", 2); err != nil {
		return object.RuntimeValue{}, err
	}
	a, err := call.Uint64(0)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	b, err := call.Uint64(1)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	if b > a {
		return object.RuntimeValue{}, object.NewFailure("sub: underflow")
	}
	return Uint64Result(a - b), nil
}

// concat joins its blob arguments.
func concat(ctx context.Context, call *Call) (object.RuntimeValue, error) {
	var joined []byte
	for i := range call.Args {
		content, err := call.Bytes(ctx, i)
		if err != nil {
			return object.RuntimeValue{}, err
		}
		joined = append(joined, content...)
	}
	return BlobResult(ctx, call.Backend, joined)
}

// length returns the size of a blob in bytes or of a tree in
// elements. Only the name is consulted.
func length(ctx context.Context, call *Call) (object.RuntimeValue, error) {
	if err := call.Require("length", 1); err != nil {
		return object.RuntimeValue{}, err
	}
	data, err := call.data(0)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	ref := data.Lower()
	if ref.Kind() == object.BlobKind {
		return Uint64Result(ref.Blob().Size()), nil
	}
	return Uint64Result(uint64(ref.Tree().Size())), nil
}

// tree returns its arguments as an accessible tree.
func tree(ctx context.Context, call *Call) (object.RuntimeValue, error) {
	elements := make([]object.Handle, len(call.Args))
	for i, arg := range call.Args {
		elements[i] = arg.Relax()
	}
	return TreeResult(ctx, call.Backend, elements, false)
}

// tagged returns a tree of the procedure followed by the arguments,
// tagged to mark the first element as its producer.
func tagged(ctx context.Context, call *Call) (object.RuntimeValue, error) {
	elements := make([]object.Handle, 0, len(call.Args)+1)
	elements = append(elements, call.Procedure.Relax())
	for _, arg := range call.Args {
		elements = append(elements, arg.Relax())
	}
	return TreeResult(ctx, call.Backend, elements, true)
}

// fib computes Fibonacci numbers by continuation: for n >= 2 it
// returns an application of add whose arguments are Encodes of fib on
// n-1 and n-2. The engine forces them; nothing here recurses.
func fib(ctx context.Context, call *Call) (object.RuntimeValue, error) {
	if err := call.Require("fib", 1); err != nil {
		return object.RuntimeValue{}, err
	}
	n, err := call.Uint64(0)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	if n < 2 {
		return Uint64Result(n), nil
	}

	limits := call.Limits.Handle()
	self := call.Procedure.Relax()
	subproblem := func(k uint64) (object.Handle, error) {
		combination, err := object.CreateTree(ctx, call.Backend, []object.Handle{
			limits, self, literalHandle(object.Uint64Blob(k)),
		}, false)
		if err != nil {
			return object.Handle{}, err
		}
		return object.FromEncode(object.Encode{Thunk: object.Apply(combination), Access: object.Keep}), nil
	}
	first, err := subproblem(n - 1)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	second, err := subproblem(n - 2)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	addName, _ := object.LiteralBlob([]byte("add"))
	combination, err := object.CreateTree(ctx, call.Backend, []object.Handle{
		limits, literalHandle(addName), first, second,
	}, false)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	return object.RuntimeThunk(object.Apply(combination)), nil
}

// deferArgs returns an accessible tree in which every argument is
// wrapped in an Encode, so evaluating the result forces each of them.
// Data arguments are identified; thunk arguments are forced directly.
func deferArgs(ctx context.Context, call *Call) (object.RuntimeValue, error) {
	elements := make([]object.Handle, len(call.Args))
	for i, arg := range call.Args {
		var thunk object.Thunk
		if deferred, ok := arg.AsThunk(); ok {
			thunk = deferred
		} else {
			data, _ := arg.AsData()
			thunk = object.Identify(data.Relax())
		}
		elements[i] = object.FromEncode(object.Encode{Thunk: thunk, Access: object.Keep})
	}
	return TreeResult(ctx, call.Backend, elements, false)
}

// fail fails with its blob argument as the message.
func fail(ctx context.Context, call *Call) (object.RuntimeValue, error) {
	if err := call.Require("fail", 1); err != nil {
		return object.RuntimeValue{}, err
	}
	data, err := call.data(0)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	return object.RuntimeValue{}, object.FailureOf(data.Relax())
}

func literalHandle(name object.BlobName) object.Handle {
	return object.FromData(object.RefData[object.Handle](object.BlobRef(name)))
}
