// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package apply runs procedures named by Application thunks.
//
// The reduction engine evaluates every element of a combination and
// hands the resulting tree to [Applier.Apply]. A combination is laid
// out as
//
//	[limits, procedure, arg...]
//
// where limits is a 12-byte literal ([Limits]) and procedure is a
// blob. A procedure whose content begins with "#!starlark" is a
// Starlark program defining apply(*args); anything else is the name of
// a Go procedure in a [Registry].
//
// Limits are enforced here, not in the engine. A zero field means
// unlimited. The footprint budget bounds both the evaluated
// combination and the produced data; the step budget bounds Starlark
// execution. Exhausting either is an ordinary failure with the message
// "resource limits exceeded".
//
// Procedures may return data or a thunk. Returning a thunk is how a
// procedure defers work: the engine keeps forcing it, so a recursive
// procedure such as fib returns an Application whose combination holds
// Encodes of its sub-problems rather than recursing on the Go stack.
//
// Apply checks its context before dispatching, and Starlark threads
// are cancelled when the context is done. This is the only place the
// reduction loop observes cancellation.
package apply
