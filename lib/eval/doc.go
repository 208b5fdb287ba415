// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package eval is the reduction engine. It turns handles into values
// by forcing every thunk that something has asked for.
//
// Three operations build on each other:
//
//   - [Engine.Think] takes one step of a thunk. An identification
//     yields its data; a selection is delegated to a [Selector]; an
//     application evaluates its combination and is delegated to an
//     [Applier]. The step may produce another thunk.
//   - [Engine.Execute] thinks until the result is data and then applies
//     the Encode's accessibility request. There is no bound on the
//     number of steps; a non-terminating procedure does not terminate.
//   - [Engine.Eval] executes every Encode reachable through accessible
//     trees and rebuilds those trees with the results, preserving order
//     and tags. References, blobs and bare thunks are left alone: a bare
//     thunk is a deferred computation that nothing asked to force.
//
// Eval walks tree structure with an explicit stack, so deep or wide
// trees do not grow the goroutine stack. Native recursion happens only
// through applications, whose combinations are evaluated before the
// procedure runs.
//
// Every error that leaves the engine is an [*object.Failure]. Failures
// short-circuit: the first failing element of a tree aborts the tree.
package eval
