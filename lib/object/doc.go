// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package object defines the Fix data model: immutable blobs and trees,
// the names that identify them, the accessibility views over those
// names, and the deferred-computation vocabulary that the reduction
// engine (lib/eval) consumes.
//
// # Names
//
// A [BlobName] identifies a byte sequence. Sequences of up to
// [LiteralCapacity] bytes are carried inline as literals; longer ones
// are named by a 192-bit pointer plus their length. A [TreeName]
// identifies an ordered sequence of [Handle] elements and carries its
// size, its estimated memory footprint in [PageSize] pages, whether it
// is equality-comparable ("eq"), and whether its first element names
// the procedure that produced it ("tag").
//
// TreeName is parameterized by an element [Kind]. The parameter is a
// compile-time refinement only: every tree is physically a tree of
// Handle, and [TreeName.Relax] widens a TreeName[Value] to a
// TreeName[Handle] without touching storage.
//
// # Accessibility
//
// [Ref] is a name whose content is not guaranteed to be materialized;
// only its metadata may be inspected. [Object] is a name whose content
// can be loaded. [Data] is either. [Ref.Lift] loads content through a
// [Backend]; [Object.Lower] drops accessibility and never performs I/O.
//
// # Deferred computation
//
// A [Thunk] is an identification, a selection, or an application. An
// [Encode] asks for a thunk to be forced and its result's
// accessibility adjusted. A [Handle] (the element kind of every tree)
// is Data, Thunk, or Encode. A [Value] is Data or Thunk whose
// accessible trees contain no accessible Encode; [RuntimeValue] is the
// unrestricted Data-or-Thunk produced by selection and application.
//
// # Failures
//
// Failures are ordinary data. [NewFailure] builds a literal blob
// carrying the first 30 bytes of a message; [Failure] wraps that data
// as a Go error so it can travel the usual error return.
package object
