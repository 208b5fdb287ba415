// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import "fmt"

// ThunkKind distinguishes the three forms of deferred computation.
type ThunkKind uint8

const (
	// Identification is an already-known result, held opaquely.
	Identification ThunkKind = iota
	// Selection is a structural access request over a spec tree.
	Selection
	// Application is a procedure invocation over a combination tree
	// of resource limits, procedure and arguments.
	Application
)

// String returns the thunk kind name.
func (kind ThunkKind) String() string {
	switch kind {
	case Identification:
		return "identification"
	case Selection:
		return "selection"
	case Application:
		return "application"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(kind))
	}
}

// Thunk is a deferred computation. Thunks are never eq: nothing about
// the result is known until they are forced.
type Thunk struct {
	kind ThunkKind
	data Data[Handle]
	tree TreeName[Handle]
}

// Identify returns a thunk whose result is data.
func Identify(data Data[Handle]) Thunk { return Thunk{kind: Identification, data: data} }

// Select returns a thunk that selects according to spec.
func Select(spec TreeName[Handle]) Thunk { return Thunk{kind: Selection, tree: spec} }

// Apply returns a thunk that applies the combination.
func Apply(combination TreeName[Handle]) Thunk {
	return Thunk{kind: Application, tree: combination}
}

// Kind returns the thunk kind.
func (t Thunk) Kind() ThunkKind { return t.kind }

// Identification returns the identified data of an identification
// thunk.
func (t Thunk) Identification() Data[Handle] { return t.data }

// Tree returns the spec of a selection or the combination of an
// application.
func (t Thunk) Tree() TreeName[Handle] { return t.tree }

// String renders the thunk for logs.
func (t Thunk) String() string {
	if t.kind == Identification {
		return "identify(" + t.data.String() + ")"
	}
	return t.kind.String() + "(" + t.tree.String() + ")"
}

// Access is the accessibility adjustment an Encode requests once its
// thunk has been forced.
type Access uint8

const (
	// Keep leaves the result's accessibility as produced.
	Keep Access = iota
	// Lift makes the result accessible.
	Lift
	// Lower makes the result a bare reference.
	Lower
)

// String returns "keep", "lift" or "lower".
func (access Access) String() string {
	switch access {
	case Keep:
		return "keep"
	case Lift:
		return "lift"
	case Lower:
		return "lower"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(access))
	}
}

// ParseAccess parses the output of [Access.String].
func ParseAccess(text string) (Access, error) {
	switch text {
	case "", "keep":
		return Keep, nil
	case "lift":
		return Lift, nil
	case "lower":
		return Lower, nil
	default:
		return Keep, fmt.Errorf("unknown accessibility %q", text)
	}
}

// Encode is a request to force Thunk to data and then apply Access.
type Encode struct {
	Thunk  Thunk
	Access Access
}

// HandleKind distinguishes the three handle variants.
type HandleKind uint8

const (
	// DataHandle holds a Ref or an Object.
	DataHandle HandleKind = iota
	// ThunkHandle holds a deferred computation that nothing has asked
	// to force.
	ThunkHandle
	// EncodeHandle holds a request to force a thunk.
	EncodeHandle
)

// String returns the handle kind name.
func (kind HandleKind) String() string {
	switch kind {
	case DataHandle:
		return "data"
	case ThunkHandle:
		return "thunk"
	case EncodeHandle:
		return "encode"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(kind))
	}
}

// Handle is the universal tree element: Data, Thunk, or Encode.
type Handle struct {
	kind   HandleKind
	data   Data[Handle]
	thunk  Thunk
	access Access
}

// FromData returns a data handle.
func FromData(data Data[Handle]) Handle { return Handle{kind: DataHandle, data: data} }

// FromThunk returns a thunk handle.
func FromThunk(thunk Thunk) Handle { return Handle{kind: ThunkHandle, thunk: thunk} }

// FromEncode returns an encode handle.
func FromEncode(encode Encode) Handle {
	return Handle{kind: EncodeHandle, thunk: encode.Thunk, access: encode.Access}
}

// Kind returns the handle variant.
func (h Handle) Kind() HandleKind { return h.kind }

// AsData returns the data of a data handle.
func (h Handle) AsData() (Data[Handle], bool) { return h.data, h.kind == DataHandle }

// AsThunk returns the thunk of a thunk handle.
func (h Handle) AsThunk() (Thunk, bool) { return h.thunk, h.kind == ThunkHandle }

// AsEncode returns the encode of an encode handle.
func (h Handle) AsEncode() (Encode, bool) {
	return Encode{Thunk: h.thunk, Access: h.access}, h.kind == EncodeHandle
}

// IsEq reports whether the handle is comparable. Only data can be.
func (h Handle) IsEq() bool {
	if h.kind == DataHandle {
		return h.data.IsEq()
	}
	return false
}

// Footprint is the memory cost of the handle's accessible data.
func (h Handle) Footprint() uint32 {
	if h.kind == DataHandle {
		return h.data.Footprint()
	}
	return 0
}

// Relax returns h; Handle is already the general kind.
func (h Handle) Relax() Handle { return h }

// Equal reports whether two handles denote the same data. Thunks and
// encodes are never equal to anything.
func (h Handle) Equal(other Handle) bool {
	if h.kind != DataHandle || other.kind != DataHandle {
		return false
	}
	return h.data.Equal(other.data)
}

// String renders the handle for logs.
func (h Handle) String() string {
	switch h.kind {
	case DataHandle:
		return h.data.String()
	case ThunkHandle:
		return h.thunk.String()
	default:
		return "encode[" + h.access.String() + "](" + h.thunk.String() + ")"
	}
}

// Value is evaluated data or a bare thunk: no Encode is reachable
// through its accessible trees. The refinement is static; nothing
// checks it at runtime.
type Value struct {
	deferred bool
	data     Data[Value]
	thunk    Thunk
}

// ValueOf returns a data value.
func ValueOf(data Data[Value]) Value { return Value{data: data} }

// DeferredValue returns a value holding an unforced thunk.
func DeferredValue(thunk Thunk) Value { return Value{deferred: true, thunk: thunk} }

// ValueFromHandle narrows a handle to a value. Encodes are rejected;
// the contents of accessible trees are taken on trust.
func ValueFromHandle(h Handle) (Value, error) {
	switch h.kind {
	case DataHandle:
		return ValueOf(retypeData[Handle, Value](h.data)), nil
	case ThunkHandle:
		return DeferredValue(h.thunk), nil
	default:
		return Value{}, fmt.Errorf("encode is not a value")
	}
}

// IsThunk reports whether the value is a deferred thunk.
func (v Value) IsThunk() bool { return v.deferred }

// AsData returns the data of a data value.
func (v Value) AsData() (Data[Value], bool) { return v.data, !v.deferred }

// AsThunk returns the thunk of a deferred value.
func (v Value) AsThunk() (Thunk, bool) { return v.thunk, v.deferred }

// IsEq reports whether the value is comparable.
func (v Value) IsEq() bool {
	if v.deferred {
		return false
	}
	return v.data.IsEq()
}

// Footprint is the memory cost of the value's accessible data.
func (v Value) Footprint() uint32 {
	if v.deferred {
		return 0
	}
	return v.data.Footprint()
}

// Relax widens the value to a handle.
func (v Value) Relax() Handle {
	if v.deferred {
		return FromThunk(v.thunk)
	}
	return FromData(v.data.Relax())
}

// Equal compares two values as handles.
func (v Value) Equal(other Value) bool { return v.Relax().Equal(other.Relax()) }

// String renders the value for logs.
func (v Value) String() string { return v.Relax().String() }

// RuntimeValue is the unrestricted Data-or-Thunk produced by one
// reduction step.
type RuntimeValue struct {
	deferred bool
	data     Data[Handle]
	thunk    Thunk
}

// RuntimeData returns a data result.
func RuntimeData(data Data[Handle]) RuntimeValue { return RuntimeValue{data: data} }

// RuntimeThunk returns a thunk result, which needs further steps.
func RuntimeThunk(thunk Thunk) RuntimeValue { return RuntimeValue{deferred: true, thunk: thunk} }

// IsThunk reports whether more reduction is needed.
func (r RuntimeValue) IsThunk() bool { return r.deferred }

// AsData returns the data of a finished result.
func (r RuntimeValue) AsData() (Data[Handle], bool) { return r.data, !r.deferred }

// AsThunk returns the thunk of an unfinished result.
func (r RuntimeValue) AsThunk() (Thunk, bool) { return r.thunk, r.deferred }

// Handle widens the result to a handle.
func (r RuntimeValue) Handle() Handle {
	if r.deferred {
		return FromThunk(r.thunk)
	}
	return FromData(r.data)
}

// String renders the result for logs.
func (r RuntimeValue) String() string { return r.Handle().String() }
