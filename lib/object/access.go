// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"context"
	"fmt"
	"strings"
)

// ObjectKind distinguishes the two physical object kinds.
type ObjectKind uint8

const (
	// BlobKind is an immutable byte sequence.
	BlobKind ObjectKind = iota
	// TreeKind is an immutable ordered sequence of handles.
	TreeKind
)

// String returns "blob" or "tree".
func (kind ObjectKind) String() string {
	switch kind {
	case BlobKind:
		return "blob"
	case TreeKind:
		return "tree"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(kind))
	}
}

// Ref is a name with no guarantee that its content is materialized.
// A Ref's tree may never have been looked at, so it is always a tree of
// the general kind.
type Ref struct {
	kind ObjectKind
	blob BlobName
	tree TreeName[Handle]
}

// BlobRef returns an inaccessible reference to a blob.
func BlobRef(name BlobName) Ref { return Ref{kind: BlobKind, blob: name} }

// TreeRef returns an inaccessible reference to a tree.
func TreeRef(name TreeName[Handle]) Ref { return Ref{kind: TreeKind, tree: name} }

// Kind returns the physical kind of the referenced object.
func (r Ref) Kind() ObjectKind { return r.kind }

// Blob returns the blob name of a blob reference.
func (r Ref) Blob() BlobName { return r.blob }

// Tree returns the tree name of a tree reference.
func (r Ref) Tree() TreeName[Handle] { return r.tree }

// IsEq reports whether the reference can be compared: blobs always,
// trees when every element is eq.
func (r Ref) IsEq() bool {
	if r.kind == BlobKind {
		return true
	}
	return r.tree.IsEq()
}

// Equal compares two references by the rules of their names.
func (r Ref) Equal(other Ref) bool {
	if r.kind != other.kind {
		return false
	}
	if r.kind == BlobKind {
		return r.blob.Equal(other.blob)
	}
	return r.tree.Equal(other.tree)
}

// Lift makes the referenced object accessible. Blob content is loaded
// and re-named; tree elements are loaded, the name is re-derived from
// them and checked against the reference (pointer, size, footprint and
// eq), and the original tag is kept.
func (r Ref) Lift(ctx context.Context, backend Backend) (Object[Handle], error) {
	switch r.kind {
	case BlobKind:
		if r.blob.IsLiteral() {
			return BlobObject[Handle](r.blob), nil
		}
		content, err := LoadBlob(ctx, backend, r.blob)
		if err != nil {
			return Object[Handle]{}, err
		}
		named := NameBlob(content)
		if !named.Equal(r.blob) {
			return Object[Handle]{}, fmt.Errorf("lifting %s: loaded content names %s", r.blob, named)
		}
		return BlobObject[Handle](named), nil
	default:
		elements, err := LoadTree(ctx, backend, r.tree)
		if err != nil {
			return Object[Handle]{}, err
		}
		named, err := NameTree(elements)
		if err != nil {
			return Object[Handle]{}, fmt.Errorf("lifting %s: %w", r.tree, err)
		}
		if named.pointer != r.tree.pointer || named.size != r.tree.size ||
			named.footprint != r.tree.footprint || named.eq != r.tree.eq {
			return Object[Handle]{}, fmt.Errorf("lifting %s: loaded content names %s", r.tree, named)
		}
		return TreeObject(named.WithTag(r.tree.tag)), nil
	}
}

// ParseRef parses a blob name or a tree name into a reference.
func ParseRef(text string) (Ref, error) {
	if strings.HasPrefix(text, "tree:") {
		tree, err := ParseTreeName(text)
		if err != nil {
			return Ref{}, err
		}
		return TreeRef(tree), nil
	}
	blob, err := ParseBlobName(text)
	if err != nil {
		return Ref{}, err
	}
	return BlobRef(blob), nil
}

// String renders the reference for logs.
func (r Ref) String() string {
	if r.kind == BlobKind {
		return "ref(" + r.blob.String() + ")"
	}
	return "ref(" + r.tree.String() + ")"
}

// Object is a name whose content is accessible. Tree elements carry the
// element kind T.
type Object[T Kind] struct {
	kind ObjectKind
	blob BlobName
	tree TreeName[T]
}

// BlobObject returns an accessible blob.
func BlobObject[T Kind](name BlobName) Object[T] { return Object[T]{kind: BlobKind, blob: name} }

// TreeObject returns an accessible tree.
func TreeObject[T Kind](name TreeName[T]) Object[T] { return Object[T]{kind: TreeKind, tree: name} }

// Kind returns the physical kind of the object.
func (o Object[T]) Kind() ObjectKind { return o.kind }

// Blob returns the blob name of a blob object.
func (o Object[T]) Blob() BlobName { return o.blob }

// Tree returns the tree name of a tree object.
func (o Object[T]) Tree() TreeName[T] { return o.tree }

// IsEq reports whether the object can be compared. Objects and their
// lowered references always agree.
func (o Object[T]) IsEq() bool { return o.Lower().IsEq() }

// Footprint returns the estimated memory cost of the object.
func (o Object[T]) Footprint() uint32 {
	if o.kind == BlobKind {
		return o.blob.Footprint()
	}
	return o.tree.Footprint()
}

// Lower drops accessibility. It never touches storage.
func (o Object[T]) Lower() Ref {
	if o.kind == BlobKind {
		return BlobRef(o.blob)
	}
	return TreeRef(o.tree.Relax())
}

// Relax widens the element kind of a tree object to Handle.
func (o Object[T]) Relax() Object[Handle] {
	if o.kind == BlobKind {
		return BlobObject[Handle](o.blob)
	}
	return TreeObject(o.tree.Relax())
}

// Data is either an inaccessible [Ref] or an accessible [Object].
type Data[T Kind] struct {
	accessible bool
	ref        Ref
	object     Object[T]
}

// RefData wraps a reference.
func RefData[T Kind](ref Ref) Data[T] { return Data[T]{ref: ref} }

// ObjectData wraps an accessible object.
func ObjectData[T Kind](object Object[T]) Data[T] {
	return Data[T]{accessible: true, object: object}
}

// IsAccessible reports whether the data is an Object.
func (d Data[T]) IsAccessible() bool { return d.accessible }

// AsRef returns the reference if the data is inaccessible.
func (d Data[T]) AsRef() (Ref, bool) { return d.ref, !d.accessible }

// AsObject returns the object if the data is accessible.
func (d Data[T]) AsObject() (Object[T], bool) { return d.object, d.accessible }

// Kind returns the physical kind of the underlying object.
func (d Data[T]) Kind() ObjectKind {
	if d.accessible {
		return d.object.kind
	}
	return d.ref.kind
}

// Lower returns the inaccessible view of the data.
func (d Data[T]) Lower() Ref {
	if d.accessible {
		return d.object.Lower()
	}
	return d.ref
}

// Lift returns the accessible view of the data, loading content only
// when the data is a reference.
func (d Data[T]) Lift(ctx context.Context, backend Backend) (Object[Handle], error) {
	if d.accessible {
		return d.object.Relax(), nil
	}
	return d.ref.Lift(ctx, backend)
}

// Relax widens the element kind to Handle.
func (d Data[T]) Relax() Data[Handle] {
	if d.accessible {
		return ObjectData(d.object.Relax())
	}
	return RefData[Handle](d.ref)
}

// IsEq reports whether the data can be compared.
func (d Data[T]) IsEq() bool {
	if d.accessible {
		return d.object.IsEq()
	}
	return d.ref.IsEq()
}

// Footprint is the memory cost of accessible data. References cost
// nothing because their content is not resident.
func (d Data[T]) Footprint() uint32 {
	if d.accessible {
		return d.object.Footprint()
	}
	return 0
}

// Equal compares two data by their lowered names, so an Object and a
// Ref of the same content are equal.
func (d Data[T]) Equal(other Data[T]) bool {
	return d.Lower().Equal(other.Lower())
}

// String renders the data for logs.
func (d Data[T]) String() string {
	if !d.accessible {
		return d.ref.String()
	}
	if d.object.kind == BlobKind {
		return "object(" + d.object.blob.String() + ")"
	}
	return "object(" + d.object.tree.String() + ")"
}

// retypeData changes the static element kind of data.
func retypeData[T, U Kind](d Data[T]) Data[U] {
	if !d.accessible {
		return RefData[U](d.ref)
	}
	if d.object.kind == BlobKind {
		return ObjectData(BlobObject[U](d.object.blob))
	}
	return ObjectData(TreeObject(retypeTree[T, U](d.object.tree)))
}
