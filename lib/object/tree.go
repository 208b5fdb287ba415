// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bureau-foundation/fix/lib/objhash"
)

// Kind is the capability shared by tree element kinds. [Handle] is the
// general kind; [Value] is the evaluated refinement. The constraint
// must not mention Handle, which is itself built from Data[Handle].
type Kind interface {
	IsEq() bool
	Footprint() uint32
}

// TreeName identifies an immutable ordered sequence of elements of kind
// T. The element kind is static only; see the package documentation.
//
// The tag flag is metadata on the name, not part of the pointer: it is
// propagated by [TryMap], [TreeName.Relax] and [Ref.Lift], never
// recomputed from content.
type TreeName[T Kind] struct {
	pointer   objhash.Pointer
	size      uint32
	footprint uint32
	eq        bool
	tag       bool
}

// NameTree derives the untagged name of a tree of handles from its
// content: the pointer hashes the canonical encoding, and size,
// footprint and eq are computed from the elements.
func NameTree(elements []Handle) (TreeName[Handle], error) {
	if uint64(len(elements)) > math.MaxUint32 {
		return TreeName[Handle]{}, fmt.Errorf("tree of %d elements exceeds the maximum size", len(elements))
	}
	encoded, err := EncodeTree(elements)
	if err != nil {
		return TreeName[Handle]{}, err
	}
	return TreeName[Handle]{
		pointer:   objhash.HashTree(encoded),
		size:      uint32(len(elements)),
		footprint: TreeFootprint(elements),
		eq:        allEq(elements),
	}, nil
}

// TreeFootprint estimates the resident cost of a tree in pages: the
// tree's own encoding (HandleSize bytes per element, rounded up to
// whole pages) plus the footprint of every element. The sum saturates
// instead of overflowing.
func TreeFootprint[T Kind](elements []T) uint32 {
	footprint := pagesFor(uint64(len(elements)) * HandleSize)
	for _, element := range elements {
		footprint = saturatingAdd(footprint, element.Footprint())
	}
	return footprint
}

func allEq[T Kind](elements []T) bool {
	for _, element := range elements {
		if !element.IsEq() {
			return false
		}
	}
	return true
}

// Pointer returns the content pointer of the tree.
func (t TreeName[T]) Pointer() objhash.Pointer { return t.pointer }

// Size returns the number of elements.
func (t TreeName[T]) Size() uint32 { return t.size }

// Footprint returns the estimated memory cost in pages.
func (t TreeName[T]) Footprint() uint32 { return t.footprint }

// IsEq reports whether every element of the tree is itself
// equality-comparable.
func (t TreeName[T]) IsEq() bool { return t.eq }

// Tagged reports whether the first element names the producing
// procedure.
func (t TreeName[T]) Tagged() bool { return t.tag }

// WithTag returns the same name with the tag flag set to tag.
func (t TreeName[T]) WithTag(tag bool) TreeName[T] {
	t.tag = tag
	return t
}

// Relax widens the element kind to Handle. The physical tree is
// unchanged; only static specificity is lost.
func (t TreeName[T]) Relax() TreeName[Handle] {
	return retypeTree[T, Handle](t)
}

// Equal reports whether two tree names denote the same tree. Names
// with different tags are never equal, and a tree that is not eq
// cannot be compared at all, so it is equal to nothing.
func (t TreeName[T]) Equal(other TreeName[T]) bool {
	if t.tag != other.tag {
		return false
	}
	if !t.eq || !other.eq {
		return false
	}
	return t.pointer == other.pointer && t.size == other.size
}

// String renders the name as "tree:<pointer>:<size>:<footprint>"
// followed by ":eq" when the tree is eq and ":tagged" when it is
// tagged. [ParseTreeName] accepts the same form.
func (t TreeName[T]) String() string {
	var suffix strings.Builder
	if t.eq {
		suffix.WriteString(":eq")
	}
	if t.tag {
		suffix.WriteString(":tagged")
	}
	return fmt.Sprintf("tree:%s:%d:%d%s", t.pointer, t.size, t.footprint, suffix.String())
}

// ParseTreeName parses the output of [TreeName.String]. The footprint
// must cover at least the tree's own handles, and an empty tree is
// always eq.
func ParseTreeName(text string) (TreeName[Handle], error) {
	rest, ok := strings.CutPrefix(text, "tree:")
	if !ok {
		return TreeName[Handle]{}, fmt.Errorf("tree name %q has no tree: prefix", text)
	}
	rest, tag := strings.CutSuffix(rest, ":tagged")
	rest, eq := strings.CutSuffix(rest, ":eq")
	fields := strings.Split(rest, ":")
	if len(fields) != 3 {
		return TreeName[Handle]{}, fmt.Errorf("tree name %q wants pointer, size and footprint", text)
	}
	pointer, err := objhash.Parse(fields[0])
	if err != nil {
		return TreeName[Handle]{}, err
	}
	size, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return TreeName[Handle]{}, fmt.Errorf("parsing tree size: %w", err)
	}
	footprint, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return TreeName[Handle]{}, fmt.Errorf("parsing tree footprint: %w", err)
	}
	if minimum := pagesFor(size * HandleSize); uint32(footprint) < minimum {
		return TreeName[Handle]{}, fmt.Errorf("tree name %q: footprint %d below %d", text, footprint, minimum)
	}
	if size == 0 && !eq {
		return TreeName[Handle]{}, fmt.Errorf("tree name %q: empty tree must be eq", text)
	}
	return TreeName[Handle]{
		pointer:   pointer,
		size:      uint32(size),
		footprint: uint32(footprint),
		eq:        eq,
		tag:       tag,
	}, nil
}

// retypeTree changes the static element kind of a name. Callers are
// responsible for the refinement being truthful.
func retypeTree[T, U Kind](t TreeName[T]) TreeName[U] {
	return TreeName[U]{
		pointer:   t.pointer,
		size:      t.size,
		footprint: t.footprint,
		eq:        t.eq,
		tag:       t.tag,
	}
}
