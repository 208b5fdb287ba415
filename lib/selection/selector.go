// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package selection

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/fix/lib/object"
)

// Operation names recognized in the first element of a spec.
const (
	OpElement  = "element"
	OpRange    = "range"
	OpTruncate = "truncate"
)

// Selector resolves selection specs against a backend.
type Selector struct {
	backend object.Backend
	logger  *slog.Logger
}

// New returns a selector reading from backend. A nil logger discards.
func New(backend object.Backend, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Selector{backend: backend, logger: logger}
}

// target is the data being selected from, split by accessibility.
type target struct {
	data       object.Data[object.Handle]
	accessible bool
}

// Select resolves spec to a runtime value.
func (s *Selector) Select(ctx context.Context, spec object.TreeName[object.Handle]) (object.RuntimeValue, error) {
	elements, err := object.LoadTree(ctx, s.backend, spec)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	if len(elements) < 2 {
		return object.RuntimeValue{}, object.NewFailure("select: spec too short")
	}
	operation, err := operationName(elements[0])
	if err != nil {
		return object.RuntimeValue{}, err
	}
	targetData, ok := elements[1].AsData()
	if !ok {
		return object.RuntimeValue{}, object.NewFailure("select: target is not data")
	}
	selected := target{data: targetData, accessible: targetData.IsAccessible()}

	s.logger.Debug("selecting", "operation", operation, "target", targetData, "spec_size", len(elements))

	switch operation {
	case OpElement:
		if len(elements) != 3 {
			return object.RuntimeValue{}, object.NewFailure("select: element wants 3 items")
		}
		index, err := integer(elements[2])
		if err != nil {
			return object.RuntimeValue{}, err
		}
		return s.element(ctx, selected, index)
	case OpRange:
		if len(elements) != 4 {
			return object.RuntimeValue{}, object.NewFailure("select: range wants 4 items")
		}
		start, err := integer(elements[2])
		if err != nil {
			return object.RuntimeValue{}, err
		}
		end, err := integer(elements[3])
		if err != nil {
			return object.RuntimeValue{}, err
		}
		return s.subrange(ctx, selected, start, end)
	case OpTruncate:
		if len(elements) != 2 {
			return object.RuntimeValue{}, object.NewFailure("select: truncate wants 2 items")
		}
		return truncate(selected)
	default:
		return object.RuntimeValue{}, object.Failf("select: unknown op %q", operation)
	}
}

// operationName reads the operation from a blob handle. Operation
// names are short enough that real specs carry them as literals.
func operationName(h object.Handle) (string, error) {
	data, ok := h.AsData()
	if !ok || data.Kind() != object.BlobKind {
		return "", object.NewFailure("select: op is not a blob")
	}
	name := data.Lower().Blob()
	if !name.IsLiteral() {
		return "", object.NewFailure("select: op is too long")
	}
	return string(name.Literal()), nil
}

// integer decodes a literal-blob integer argument.
func integer(h object.Handle) (uint64, error) {
	data, ok := h.AsData()
	if !ok || data.Kind() != object.BlobKind {
		return 0, object.NewFailure("select: integer is not a blob")
	}
	n, err := object.BlobUint64(data.Lower().Blob())
	if err != nil {
		return 0, object.NewFailure("select: malformed integer")
	}
	return n, nil
}

// element returns one element of a tree target.
func (s *Selector) element(ctx context.Context, selected target, index uint64) (object.RuntimeValue, error) {
	if selected.data.Kind() != object.TreeKind {
		return object.RuntimeValue{}, object.NewFailure("select: element of a blob")
	}
	tree := selected.data.Lower().Tree()
	if index >= uint64(tree.Size()) {
		return object.RuntimeValue{}, object.Failf("select: index %d >= %d", index, tree.Size())
	}
	elements, err := object.LoadTree(ctx, s.backend, tree)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	return project(elements[index], selected.accessible), nil
}

// project turns a selected element into a runtime value. Elements of
// a reference are lowered; encodes yield their thunk.
func project(h object.Handle, accessible bool) object.RuntimeValue {
	switch h.Kind() {
	case object.DataHandle:
		data, _ := h.AsData()
		if !accessible {
			return object.RuntimeData(object.RefData[object.Handle](data.Lower()))
		}
		return object.RuntimeData(data)
	case object.ThunkHandle:
		thunk, _ := h.AsThunk()
		return object.RuntimeThunk(thunk)
	default:
		encode, _ := h.AsEncode()
		return object.RuntimeThunk(encode.Thunk)
	}
}

// subrange returns bytes or elements [start, end) of the target.
func (s *Selector) subrange(ctx context.Context, selected target, start, end uint64) (object.RuntimeValue, error) {
	if start > end {
		return object.RuntimeValue{}, object.Failf("select: range %d > %d", start, end)
	}
	ref := selected.data.Lower()

	if ref.Kind() == object.BlobKind {
		blob := ref.Blob()
		if end > blob.Size() {
			return object.RuntimeValue{}, object.Failf("select: end %d > size %d", end, blob.Size())
		}
		content, err := object.LoadBlobRange(ctx, s.backend, blob, start, end)
		if err != nil {
			return object.RuntimeValue{}, err
		}
		name, err := object.CreateBlob(ctx, s.backend, content)
		if err != nil {
			return object.RuntimeValue{}, err
		}
		if selected.accessible {
			return object.RuntimeData(object.ObjectData(object.BlobObject[object.Handle](name))), nil
		}
		return object.RuntimeData(object.RefData[object.Handle](object.BlobRef(name))), nil
	}

	tree := ref.Tree()
	if end > uint64(tree.Size()) {
		return object.RuntimeValue{}, object.Failf("select: end %d > size %d", end, tree.Size())
	}
	elements, err := object.LoadTree(ctx, s.backend, tree)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	// The tag describes the first element, so only a prefix keeps it.
	tag := tree.Tagged() && start == 0
	name, err := object.CreateTree(ctx, s.backend, elements[start:end], tag)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	if selected.accessible {
		return object.RuntimeData(object.ObjectData(object.TreeObject(name))), nil
	}
	return object.RuntimeData(object.RefData[object.Handle](object.TreeRef(name))), nil
}

// truncate cuts the target to size zero without touching storage.
func truncate(selected target) (object.RuntimeValue, error) {
	ref := selected.data.Lower()
	if ref.Kind() == object.BlobKind {
		empty := object.NameBlob(nil)
		if selected.accessible {
			return object.RuntimeData(object.ObjectData(object.BlobObject[object.Handle](empty))), nil
		}
		return object.RuntimeData(object.RefData[object.Handle](object.BlobRef(empty))), nil
	}

	empty, err := object.NameTree(nil)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	empty = empty.WithTag(ref.Tree().Tagged())
	if selected.accessible {
		return object.RuntimeData(object.ObjectData(object.TreeObject(empty))), nil
	}
	return object.RuntimeData(object.RefData[object.Handle](object.TreeRef(empty))), nil
}
