// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notation

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bureau-foundation/fix/lib/object"
)

// DefaultMaxInline is the largest blob [Render] writes out in full.
const DefaultMaxInline = 4096

// Renderer writes handles as JSON in the parser's vocabulary.
type Renderer struct {
	Backend object.Backend

	// MaxInline is the largest blob written out in full; larger blobs
	// are written as names. Zero means DefaultMaxInline.
	MaxInline uint64
}

// Render writes h as indented JSON using a default [Renderer].
func Render(ctx context.Context, backend object.Backend, h object.Handle) ([]byte, error) {
	return (&Renderer{Backend: backend}).Render(ctx, h)
}

// Render writes h as indented JSON. Only accessible content and
// literals are read; references to named objects are written as names.
func (r *Renderer) Render(ctx context.Context, h object.Handle) ([]byte, error) {
	node, err := r.node(ctx, h)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(node, "", "  ")
}

func (r *Renderer) node(ctx context.Context, h object.Handle) (any, error) {
	switch h.Kind() {
	case object.ThunkHandle:
		thunk, _ := h.AsThunk()
		return r.thunk(ctx, thunk)
	case object.EncodeHandle:
		encode, _ := h.AsEncode()
		inner, err := r.thunk(ctx, encode.Thunk)
		if err != nil {
			return nil, err
		}
		return map[string]any{"encode": inner, "access": encode.Access.String()}, nil
	}

	data, _ := h.AsData()
	accessible, ok := data.AsObject()
	if !ok {
		ref, _ := data.AsRef()
		if ref.Kind() == object.BlobKind && ref.Blob().IsLiteral() {
			return map[string]any{"ref": blobNode(ref.Blob().Literal())}, nil
		}
		return map[string]any{"name": nameOf(ref)}, nil
	}

	if accessible.Kind() == object.BlobKind {
		name := accessible.Blob()
		if name.Size() > r.maxInline() {
			return map[string]any{"name": name.String(), "size": name.Size()}, nil
		}
		content, err := object.LoadBlob(ctx, r.Backend, name)
		if err != nil {
			return nil, err
		}
		return blobNode(content), nil
	}

	tree := accessible.Tree()
	elements, err := object.LoadTree(ctx, r.Backend, tree)
	if err != nil {
		return nil, err
	}
	nodes := make([]any, len(elements))
	for i, element := range elements {
		if nodes[i], err = r.node(ctx, element); err != nil {
			return nil, err
		}
	}
	node := map[string]any{"tree": nodes}
	if tree.Tagged() {
		node["tag"] = true
	}
	return node, nil
}

func (r *Renderer) thunk(ctx context.Context, thunk object.Thunk) (any, error) {
	if thunk.Kind() == object.Identification {
		inner, err := r.node(ctx, object.FromData(thunk.Identification()))
		if err != nil {
			return nil, err
		}
		return map[string]any{"identify": inner}, nil
	}
	return map[string]any{"thunk": thunk.Kind().String(), "name": thunk.Tree().String()}, nil
}

func (r *Renderer) maxInline() uint64 {
	if r.MaxInline == 0 {
		return DefaultMaxInline
	}
	return r.MaxInline
}

// blobNode picks the most readable form for content: text when it is
// printable UTF-8, an integer when it is exactly eight opaque bytes,
// hex otherwise.
func blobNode(content []byte) any {
	if utf8.Valid(content) && !strings.ContainsFunc(string(content), notPrintable) {
		return string(content)
	}
	if len(content) == 8 {
		return map[string]any{"u64": binary.LittleEndian.Uint64(content)}
	}
	return map[string]any{"hex": hex.EncodeToString(content)}
}

func notPrintable(r rune) bool {
	return !unicode.IsPrint(r) && r != '\n' && r != '\t'
}

func nameOf(ref object.Ref) string {
	if ref.Kind() == object.BlobKind {
		return ref.Blob().String()
	}
	return ref.Tree().String()
}
