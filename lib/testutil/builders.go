// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"testing"

	"github.com/bureau-foundation/fix/lib/object"
)

// Literal returns an inaccessible literal blob handle. Content longer
// than a literal fails the test.
func Literal(t testing.TB, content string) object.Handle {
	t.Helper()
	name, err := object.LiteralBlob([]byte(content))
	if err != nil {
		t.Fatalf("Literal(%q): %v", content, err)
	}
	return object.FromData(object.RefData[object.Handle](object.BlobRef(name)))
}

// Uint64 returns an inaccessible 8-byte little-endian integer literal.
func Uint64(n uint64) object.Handle {
	return object.FromData(object.RefData[object.Handle](object.BlobRef(object.Uint64Blob(n))))
}

// Blob stores content and returns an accessible blob handle.
func Blob(t testing.TB, backend object.Backend, content []byte) object.Handle {
	t.Helper()
	name, err := object.CreateBlob(context.Background(), backend, content)
	if err != nil {
		t.Fatalf("CreateBlob: %v", err)
	}
	return object.FromData(object.ObjectData(object.BlobObject[object.Handle](name)))
}

// TreeName stores elements and returns the untagged tree name.
func TreeName(t testing.TB, backend object.Backend, elements ...object.Handle) object.TreeName[object.Handle] {
	t.Helper()
	name, err := object.CreateTree(context.Background(), backend, elements, false)
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	return name
}

// Tree stores elements and returns an accessible tree handle.
func Tree(t testing.TB, backend object.Backend, elements ...object.Handle) object.Handle {
	t.Helper()
	return object.FromData(object.ObjectData(object.TreeObject(TreeName(t, backend, elements...))))
}

// Elements loads the elements of an accessible or inaccessible tree
// handle.
func Elements(t testing.TB, backend object.Backend, handle object.Handle) []object.Handle {
	t.Helper()
	data, ok := handle.AsData()
	if !ok || data.Kind() != object.TreeKind {
		t.Fatalf("Elements(%s): not a tree", handle)
	}
	elements, err := object.LoadTree(context.Background(), backend, data.Lower().Tree())
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	return elements
}

// Bytes loads the content of a blob handle.
func Bytes(t testing.TB, backend object.Backend, handle object.Handle) []byte {
	t.Helper()
	data, ok := handle.AsData()
	if !ok || data.Kind() != object.BlobKind {
		t.Fatalf("Bytes(%s): not a blob", handle)
	}
	content, err := object.LoadBlob(context.Background(), backend, data.Lower().Blob())
	if err != nil {
		t.Fatalf("LoadBlob: %v", err)
	}
	return content
}
