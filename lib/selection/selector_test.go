// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package selection_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/fix/lib/object"
	"github.com/bureau-foundation/fix/lib/objstore"
	"github.com/bureau-foundation/fix/lib/selection"
	"github.com/bureau-foundation/fix/lib/testutil"
)

type fixture struct {
	backend  *testutil.CountingBackend
	selector *selection.Selector
}

func newFixture() *fixture {
	backend := testutil.NewCountingBackend(objstore.NewMemory())
	return &fixture{backend: backend, selector: selection.New(backend, nil)}
}

// spec stores a selection spec tree.
func (f *fixture) spec(t *testing.T, operation string, target object.Handle, integers ...uint64) object.TreeName[object.Handle] {
	t.Helper()
	elements := []object.Handle{testutil.Literal(t, operation), target}
	for _, n := range integers {
		elements = append(elements, testutil.Uint64(n))
	}
	return testutil.TreeName(t, f.backend, elements...)
}

func (f *fixture) selectData(t *testing.T, spec object.TreeName[object.Handle]) object.Data[object.Handle] {
	t.Helper()
	result, err := f.selector.Select(context.Background(), spec)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	data, ok := result.AsData()
	if !ok {
		t.Fatalf("Select returned thunk %s, want data", result)
	}
	return data
}

func lowered(h object.Handle) object.Handle {
	data, _ := h.AsData()
	return object.FromData(object.RefData[object.Handle](data.Lower()))
}

func requireFailure(t *testing.T, err error, want string) {
	t.Helper()
	var failure *object.Failure
	if !errors.As(err, &failure) {
		t.Fatalf("error = %v, want failure %q", err, want)
	}
	if failure.Message() != want {
		t.Errorf("failure = %q, want %q", failure.Message(), want)
	}
}

func TestElementFromObject(t *testing.T) {
	f := newFixture()
	big := testutil.Blob(t, f.backend, bytes.Repeat([]byte("element content "), 100))
	tree := testutil.Tree(t, f.backend, testutil.Literal(t, "zero"), big)

	f.backend.Reset()
	data := f.selectData(t, f.spec(t, selection.OpElement, tree, 1))
	if !data.IsAccessible() {
		t.Error("element of an object is not accessible")
	}
	if !object.FromData(data).Equal(big) {
		t.Errorf("selected %s, want %s", data, big)
	}

	counts := f.backend.Counts()
	// One load for the spec, one for the target's handle list.
	if counts.TreeLoads != 2 || counts.BlobLoads != 0 {
		t.Errorf("counts = %+v, want 2 tree loads and no blob loads", counts)
	}
}

func TestElementFromRefIsLowered(t *testing.T) {
	f := newFixture()
	big := testutil.Blob(t, f.backend, bytes.Repeat([]byte("x"), 64))
	tree := lowered(testutil.Tree(t, f.backend, big))

	data := f.selectData(t, f.spec(t, selection.OpElement, tree, 0))
	if data.IsAccessible() {
		t.Error("element of a reference is accessible")
	}
	if !object.FromData(data).Equal(big) {
		t.Errorf("selected %s, want %s", data, big)
	}
}

func TestElementEncodeYieldsThunk(t *testing.T) {
	f := newFixture()
	inner := testutil.TreeName(t, f.backend, testutil.Literal(t, "spec"))
	thunk := object.Apply(inner)
	tree := testutil.Tree(t, f.backend,
		object.FromEncode(object.Encode{Thunk: thunk, Access: object.Lift}),
		object.FromThunk(object.Select(inner)),
	)

	for index, wantKind := range []object.ThunkKind{object.Application, object.Selection} {
		result, err := f.selector.Select(context.Background(), f.spec(t, selection.OpElement, tree, uint64(index)))
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		got, ok := result.AsThunk()
		if !ok {
			t.Fatalf("element %d = %s, want a thunk", index, result)
		}
		if got.Kind() != wantKind {
			t.Errorf("element %d kind = %s, want %s", index, got.Kind(), wantKind)
		}
		if !got.Tree().Equal(inner) {
			t.Errorf("element %d tree = %s, want %s", index, got.Tree(), inner)
		}
	}
}

func TestElementErrors(t *testing.T) {
	f := newFixture()
	tree := testutil.Tree(t, f.backend, testutil.Literal(t, "only"))
	blob := testutil.Literal(t, "blob")

	_, err := f.selector.Select(context.Background(), f.spec(t, selection.OpElement, tree, 1))
	requireFailure(t, err, "select: index 1 >= 1")

	_, err = f.selector.Select(context.Background(), f.spec(t, selection.OpElement, blob, 0))
	requireFailure(t, err, "select: element of a blob")

	_, err = f.selector.Select(context.Background(), f.spec(t, selection.OpElement, tree))
	requireFailure(t, err, "select: element wants 3 items")

	badIndex := testutil.TreeName(t, f.backend, testutil.Literal(t, selection.OpElement), tree, testutil.Literal(t, "ninebytes"))
	_, err = f.selector.Select(context.Background(), badIndex)
	requireFailure(t, err, "select: malformed integer")
}

func TestBlobRange(t *testing.T) {
	f := newFixture()
	content := []byte("0123456789abcdefghijklmnopqrstuvwxyz0123456789")
	blob := testutil.Blob(t, f.backend, content)

	f.backend.Reset()
	data := f.selectData(t, f.spec(t, selection.OpRange, blob, 10, 16))
	if !data.IsAccessible() {
		t.Error("range of an object is not accessible")
	}
	if got := testutil.Bytes(t, f.backend, object.FromData(data)); string(got) != "abcdef" {
		t.Errorf("range = %q, want %q", got, "abcdef")
	}

	counts := f.backend.Counts()
	if counts.RangeLoads != 1 || counts.BlobLoads != 0 {
		t.Errorf("counts = %+v, want one range load and no full loads", counts)
	}

	refData := f.selectData(t, f.spec(t, selection.OpRange, lowered(blob), 0, 40))
	if refData.IsAccessible() {
		t.Error("range of a reference is accessible")
	}
	if got := testutil.Bytes(t, f.backend, object.FromData(refData)); !bytes.Equal(got, content[:40]) {
		t.Errorf("range = %q, want %q", got, content[:40])
	}
}

func TestRangeErrors(t *testing.T) {
	f := newFixture()
	blob := testutil.Literal(t, "short")

	_, err := f.selector.Select(context.Background(), f.spec(t, selection.OpRange, blob, 3, 2))
	requireFailure(t, err, "select: range 3 > 2")

	_, err = f.selector.Select(context.Background(), f.spec(t, selection.OpRange, blob, 0, 6))
	requireFailure(t, err, "select: end 6 > size 5")
}

func TestTreeRangeTag(t *testing.T) {
	f := newFixture()
	name := testutil.TreeName(t, f.backend,
		testutil.Literal(t, "procedure"), testutil.Literal(t, "a"), testutil.Literal(t, "b"))
	tagged := object.FromData(object.ObjectData(object.TreeObject(name.WithTag(true))))

	prefix := f.selectData(t, f.spec(t, selection.OpRange, tagged, 0, 2))
	if tree := prefix.Lower().Tree(); tree.Size() != 2 || !tree.Tagged() {
		t.Errorf("prefix = %s, want 2 tagged elements", tree)
	}

	suffix := f.selectData(t, f.spec(t, selection.OpRange, tagged, 1, 3))
	tree := suffix.Lower().Tree()
	if tree.Size() != 2 || tree.Tagged() {
		t.Errorf("suffix = %s, want 2 untagged elements", tree)
	}
	elements := testutil.Elements(t, f.backend, object.FromData(suffix))
	if !elements[0].Equal(testutil.Literal(t, "a")) || !elements[1].Equal(testutil.Literal(t, "b")) {
		t.Errorf("suffix elements = %v", elements)
	}
}

func TestTruncateTree(t *testing.T) {
	f := newFixture()
	name := testutil.TreeName(t, f.backend,
		testutil.Literal(t, "1"), testutil.Literal(t, "2"), testutil.Literal(t, "3"),
		testutil.Literal(t, "4"), testutil.Literal(t, "5"))

	for _, tag := range []bool{false, true} {
		for _, accessible := range []bool{false, true} {
			var target object.Handle
			if accessible {
				target = object.FromData(object.ObjectData(object.TreeObject(name.WithTag(tag))))
			} else {
				target = object.FromData(object.RefData[object.Handle](object.TreeRef(name.WithTag(tag))))
			}
			spec := f.spec(t, selection.OpTruncate, target)

			f.backend.Reset()
			data := f.selectData(t, spec)
			tree := data.Lower().Tree()
			if tree.Size() != 0 {
				t.Errorf("truncated size = %d, want 0", tree.Size())
			}
			if tree.Tagged() != tag {
				t.Errorf("truncated tag = %v, want %v", tree.Tagged(), tag)
			}
			if data.IsAccessible() != accessible {
				t.Errorf("truncated accessibility = %v, want %v", data.IsAccessible(), accessible)
			}
			// Only the spec itself is read.
			if counts := f.backend.Counts(); counts.Loads() != 1 || counts.TreeCreates != 0 {
				t.Errorf("counts = %+v, want only the spec load", counts)
			}

			elements, err := object.LoadTree(context.Background(), f.backend, tree)
			if err != nil || len(elements) != 0 {
				t.Errorf("loading truncated tree = %v, %v", elements, err)
			}
		}
	}
}

func TestTruncateBlob(t *testing.T) {
	f := newFixture()
	blob := testutil.Blob(t, f.backend, bytes.Repeat([]byte("y"), 100))

	f.backend.Reset()
	data := f.selectData(t, f.spec(t, selection.OpTruncate, blob))
	if data.Kind() != object.BlobKind || data.Lower().Blob().Size() != 0 {
		t.Errorf("truncated blob = %s, want empty blob", data)
	}
	if !data.IsAccessible() {
		t.Error("truncated object is not accessible")
	}
	if counts := f.backend.Counts(); counts.BlobLoads+counts.RangeLoads != 0 {
		t.Errorf("truncation read the blob: %+v", counts)
	}
}

func TestMalformedSpecs(t *testing.T) {
	f := newFixture()
	tree := testutil.Tree(t, f.backend, testutil.Literal(t, "x"))
	inner := testutil.TreeName(t, f.backend, testutil.Literal(t, "x"))

	tests := []struct {
		name string
		spec object.TreeName[object.Handle]
		want string
	}{
		{
			name: "too short",
			spec: testutil.TreeName(t, f.backend, testutil.Literal(t, selection.OpTruncate)),
			want: "select: spec too short",
		},
		{
			name: "unknown operation",
			spec: f.spec(t, "explode", tree),
			want: `select: unknown op "explode"`,
		},
		{
			name: "operation is a tree",
			spec: testutil.TreeName(t, f.backend, tree, tree),
			want: "select: op is not a blob",
		},
		{
			name: "target is a thunk",
			spec: testutil.TreeName(t, f.backend, testutil.Literal(t, selection.OpTruncate), object.FromThunk(object.Select(inner))),
			want: "select: target is not data",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.selector.Select(context.Background(), tt.spec)
			requireFailure(t, err, tt.want)
		})
	}
}
