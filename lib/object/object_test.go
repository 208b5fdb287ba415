// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/bureau-foundation/fix/lib/object"
	"github.com/bureau-foundation/fix/lib/objstore"
)

func literalRef(t *testing.T, content string) object.Handle {
	t.Helper()
	name, err := object.LiteralBlob([]byte(content))
	if err != nil {
		t.Fatalf("LiteralBlob(%q): %v", content, err)
	}
	return object.FromData(object.RefData[object.Handle](object.BlobRef(name)))
}

func TestLiteralBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := objstore.NewMemory()

	for _, length := range []int{0, 1, 2, 29, 30} {
		content := bytes.Repeat([]byte{'x'}, length)
		name, err := object.LiteralBlob(content)
		if err != nil {
			t.Fatalf("LiteralBlob(%d bytes): %v", length, err)
		}
		if !name.IsLiteral() {
			t.Errorf("%d-byte blob is not a literal", length)
		}
		if name.Size() != uint64(length) {
			t.Errorf("Size() = %d, want %d", name.Size(), length)
		}
		loaded, err := object.LoadBlob(ctx, backend, name)
		if err != nil {
			t.Fatalf("LoadBlob: %v", err)
		}
		if !bytes.Equal(loaded, content) {
			t.Errorf("loaded %q, want %q", loaded, content)
		}
	}

	if _, err := object.LiteralBlob(make([]byte, 31)); err == nil {
		t.Error("LiteralBlob accepted 31 bytes")
	}
}

func TestNameBlobCanonicalForm(t *testing.T) {
	short := object.NameBlob([]byte("short"))
	if !short.IsLiteral() {
		t.Error("5-byte blob named by pointer")
	}

	content := bytes.Repeat([]byte("abc"), 20)
	long := object.NameBlob(content)
	if long.IsLiteral() {
		t.Fatal("60-byte blob named as literal")
	}
	if long.Size() != 60 {
		t.Errorf("Size() = %d, want 60", long.Size())
	}
	if long.Pointer().IsZero() {
		t.Error("named blob has zero pointer")
	}
	if again := object.NameBlob(content); !again.Equal(long) {
		t.Error("naming the same content twice produced different names")
	}
	other := object.NameBlob(bytes.Repeat([]byte("abd"), 20))
	if other.Equal(long) {
		t.Error("different content produced equal names")
	}
}

func TestParseBlobName(t *testing.T) {
	for _, name := range []object.BlobName{
		object.NameBlob(nil),
		object.NameBlob([]byte("ok")),
		object.NameBlob(bytes.Repeat([]byte{7}, 100)),
	} {
		parsed, err := object.ParseBlobName(name.String())
		if err != nil {
			t.Fatalf("ParseBlobName(%q): %v", name, err)
		}
		if !parsed.Equal(name) {
			t.Errorf("ParseBlobName(%q) = %s", name, parsed)
		}
	}

	for _, text := range []string{"", "blob:", "literal:zz", "blob:00:40"} {
		if _, err := object.ParseBlobName(text); err == nil {
			t.Errorf("ParseBlobName(%q) succeeded", text)
		}
	}
}

func TestUint64Blob(t *testing.T) {
	for _, n := range []uint64{0, 1, 255, 1 << 40, math.MaxUint64} {
		got, err := object.BlobUint64(object.Uint64Blob(n))
		if err != nil {
			t.Fatalf("BlobUint64: %v", err)
		}
		if got != n {
			t.Errorf("BlobUint64(Uint64Blob(%d)) = %d", n, got)
		}
	}

	short, _ := object.LiteralBlob([]byte{0x01, 0x02})
	if got, _ := object.BlobUint64(short); got != 0x0201 {
		t.Errorf("two-byte integer = %#x, want 0x201", got)
	}
	wide, _ := object.LiteralBlob(make([]byte, 9))
	if _, err := object.BlobUint64(wide); err == nil {
		t.Error("BlobUint64 accepted a 9-byte literal")
	}
}

func TestBlobFootprint(t *testing.T) {
	tests := []struct {
		size uint64
		want uint32
	}{
		{0, 0},
		{1 << 10, 1},
		{object.PageSize, 1},
		{object.PageSize + 1, 2},
		{math.MaxUint64, math.MaxUint32},
	}
	for _, test := range tests {
		name := namedBlobOfSize(t, test.size)
		if got := name.Footprint(); got != test.want {
			t.Errorf("Footprint(size %d) = %d, want %d", test.size, got, test.want)
		}
	}
}

// namedBlobOfSize fabricates a blob name with an arbitrary declared
// size. Its content never exists; only metadata is inspected.
func namedBlobOfSize(t *testing.T, size uint64) object.BlobName {
	t.Helper()
	if size <= object.LiteralCapacity {
		return object.NameBlob(make([]byte, size))
	}
	name, err := object.ParseBlobName(fmt.Sprintf("blob:%s:%d", strings.Repeat("ab", 24), size))
	if err != nil {
		t.Fatalf("ParseBlobName: %v", err)
	}
	return name
}

func TestMakeErrTruncates(t *testing.T) {
	message := "this message is going to be much longer than thirty bytes"
	data := object.MakeErr(message)

	ref, ok := data.AsRef()
	if !ok {
		t.Fatal("MakeErr returned accessible data")
	}
	name := ref.Blob()
	if !name.IsLiteral() {
		t.Fatal("MakeErr payload is not a literal")
	}
	if name.Size() != 30 {
		t.Errorf("payload size = %d, want 30", name.Size())
	}
	if got := string(name.Literal()); got != message[:30] {
		t.Errorf("payload = %q, want %q", got, message[:30])
	}
}

func TestAsFailure(t *testing.T) {
	if object.AsFailure(nil) != nil {
		t.Error("AsFailure(nil) is not nil")
	}

	cause := errors.New("disk on fire")
	failure := object.AsFailure(fmt.Errorf("loading: %w", cause))
	if !errors.Is(failure, cause) {
		t.Error("failure does not unwrap to its cause")
	}
	if failure.Error() != "loading: disk on fire" {
		t.Errorf("Error() = %q", failure.Error())
	}

	original := object.NewFailure("boom")
	wrapped := fmt.Errorf("context: %w", original)
	if object.AsFailure(wrapped) != original {
		t.Error("AsFailure did not return the wrapped failure")
	}
}

func TestTreeEqPropagation(t *testing.T) {
	ctx := context.Background()
	backend := objstore.NewMemory()

	a := literalRef(t, "a")
	b := literalRef(t, "b")

	eqTree, err := object.CreateTree(ctx, backend, []object.Handle{a, b}, false)
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	if !eqTree.IsEq() {
		t.Error("tree of literals is not eq")
	}

	spec, err := object.CreateTree(ctx, backend, []object.Handle{a}, false)
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	thunk := object.FromThunk(object.Select(spec))
	mixed, err := object.CreateTree(ctx, backend, []object.Handle{a, thunk}, false)
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	if mixed.IsEq() {
		t.Error("tree containing a thunk is eq")
	}
	if mixed.Equal(mixed) {
		t.Error("non-eq tree equal to itself")
	}
}

func TestTreeEqualityRespectsTag(t *testing.T) {
	ctx := context.Background()
	backend := objstore.NewMemory()

	elements := []object.Handle{literalRef(t, "x")}
	plain, err := object.CreateTree(ctx, backend, elements, false)
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	tagged := plain.WithTag(true)

	if plain.Pointer() != tagged.Pointer() {
		t.Error("tag changed the pointer")
	}
	if plain.Equal(tagged) {
		t.Error("tagged and untagged names compare equal")
	}
	if !tagged.Equal(tagged.Relax()) {
		t.Error("Relax changed the name")
	}
	if !tagged.Relax().Tagged() {
		t.Error("Relax dropped the tag")
	}
}

func TestTreeFootprint(t *testing.T) {
	empty := object.TreeFootprint[object.Handle](nil)
	if empty != 0 {
		t.Errorf("empty footprint = %d, want 0", empty)
	}

	elements := make([]object.Handle, 2049)
	for i := range elements {
		elements[i] = literalRef(t, "")
	}
	// 2049 handles of 32 bytes spill into a second page.
	if got := object.TreeFootprint(elements); got != 2 {
		t.Errorf("footprint = %d, want 2", got)
	}

	huge := object.FromData(object.ObjectData(object.BlobObject[object.Handle](namedBlobOfSize(t, math.MaxUint64))))
	saturated := object.TreeFootprint([]object.Handle{huge, huge, huge})
	if saturated != math.MaxUint32 {
		t.Errorf("footprint = %d, want saturation at %d", saturated, uint32(math.MaxUint32))
	}

	// References contribute no footprint; their content is not resident.
	lowered := object.FromData(object.RefData[object.Handle](object.BlobRef(namedBlobOfSize(t, math.MaxUint64))))
	if got := object.TreeFootprint([]object.Handle{lowered}); got != 1 {
		t.Errorf("footprint of one reference = %d, want 1", got)
	}
}

func TestLowerLiftRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := objstore.NewMemory()

	content := bytes.Repeat([]byte("fix"), 100)
	blob, err := object.CreateBlob(ctx, backend, content)
	if err != nil {
		t.Fatalf("CreateBlob: %v", err)
	}
	blobObject := object.BlobObject[object.Handle](blob)

	lifted, err := blobObject.Lower().Lift(ctx, backend)
	if err != nil {
		t.Fatalf("Lift blob: %v", err)
	}
	if !lifted.Blob().Equal(blob) {
		t.Errorf("lifted blob %s, want %s", lifted.Blob(), blob)
	}

	tree, err := object.CreateTree(ctx, backend, []object.Handle{
		literalRef(t, "one"),
		object.FromData(object.ObjectData(blobObject)),
	}, true)
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	treeObject := object.TreeObject(tree)
	liftedTree, err := treeObject.Lower().Lift(ctx, backend)
	if err != nil {
		t.Fatalf("Lift tree: %v", err)
	}
	if !liftedTree.Tree().Equal(tree) {
		t.Errorf("lifted tree %s, want %s", liftedTree.Tree(), tree)
	}
	if !liftedTree.Tree().Tagged() {
		t.Error("Lift dropped the tag")
	}
	if treeObject.IsEq() != treeObject.Lower().IsEq() {
		t.Error("object and reference disagree on eq")
	}
}

func TestParseRefKeepsTreeMetadata(t *testing.T) {
	ctx := context.Background()
	backend := objstore.NewMemory()

	leaves := []object.Handle{literalRef(t, "a"), literalRef(t, "b"), literalRef(t, "c"), literalRef(t, "d"), literalRef(t, "e")}
	tree, err := object.CreateTree(ctx, backend, leaves, true)
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	ref, err := object.ParseRef(tree.String())
	if err != nil {
		t.Fatalf("ParseRef(%q): %v", tree.String(), err)
	}
	parsed := ref.Tree()
	if ref.Kind() != object.TreeKind || !parsed.Tagged() {
		t.Fatalf("ParseRef(%q) = %s, want a tagged tree reference", tree.String(), ref)
	}
	if !parsed.Equal(tree) || parsed.IsEq() != tree.IsEq() || parsed.Footprint() != tree.Footprint() {
		t.Errorf("parsed %s (eq=%v footprint=%d), want %s (eq=%v footprint=%d)",
			parsed, parsed.IsEq(), parsed.Footprint(), tree, tree.IsEq(), tree.Footprint())
	}

	// A parsed name embeds exactly like the original.
	viaOriginal, err := object.CreateTree(ctx, backend, []object.Handle{object.FromData(object.RefData[object.Handle](object.TreeRef(tree)))}, false)
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	viaParsed, err := object.CreateTree(ctx, backend, []object.Handle{object.FromData(object.RefData[object.Handle](ref))}, false)
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	if !viaParsed.Equal(viaOriginal) || viaParsed.Pointer() != viaOriginal.Pointer() {
		t.Errorf("outer tree via parsed name = %s, want %s", viaParsed, viaOriginal)
	}

	lifted, err := ref.Lift(ctx, backend)
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	if !lifted.Tree().Equal(tree) {
		t.Errorf("lifted %s, want %s", lifted.Tree(), tree)
	}

	// Text with a wrong footprint parses but does not lift.
	misstated := fmt.Sprintf("tree:%s:%d:%d:eq:tagged", tree.Pointer(), tree.Size(), tree.Footprint()+1)
	wrong, err := object.ParseRef(misstated)
	if err != nil {
		t.Fatalf("ParseRef(%q): %v", misstated, err)
	}
	if _, err := wrong.Lift(ctx, backend); err == nil {
		t.Errorf("Lift(%s) succeeded with wrong metadata", wrong)
	}

	blob := object.NameBlob(bytes.Repeat([]byte("b"), 40))
	blobRef, err := object.ParseRef(blob.String())
	if err != nil {
		t.Fatalf("ParseRef(%q): %v", blob.String(), err)
	}
	if !blobRef.Blob().Equal(blob) {
		t.Errorf("ParseRef blob = %s, want %s", blobRef, blob)
	}

	zeros := strings.Repeat("0", 48)
	for _, bad := range []string{
		"",
		"tree:zz:1:1",
		"tree:" + zeros,
		"tree:" + zeros + ":1",
		"tree:" + zeros + ":5:0:eq",
		"tree:" + zeros + ":0:0",
		"blob:nope",
	} {
		if _, err := object.ParseRef(bad); err == nil {
			t.Errorf("ParseRef(%q) succeeded, want error", bad)
		}
	}
}

func TestLiftMissingObject(t *testing.T) {
	ctx := context.Background()
	backend := objstore.NewMemory()

	missing := object.BlobRef(object.NameBlob(bytes.Repeat([]byte{1}, 64)))
	if _, err := missing.Lift(ctx, backend); err == nil {
		t.Error("lifting an absent blob succeeded")
	}
}

func TestDataEqualityIgnoresAccessibility(t *testing.T) {
	name := object.NameBlob([]byte("same"))
	asObject := object.ObjectData(object.BlobObject[object.Handle](name))
	asRef := object.RefData[object.Handle](object.BlobRef(name))
	if !asObject.Equal(asRef) {
		t.Error("object and reference of the same blob compare unequal")
	}
	if !object.FromData(asObject).Equal(object.FromData(asRef)) {
		t.Error("handles of equal data compare unequal")
	}
}

func TestThunksAreNeverEqual(t *testing.T) {
	thunk := object.Identify(object.MakeErr("x"))
	handle := object.FromThunk(thunk)
	if handle.IsEq() {
		t.Error("thunk handle is eq")
	}
	if handle.Equal(handle) {
		t.Error("thunk handle equal to itself")
	}
	encode := object.FromEncode(object.Encode{Thunk: thunk, Access: object.Lift})
	if encode.Equal(encode) {
		t.Error("encode handle equal to itself")
	}
}

func TestValueFromHandle(t *testing.T) {
	data := literalRef(t, "v")
	value, err := object.ValueFromHandle(data)
	if err != nil {
		t.Fatalf("ValueFromHandle(data): %v", err)
	}
	if !value.Relax().Equal(data) {
		t.Error("value does not relax back to its handle")
	}

	thunk := object.Identify(object.MakeErr("t"))
	deferred, err := object.ValueFromHandle(object.FromThunk(thunk))
	if err != nil {
		t.Fatalf("ValueFromHandle(thunk): %v", err)
	}
	if !deferred.IsThunk() {
		t.Error("thunk handle did not become a deferred value")
	}

	if _, err := object.ValueFromHandle(object.FromEncode(object.Encode{Thunk: thunk})); err == nil {
		t.Error("ValueFromHandle accepted an encode")
	}
}

func TestTryMapPreservesTagAndOrder(t *testing.T) {
	ctx := context.Background()
	backend := objstore.NewMemory()

	elements := []object.Handle{literalRef(t, "a"), literalRef(t, "b"), literalRef(t, "c")}
	for _, tag := range []bool{false, true} {
		tree, err := object.CreateTree(ctx, backend, elements, tag)
		if err != nil {
			t.Fatalf("CreateTree: %v", err)
		}
		upper, err := object.TryMap(ctx, backend, tree, func(ctx context.Context, h object.Handle) (object.Value, error) {
			data, _ := h.AsData()
			content := data.Lower().Blob().Literal()
			name := object.NameBlob(bytes.ToUpper(content))
			return object.ValueOf(object.RefData[object.Value](object.BlobRef(name))), nil
		})
		if err != nil {
			t.Fatalf("TryMap: %v", err)
		}
		if upper.Tagged() != tag {
			t.Errorf("TryMap tag = %v, want %v", upper.Tagged(), tag)
		}
		loaded, err := object.LoadTree(ctx, backend, upper)
		if err != nil {
			t.Fatalf("LoadTree: %v", err)
		}
		var got []string
		for _, value := range loaded {
			data, _ := value.AsData()
			got = append(got, string(data.Lower().Blob().Literal()))
		}
		if strings.Join(got, "") != "ABC" {
			t.Errorf("mapped elements = %v, want [A B C]", got)
		}
	}
}

func TestCreateTreeOfValuesNamesLikeHandles(t *testing.T) {
	ctx := context.Background()
	backend := objstore.NewMemory()

	inner, err := object.CreateTree(ctx, backend, []object.Handle{literalRef(t, "x")}, false)
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	values := []object.Value{
		object.ValueOf(object.RefData[object.Value](object.BlobRef(object.NameBlob([]byte("a"))))),
		object.DeferredValue(object.Select(inner)),
		object.ValueOf(object.ObjectData(object.BlobObject[object.Value](object.Uint64Blob(9)))),
	}
	handles := make([]object.Handle, len(values))
	for i, value := range values {
		handles[i] = value.Relax()
	}

	fromValues, err := object.CreateTree(ctx, backend, values, true)
	if err != nil {
		t.Fatalf("CreateTree(values): %v", err)
	}
	fromHandles, err := object.CreateTree(ctx, backend, handles, true)
	if err != nil {
		t.Fatalf("CreateTree(handles): %v", err)
	}
	if fromValues.Pointer() != fromHandles.Pointer() || fromValues.Relax().Footprint() != fromHandles.Footprint() {
		t.Errorf("value tree %s differs from handle tree %s", fromValues, fromHandles)
	}
	if !fromValues.Tagged() {
		t.Error("value tree lost its tag")
	}
}

func TestTryMapShortCircuits(t *testing.T) {
	ctx := context.Background()
	backend := objstore.NewMemory()

	elements := []object.Handle{literalRef(t, "a"), literalRef(t, "b"), literalRef(t, "c")}
	tree, err := object.CreateTree(ctx, backend, elements, false)
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}

	calls := 0
	_, err = object.TryMap(ctx, backend, tree, func(ctx context.Context, h object.Handle) (object.Handle, error) {
		calls++
		if calls == 2 {
			return object.Handle{}, object.NewFailure("second element")
		}
		return h, nil
	})
	if err == nil || err.Error() != "second element" {
		t.Fatalf("TryMap error = %v, want second element", err)
	}
	if calls != 2 {
		t.Errorf("mapping function called %d times, want 2", calls)
	}
}

func TestTreeEncodingRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := objstore.NewMemory()

	inner, err := object.CreateTree(ctx, backend, []object.Handle{literalRef(t, "inner")}, true)
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	blob := object.NameBlob(bytes.Repeat([]byte{9}, 40))
	elements := []object.Handle{
		literalRef(t, ""),
		object.FromData(object.ObjectData(object.BlobObject[object.Handle](blob))),
		object.FromData(object.RefData[object.Handle](object.TreeRef(inner))),
		object.FromThunk(object.Apply(inner)),
		object.FromEncode(object.Encode{Thunk: object.Select(inner), Access: object.Lower}),
		object.FromEncode(object.Encode{Thunk: object.Identify(object.MakeErr("id")), Access: object.Lift}),
	}

	encoded, err := object.EncodeTree(elements)
	if err != nil {
		t.Fatalf("EncodeTree: %v", err)
	}
	decoded, err := object.DecodeTree(encoded)
	if err != nil {
		t.Fatalf("DecodeTree: %v", err)
	}
	if len(decoded) != len(elements) {
		t.Fatalf("decoded %d elements, want %d", len(decoded), len(elements))
	}
	reencoded, err := object.EncodeTree(decoded)
	if err != nil {
		t.Fatalf("EncodeTree: %v", err)
	}
	if !bytes.Equal(encoded, reencoded) {
		t.Error("encoding is not stable across a decode")
	}
	for i := range elements {
		if decoded[i].Kind() != elements[i].Kind() {
			t.Errorf("element %d kind = %s, want %s", i, decoded[i].Kind(), elements[i].Kind())
		}
	}
	encode, ok := decoded[4].AsEncode()
	if !ok || encode.Access != object.Lower || encode.Thunk.Kind() != object.Selection {
		t.Errorf("element 4 = %s, want a lowering selection encode", decoded[4])
	}
	if !encode.Thunk.Tree().Tagged() {
		t.Error("thunk tree lost its tag")
	}
}

func TestNameTreeIsDeterministic(t *testing.T) {
	elements := []object.Handle{literalRef(t, "a"), literalRef(t, "b")}
	first, err := object.NameTree(elements)
	if err != nil {
		t.Fatalf("NameTree: %v", err)
	}
	second, err := object.NameTree([]object.Handle{literalRef(t, "a"), literalRef(t, "b")})
	if err != nil {
		t.Fatalf("NameTree: %v", err)
	}
	if !first.Equal(second) {
		t.Error("equal content named differently")
	}
	reversed, err := object.NameTree([]object.Handle{literalRef(t, "b"), literalRef(t, "a")})
	if err != nil {
		t.Fatalf("NameTree: %v", err)
	}
	if first.Equal(reversed) {
		t.Error("element order did not affect the name")
	}
	empty, err := object.NameTree(nil)
	if err != nil {
		t.Fatalf("NameTree(nil): %v", err)
	}
	if empty.Size() != 0 || !empty.IsEq() {
		t.Errorf("empty tree = %s, want size 0 and eq", empty)
	}
}

func TestParseAccess(t *testing.T) {
	for _, access := range []object.Access{object.Keep, object.Lift, object.Lower} {
		parsed, err := object.ParseAccess(access.String())
		if err != nil || parsed != access {
			t.Errorf("ParseAccess(%q) = %v, %v", access, parsed, err)
		}
	}
	if _, err := object.ParseAccess("sideways"); err == nil {
		t.Error("ParseAccess accepted an unknown mode")
	}
}
