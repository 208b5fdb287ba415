// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notation_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/fix/lib/apply"
	"github.com/bureau-foundation/fix/lib/eval"
	"github.com/bureau-foundation/fix/lib/notation"
	"github.com/bureau-foundation/fix/lib/object"
	"github.com/bureau-foundation/fix/lib/objstore"
)

func parse(t *testing.T, parser *notation.Parser, document string) object.Handle {
	t.Helper()
	handle, err := parser.Parse(context.Background(), []byte(document))
	if err != nil {
		t.Fatalf("Parse(%s): %v", document, err)
	}
	return handle
}

func TestParseForms(t *testing.T) {
	parser := &notation.Parser{Backend: objstore.NewMemory()}

	tests := []struct {
		name       string
		document   string
		kind       object.HandleKind
		accessible bool
	}{
		{"string", `"hello"`, object.DataHandle, true},
		{"number", `42`, object.DataHandle, true},
		{"blob", `{"blob": "hello"}`, object.DataHandle, true},
		{"hex", `{"hex": "00ff"}`, object.DataHandle, true},
		{"u64", `{"u64": 7}`, object.DataHandle, true},
		{"tree", `{"tree": [1, "two"], "tag": true}`, object.DataHandle, true},
		{"ref", `{"ref": "hello"}`, object.DataHandle, false},
		{"limits", `{"limits": {"footprint": 10, "steps": 1000}}`, object.DataHandle, false},
		{"identify", `{"identify": "x"}`, object.ThunkHandle, false},
		{"select", `{"select": ["element", {"tree": [1]}, 0]}`, object.ThunkHandle, false},
		{"apply", `{"apply": ["add", 1, 2]}`, object.ThunkHandle, false},
		{"apply with limits", `{"apply": ["add", 1, 2], "limits": {"steps": 5}}`, object.ThunkHandle, false},
		{"encode", `{"encode": {"apply": ["add", 1]}, "access": "lift"}`, object.EncodeHandle, false},
		{"encode data", `{"encode": "x"}`, object.EncodeHandle, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			handle := parse(t, parser, test.document)
			if handle.Kind() != test.kind {
				t.Fatalf("kind = %s, want %s", handle.Kind(), test.kind)
			}
			if data, ok := handle.AsData(); ok && data.IsAccessible() != test.accessible {
				t.Errorf("accessible = %v, want %v", data.IsAccessible(), test.accessible)
			}
		})
	}
}

func TestParseJSONC(t *testing.T) {
	parser := &notation.Parser{Backend: objstore.NewMemory()}
	handle := parse(t, parser, `{
		// comments and trailing commas are allowed
		"tree": [
			1, /* inline */ 2,
		],
	}`)
	data, _ := handle.AsData()
	if size := data.Lower().Tree().Size(); size != 2 {
		t.Errorf("tree size = %d, want 2", size)
	}
}

func TestParseDefaultLimits(t *testing.T) {
	backend := objstore.NewMemory()
	parser := &notation.Parser{Backend: backend, Limits: apply.Limits{Footprint: 9, Steps: 99}}

	tests := []struct {
		document string
		want     apply.Limits
	}{
		{`{"apply": ["add", 1]}`, apply.Limits{Footprint: 9, Steps: 99}},
		{`{"apply": ["add", 1], "limits": {"steps": 5}}`, apply.Limits{Steps: 5}},
	}
	for _, test := range tests {
		thunk, _ := parse(t, parser, test.document).AsThunk()
		elements, err := object.LoadTree(context.Background(), backend, thunk.Tree())
		if err != nil {
			t.Fatalf("LoadTree: %v", err)
		}
		got, err := apply.ParseLimits(elements[0])
		if err != nil {
			t.Fatalf("ParseLimits: %v", err)
		}
		if got != test.want {
			t.Errorf("%s: limits = %+v, want %+v", test.document, got, test.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	parser := &notation.Parser{Backend: objstore.NewMemory()}
	tests := []struct {
		name     string
		document string
		want     string
	}{
		{"syntax", `{"blob": `, "parsing expression"},
		{"trailing", `1 2`, "trailing content"},
		{"bare array", `[1, 2]`, "bare array"},
		{"two forms", `{"hex": "00", "blob": "a"}`, `both "blob" and "hex"`},
		{"limits next to a form without it", `{"blob": "a", "limits": {}}`, `both "blob" and "limits"`},
		{"no form", `{"color": "red"}`, "none of the keys"},
		{"stray key", `{"blob": "a", "tag": true}`, "unexpected key"},
		{"negative", `-1`, "not an unsigned"},
		{"bad hex", `{"hex": "zz"}`, "$.hex"},
		{"identify thunk", `{"identify": {"apply": ["add"]}}`, "want data"},
		{"bad access", `{"encode": "x", "access": "sideways"}`, "unknown accessibility"},
		{"bad limit", `{"limits": {"memory": 1}}`, "unknown limit"},
		{"footprint overflow", `{"limits": {"footprint": 5000000000}}`, "32-bit"},
		{"bool", `true`, "unsupported"},
		{"nested path", `{"tree": [1, {"hex": 5}]}`, "$.tree[1].hex"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := parser.Parse(context.Background(), []byte(test.document))
			if err == nil {
				t.Fatalf("Parse(%s) succeeded, want error containing %q", test.document, test.want)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("Parse(%s) error = %q, want it to contain %q", test.document, err, test.want)
			}
		})
	}
}

func TestReadFileResolvesRelativeFiles(t *testing.T) {
	dir := t.TempDir()
	program := "#!starlark\ndef apply(a):\n    return u64(a) * 2\n"
	if err := os.WriteFile(filepath.Join(dir, "double.star"), []byte(program), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	expression := filepath.Join(dir, "double.jsonc")
	if err := os.WriteFile(expression, []byte(`{"encode": {"apply": [{"file": "double.star"}, 21]}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	backend := objstore.NewMemory()
	parser := &notation.Parser{Backend: backend}
	handle, err := parser.ReadFile(context.Background(), expression)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	engine, err := eval.New(eval.Config{Backend: backend})
	if err != nil {
		t.Fatalf("eval.New: %v", err)
	}
	value, err := engine.Eval(context.Background(), handle)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	data, _ := value.AsData()
	if n, err := object.BlobUint64(data.Lower().Blob()); err != nil || n != 42 {
		t.Errorf("result = %s, want 42", value)
	}
}

func TestNameFormEmbedsLikeRef(t *testing.T) {
	backend := objstore.NewMemory()
	parser := &notation.Parser{Backend: backend}

	inner := parse(t, parser, `{"tree": [1, 2, 3, 4, 5], "tag": true}`)
	data, _ := inner.AsData()
	name := data.Lower().Tree().String()

	viaRef := parse(t, parser, `{"tree": [{"ref": {"tree": [1, 2, 3, 4, 5], "tag": true}}]}`)
	viaName := parse(t, parser, `{"tree": [{"name": "`+name+`"}]}`)
	refData, _ := viaRef.AsData()
	nameData, _ := viaName.AsData()
	if !viaName.Equal(viaRef) || refData.Lower().Tree().Pointer() != nameData.Lower().Tree().Pointer() {
		t.Errorf("tree embedding %s = %s, want %s", name, viaName, viaRef)
	}
	if !nameData.IsEq() {
		t.Errorf("tree embedding %s is not eq", name)
	}
}

func TestRender(t *testing.T) {
	backend := objstore.NewMemory()
	parser := &notation.Parser{Backend: backend}
	long := strings.Repeat("z", 100)

	tests := []struct {
		name     string
		document string
		want     string
	}{
		{"text", `"hello"`, `"hello"`},
		{"integer", `{"u64": 5}`, `{"u64":5}`},
		{"hex", `{"hex": "00ff"}`, `{"hex":"00ff"}`},
		{"tree", `{"tree": ["a", 1], "tag": true}`, `{"tag":true,"tree":["a",{"u64":1}]}`},
		{"literal ref", `{"ref": "abc"}`, `{"ref":"abc"}`},
		{"encode", `{"encode": {"identify": "x"}, "access": "lower"}`, `{"access":"lower","encode":{"identify":"x"}}`},
		{"long text", `"` + long + `"`, `"` + long + `"`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			handle := parse(t, parser, test.document)
			rendered, err := notation.Render(context.Background(), backend, handle)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got := compact(t, rendered); got != test.want {
				t.Errorf("Render(%s) = %s, want %s", test.document, got, test.want)
			}
		})
	}
}

func TestRenderRoundTrip(t *testing.T) {
	backend := objstore.NewMemory()
	parser := &notation.Parser{Backend: backend}
	original := parse(t, parser, `{"tree": ["a", {"hex": "0102"}, {"tree": [7]}, {"ref": "r"}], "tag": true}`)

	rendered, err := notation.Render(context.Background(), backend, original)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	reparsed := parse(t, parser, string(rendered))
	if !reparsed.Equal(original) {
		t.Errorf("render round trip changed the tree:\n%s", rendered)
	}
}

func TestRenderNamesLargeAndInaccessible(t *testing.T) {
	backend := objstore.NewMemory()
	parser := &notation.Parser{Backend: backend}
	large := parse(t, parser, `"`+strings.Repeat("L", 64)+`"`)

	renderer := &notation.Renderer{Backend: backend, MaxInline: 32}
	rendered, err := renderer.Render(context.Background(), large)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(rendered), `"blob:`) {
		t.Errorf("large blob rendered inline: %s", rendered)
	}

	ref := parse(t, parser, `{"ref": {"tree": [1, 2]}}`)
	rendered, err = notation.Render(context.Background(), backend, ref)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, _ := ref.AsData()
	if want := data.Lower().Tree().String(); !strings.Contains(string(rendered), want) {
		t.Errorf("reference rendered as %s, want name %s", rendered, want)
	}
}

func compact(t *testing.T, rendered []byte) string {
	t.Helper()
	var node any
	if err := json.Unmarshal(rendered, &node); err != nil {
		t.Fatalf("rendered output is not JSON: %v\n%s", err, rendered)
	}
	out, err := json.Marshal(node)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return string(out)
}
