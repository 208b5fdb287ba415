// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notation

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/fix/lib/apply"
	"github.com/bureau-foundation/fix/lib/object"
)

// primaryKeys are the keys that select a node form. Exactly one must
// be present in every object node.
var primaryKeys = []string{
	"blob", "hex", "u64", "file", "tree", "ref", "name",
	"identify", "select", "apply", "encode", "limits",
}

// secondaryKeys are the optional keys allowed next to each form.
var secondaryKeys = map[string][]string{
	"tree":   {"tag"},
	"apply":  {"limits"},
	"encode": {"access"},
}

// Parser turns JSONC documents into handles, storing every blob and
// tree it builds.
type Parser struct {
	// Backend receives the objects built while parsing.
	Backend object.Backend

	// Limits are placed at the head of every application that does
	// not name its own.
	Limits apply.Limits

	// Dir resolves relative paths of "file" nodes. Empty means the
	// working directory.
	Dir string
}

// Parse parses one JSONC document.
func (p *Parser) Parse(ctx context.Context, data []byte) (object.Handle, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()

	var document any
	if err := decoder.Decode(&document); err != nil {
		return object.Handle{}, fmt.Errorf("parsing expression: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return object.Handle{}, errors.New("parsing expression: trailing content after the document")
	}
	return p.node(ctx, document, "$")
}

// ReadFile parses the document at path. Relative "file" nodes resolve
// against the document's directory unless the parser sets Dir.
func (p *Parser) ReadFile(ctx context.Context, path string) (object.Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return object.Handle{}, fmt.Errorf("reading %s: %w", path, err)
	}
	parser := *p
	if parser.Dir == "" {
		parser.Dir = filepath.Dir(path)
	}
	handle, err := parser.Parse(ctx, data)
	if err != nil {
		return object.Handle{}, fmt.Errorf("%s: %w", path, err)
	}
	return handle, nil
}

func (p *Parser) node(ctx context.Context, node any, path string) (object.Handle, error) {
	switch node := node.(type) {
	case string:
		return p.blob(ctx, []byte(node))
	case json.Number:
		n, err := strconv.ParseUint(node.String(), 10, 64)
		if err != nil {
			return object.Handle{}, fmt.Errorf("%s: %s is not an unsigned 64-bit integer", path, node)
		}
		return accessibleBlob(object.Uint64Blob(n)), nil
	case map[string]any:
		return p.form(ctx, node, path)
	case []any:
		return object.Handle{}, fmt.Errorf(`%s: bare array; write {"tree": [...]}`, path)
	default:
		return object.Handle{}, fmt.Errorf("%s: unsupported JSON value %v", path, node)
	}
}

func (p *Parser) form(ctx context.Context, node map[string]any, path string) (object.Handle, error) {
	var forms []string
	for candidate := range node {
		if slices.Contains(primaryKeys, candidate) && !secondaryOf(node, candidate) {
			forms = append(forms, candidate)
		}
	}
	slices.Sort(forms)
	if len(forms) > 1 {
		return object.Handle{}, fmt.Errorf("%s: both %q and %q given", path, forms[0], forms[1])
	}
	var key string
	if len(forms) == 1 {
		key = forms[0]
	}
	if key == "" {
		return object.Handle{}, fmt.Errorf("%s: object has none of the keys %v", path, primaryKeys)
	}
	for candidate := range node {
		if candidate != key && !slices.Contains(secondaryKeys[key], candidate) {
			return object.Handle{}, fmt.Errorf("%s: unexpected key %q next to %q", path, candidate, key)
		}
	}
	value := node[key]
	path = path + "." + key

	switch key {
	case "blob":
		text, ok := value.(string)
		if !ok {
			return object.Handle{}, fmt.Errorf("%s: want a string", path)
		}
		return p.blob(ctx, []byte(text))

	case "hex":
		text, ok := value.(string)
		if !ok {
			return object.Handle{}, fmt.Errorf("%s: want a string", path)
		}
		content, err := hex.DecodeString(text)
		if err != nil {
			return object.Handle{}, fmt.Errorf("%s: %w", path, err)
		}
		return p.blob(ctx, content)

	case "u64":
		n, err := unsigned(value, 64, path)
		if err != nil {
			return object.Handle{}, err
		}
		return accessibleBlob(object.Uint64Blob(n)), nil

	case "file":
		name, ok := value.(string)
		if !ok {
			return object.Handle{}, fmt.Errorf("%s: want a path", path)
		}
		if !filepath.IsAbs(name) && p.Dir != "" {
			name = filepath.Join(p.Dir, name)
		}
		content, err := os.ReadFile(name)
		if err != nil {
			return object.Handle{}, fmt.Errorf("%s: %w", path, err)
		}
		return p.blob(ctx, content)

	case "tree":
		elements, err := p.list(ctx, value, path)
		if err != nil {
			return object.Handle{}, err
		}
		tag, _ := node["tag"].(bool)
		name, err := object.CreateTree(ctx, p.Backend, elements, tag)
		if err != nil {
			return object.Handle{}, fmt.Errorf("%s: %w", path, err)
		}
		return object.FromData(object.ObjectData(object.TreeObject(name))), nil

	case "ref":
		data, err := p.data(ctx, value, path)
		if err != nil {
			return object.Handle{}, err
		}
		return object.FromData(object.RefData[object.Handle](data.Lower())), nil

	case "name":
		text, ok := value.(string)
		if !ok {
			return object.Handle{}, fmt.Errorf("%s: want a name", path)
		}
		ref, err := object.ParseRef(text)
		if err != nil {
			return object.Handle{}, fmt.Errorf("%s: %w", path, err)
		}
		return object.FromData(object.RefData[object.Handle](ref)), nil

	case "identify":
		data, err := p.data(ctx, value, path)
		if err != nil {
			return object.Handle{}, err
		}
		return object.FromThunk(object.Identify(data)), nil

	case "select":
		elements, err := p.list(ctx, value, path)
		if err != nil {
			return object.Handle{}, err
		}
		spec, err := object.CreateTree(ctx, p.Backend, elements, false)
		if err != nil {
			return object.Handle{}, fmt.Errorf("%s: %w", path, err)
		}
		return object.FromThunk(object.Select(spec)), nil

	case "apply":
		elements, err := p.list(ctx, value, path)
		if err != nil {
			return object.Handle{}, err
		}
		if len(elements) == 0 {
			return object.Handle{}, fmt.Errorf("%s: want a procedure", path)
		}
		limits := p.Limits
		if raw, ok := node["limits"]; ok {
			if limits, err = parseLimits(raw, path+".limits"); err != nil {
				return object.Handle{}, err
			}
		}
		combination, err := object.CreateTree(ctx, p.Backend, append([]object.Handle{limits.Handle()}, elements...), false)
		if err != nil {
			return object.Handle{}, fmt.Errorf("%s: %w", path, err)
		}
		return object.FromThunk(object.Apply(combination)), nil

	case "encode":
		inner, err := p.node(ctx, value, path)
		if err != nil {
			return object.Handle{}, err
		}
		access := object.Keep
		if raw, ok := node["access"]; ok {
			text, ok := raw.(string)
			if !ok {
				return object.Handle{}, fmt.Errorf("%s: access must be a string", path)
			}
			if access, err = object.ParseAccess(text); err != nil {
				return object.Handle{}, fmt.Errorf("%s: %w", path, err)
			}
		}
		return object.FromEncode(object.Encode{Thunk: thunkOf(inner), Access: access}), nil

	default:
		limits, err := parseLimits(value, path)
		if err != nil {
			return object.Handle{}, err
		}
		return limits.Handle(), nil
	}
}

// secondaryOf reports whether key is an option of another form present
// in node, as "limits" is next to "apply".
func secondaryOf(node map[string]any, key string) bool {
	for form, options := range secondaryKeys {
		if _, ok := node[form]; ok && form != key && slices.Contains(options, key) {
			return true
		}
	}
	return false
}

func (p *Parser) list(ctx context.Context, value any, path string) ([]object.Handle, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: want an array", path)
	}
	elements := make([]object.Handle, len(items))
	for i, item := range items {
		element, err := p.node(ctx, item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		elements[i] = element
	}
	return elements, nil
}

func (p *Parser) data(ctx context.Context, value any, path string) (object.Data[object.Handle], error) {
	handle, err := p.node(ctx, value, path)
	if err != nil {
		return object.Data[object.Handle]{}, err
	}
	data, ok := handle.AsData()
	if !ok {
		return object.Data[object.Handle]{}, fmt.Errorf("%s: want data, got %s", path, handle.Kind())
	}
	return data, nil
}

func (p *Parser) blob(ctx context.Context, content []byte) (object.Handle, error) {
	name, err := object.CreateBlob(ctx, p.Backend, content)
	if err != nil {
		return object.Handle{}, fmt.Errorf("storing blob: %w", err)
	}
	return accessibleBlob(name), nil
}

// thunkOf returns the thunk an Encode node should force. Data is
// identified.
func thunkOf(h object.Handle) object.Thunk {
	switch h.Kind() {
	case object.ThunkHandle:
		thunk, _ := h.AsThunk()
		return thunk
	case object.EncodeHandle:
		encode, _ := h.AsEncode()
		return encode.Thunk
	default:
		data, _ := h.AsData()
		return object.Identify(data)
	}
}

func parseLimits(value any, path string) (apply.Limits, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return apply.Limits{}, fmt.Errorf("%s: want an object", path)
	}
	var limits apply.Limits
	for key, raw := range fields {
		switch key {
		case "footprint":
			n, err := unsigned(raw, 32, path+".footprint")
			if err != nil {
				return apply.Limits{}, err
			}
			limits.Footprint = uint32(n)
		case "steps":
			n, err := unsigned(raw, 64, path+".steps")
			if err != nil {
				return apply.Limits{}, err
			}
			limits.Steps = n
		default:
			return apply.Limits{}, fmt.Errorf("%s: unknown limit %q", path, key)
		}
	}
	return limits, nil
}

func unsigned(value any, bits int, path string) (uint64, error) {
	number, ok := value.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%s: want a number", path)
	}
	n, err := strconv.ParseUint(number.String(), 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%s: %s is not an unsigned %d-bit integer", path, number, bits)
	}
	return n, nil
}

func accessibleBlob(name object.BlobName) object.Handle {
	return object.FromData(object.ObjectData(object.BlobObject[object.Handle](name)))
}
