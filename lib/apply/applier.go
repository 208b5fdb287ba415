// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apply

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/fix/lib/object"
)

// starlarkMagic marks procedure content as a Starlark program.
var starlarkMagic = []byte("#!starlark")

// Applier dispatches evaluated combinations to procedures.
type Applier struct {
	backend  object.Backend
	registry *Registry
	logger   *slog.Logger
}

// New returns an applier. A nil registry gets the built-ins; a nil
// logger discards.
func New(backend object.Backend, registry *Registry, logger *slog.Logger) *Applier {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Applier{backend: backend, registry: registry, logger: logger}
}

// Registry returns the procedures this applier dispatches to.
func (a *Applier) Registry() *Registry { return a.registry }

// Apply runs the procedure named by combination on its arguments.
func (a *Applier) Apply(ctx context.Context, combination object.TreeName[object.Value]) (object.RuntimeValue, error) {
	if err := ctx.Err(); err != nil {
		return object.RuntimeValue{}, fmt.Errorf("apply: %w", err)
	}

	elements, err := object.LoadTree(ctx, a.backend, combination)
	if err != nil {
		return object.RuntimeValue{}, err
	}
	if len(elements) < 2 {
		return object.RuntimeValue{}, object.NewFailure("apply: combination too short")
	}
	limits, err := ParseLimits(elements[0].Relax())
	if err != nil {
		return object.RuntimeValue{}, err
	}
	if !limits.allowsFootprint(combination.Footprint()) {
		a.logger.Debug("input exceeds footprint budget",
			"combination", combination,
			"footprint", combination.Footprint(),
			"budget", limits.Footprint,
		)
		return object.RuntimeValue{}, object.NewFailure(ErrLimitsExceeded)
	}

	call := &Call{
		Backend:     a.backend,
		Limits:      limits,
		Combination: combination,
		Procedure:   elements[1],
		Args:        elements[2:],
	}
	procedure, name, err := a.resolve(ctx, elements[1])
	if err != nil {
		return object.RuntimeValue{}, err
	}

	a.logger.Debug("applying", "procedure", name, "args", len(call.Args))
	result, err := procedure(ctx, call)
	if err != nil {
		return object.RuntimeValue{}, err
	}

	if data, ok := result.AsData(); ok && !limits.allowsFootprint(data.Footprint()) {
		a.logger.Debug("result exceeds footprint budget",
			"procedure", name,
			"footprint", data.Footprint(),
			"budget", limits.Footprint,
		)
		return object.RuntimeValue{}, object.NewFailure(ErrLimitsExceeded)
	}
	return result, nil
}

// resolve turns the procedure element into something callable.
func (a *Applier) resolve(ctx context.Context, element object.Value) (Procedure, string, error) {
	data, ok := element.AsData()
	if !ok || data.Kind() != object.BlobKind {
		return nil, "", object.NewFailure("apply: procedure is not a blob")
	}
	name := data.Lower().Blob()
	content, err := object.LoadBlob(ctx, a.backend, name)
	if err != nil {
		return nil, "", err
	}
	if bytes.HasPrefix(content, starlarkMagic) {
		return starlarkProcedure(content, a.logger), "starlark:" + name.String(), nil
	}
	procedure, ok := a.registry.Lookup(string(content))
	if !ok {
		return nil, "", object.Failf("apply: unknown %q", truncateName(content))
	}
	return procedure, string(content), nil
}

// truncateName shortens a procedure name for a failure message.
func truncateName(content []byte) string {
	if len(content) > 12 {
		return string(content[:12])
	}
	return string(content)
}
