// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/fix/lib/apply"
	"github.com/bureau-foundation/fix/lib/object"
	"github.com/bureau-foundation/fix/lib/selection"
)

// Selector resolves selection thunks.
type Selector interface {
	Select(ctx context.Context, spec object.TreeName[object.Handle]) (object.RuntimeValue, error)
}

// Applier runs evaluated combinations.
type Applier interface {
	Apply(ctx context.Context, combination object.TreeName[object.Value]) (object.RuntimeValue, error)
}

// Config holds the collaborators of an [Engine].
type Config struct {
	// Backend stores every object the engine reads or creates.
	Backend object.Backend

	// Selector resolves selections. Nil uses [selection.New] on
	// Backend.
	Selector Selector

	// Applier runs applications. Nil uses [apply.New] on Backend with
	// the built-in procedures.
	Applier Applier

	// Logger receives debug records for failures. Nil discards.
	Logger *slog.Logger
}

// Engine evaluates handles. It holds no mutable state of its own and
// is safe for concurrent use when its collaborators are.
type Engine struct {
	backend  object.Backend
	selector Selector
	applier  Applier
	logger   *slog.Logger
}

// New returns an engine for config.
func New(config Config) (*Engine, error) {
	if config.Backend == nil {
		return nil, errors.New("eval: backend is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	selector := config.Selector
	if selector == nil {
		selector = selection.New(config.Backend, logger)
	}
	applier := config.Applier
	if applier == nil {
		applier = apply.New(config.Backend, nil, logger)
	}
	return &Engine{
		backend:  config.Backend,
		selector: selector,
		applier:  applier,
		logger:   logger,
	}, nil
}

// Think takes one reduction step of thunk.
func (e *Engine) Think(ctx context.Context, thunk object.Thunk) (object.RuntimeValue, error) {
	result, err := e.think(ctx, thunk)
	if err != nil {
		return object.RuntimeValue{}, e.fail("think", thunk, err)
	}
	return result, nil
}

// Execute forces the Encode's thunk to data and applies its
// accessibility request: Keep returns the data as produced, Lift makes
// it accessible and Lower makes it a reference.
func (e *Engine) Execute(ctx context.Context, encode object.Encode) (object.Data[object.Handle], error) {
	data, err := e.execute(ctx, encode)
	if err != nil {
		return object.Data[object.Handle]{}, e.fail("execute", encode.Thunk, err)
	}
	return data, nil
}

// Eval reduces handle to a value.
func (e *Engine) Eval(ctx context.Context, handle object.Handle) (object.Value, error) {
	value, err := e.eval(ctx, handle)
	if err != nil {
		return object.Value{}, e.fail("eval", handle, err)
	}
	return value, nil
}

func (e *Engine) think(ctx context.Context, thunk object.Thunk) (object.RuntimeValue, error) {
	switch thunk.Kind() {
	case object.Identification:
		return object.RuntimeData(thunk.Identification()), nil
	case object.Selection:
		return e.selector.Select(ctx, thunk.Tree())
	case object.Application:
		combination, err := object.TryMap(ctx, e.backend, thunk.Tree(), e.Eval)
		if err != nil {
			return object.RuntimeValue{}, err
		}
		return e.applier.Apply(ctx, combination)
	default:
		return object.RuntimeValue{}, fmt.Errorf("unknown thunk kind %s", thunk.Kind())
	}
}

func (e *Engine) execute(ctx context.Context, encode object.Encode) (object.Data[object.Handle], error) {
	current := encode.Thunk
	for {
		result, err := e.think(ctx, current)
		if err != nil {
			return object.Data[object.Handle]{}, err
		}
		if next, ok := result.AsThunk(); ok {
			current = next
			continue
		}
		data, _ := result.AsData()
		switch encode.Access {
		case object.Lift:
			lifted, err := data.Lift(ctx, e.backend)
			if err != nil {
				return object.Data[object.Handle]{}, err
			}
			return object.ObjectData(lifted), nil
		case object.Lower:
			return object.RefData[object.Handle](data.Lower()), nil
		default:
			return data, nil
		}
	}
}

// fail converts err to a failure and logs its cause.
func (e *Engine) fail(operation string, subject fmt.Stringer, err error) *object.Failure {
	failure := object.AsFailure(err)
	if cause := failure.Unwrap(); cause != nil {
		e.logger.Debug("evaluation failed",
			"operation", operation,
			"subject", subject,
			"failure", failure.Message(),
			"error", cause,
		)
	}
	return failure
}
