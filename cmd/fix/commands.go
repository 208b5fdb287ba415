// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fix/lib/apply"
	"github.com/bureau-foundation/fix/lib/codec"
	"github.com/bureau-foundation/fix/lib/eval"
	"github.com/bureau-foundation/fix/lib/notation"
	"github.com/bureau-foundation/fix/lib/object"
)

func runEval(ctx context.Context, env *environment, args []string) error {
	var footprint uint32
	var steps uint64
	var nameOnly bool

	flagSet := pflag.NewFlagSet("eval", pflag.ContinueOnError)
	flagSet.SetOutput(env.stderr)
	flagSet.Uint32Var(&footprint, "footprint", env.config.Limits.Footprint, "page budget for each application (0 = unlimited)")
	flagSet.Uint64Var(&steps, "steps", env.config.Limits.Steps, "Starlark step budget for each application (0 = unlimited)")
	flagSet.BoolVar(&nameOnly, "name", false, "print only the name of the result")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: fix eval [flags] FILE")
	}

	parser := &notation.Parser{
		Backend: env.store,
		Limits:  apply.Limits{Footprint: footprint, Steps: steps},
	}
	expression, err := readExpression(ctx, parser, flagSet.Arg(0))
	if err != nil {
		return err
	}

	engine, err := eval.New(eval.Config{Backend: env.store, Logger: env.logger})
	if err != nil {
		return err
	}
	value, err := engine.Eval(ctx, expression)
	if err != nil {
		var failure *object.Failure
		if errors.As(err, &failure) {
			return fmt.Errorf("evaluation failed: %s", failure.Message())
		}
		return err
	}

	if nameOnly {
		_, err := fmt.Fprintln(env.stdout, value)
		return err
	}
	rendered, err := notation.Render(ctx, env.store, value.Relax())
	if err != nil {
		return fmt.Errorf("rendering result: %w", err)
	}
	_, err = fmt.Fprintf(env.stdout, "%s\n", rendered)
	return err
}

func runPut(ctx context.Context, env *environment, args []string) error {
	var expression bool

	flagSet := pflag.NewFlagSet("put", pflag.ContinueOnError)
	flagSet.SetOutput(env.stderr)
	flagSet.BoolVar(&expression, "expression", false, "parse FILE as a JSONC expression and store the result")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: fix put [--expression] FILE")
	}
	path := flagSet.Arg(0)

	if expression {
		parser := &notation.Parser{
			Backend: env.store,
			Limits:  apply.Limits{Footprint: env.config.Limits.Footprint, Steps: env.config.Limits.Steps},
		}
		handle, err := readExpression(ctx, parser, path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(env.stdout, handle)
		return err
	}

	content, err := readInput(path)
	if err != nil {
		return err
	}
	name, err := object.CreateBlob(ctx, env.store, content)
	if err != nil {
		return fmt.Errorf("storing %s: %w", path, err)
	}
	env.logger.Debug("stored blob", "name", name, "size", name.Size())
	_, err = fmt.Fprintln(env.stdout, name)
	return err
}

func runCat(ctx context.Context, env *environment, args []string) error {
	var diagnostic bool

	flagSet := pflag.NewFlagSet("cat", pflag.ContinueOnError)
	flagSet.SetOutput(env.stderr)
	flagSet.BoolVar(&diagnostic, "cbor", false, "print a tree's canonical encoding in CBOR diagnostic notation")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: fix cat [--cbor] NAME")
	}
	ref, err := object.ParseRef(flagSet.Arg(0))
	if err != nil {
		return err
	}
	lifted, err := ref.Lift(ctx, env.store)
	if err != nil {
		return fmt.Errorf("loading %s: %w", flagSet.Arg(0), err)
	}

	if lifted.Kind() == object.BlobKind {
		if diagnostic {
			return errors.New("--cbor applies to trees only")
		}
		content, err := object.LoadBlob(ctx, env.store, lifted.Blob())
		if err != nil {
			return err
		}
		_, err = env.stdout.Write(content)
		return err
	}

	if diagnostic {
		elements, err := object.LoadTree(ctx, env.store, lifted.Tree())
		if err != nil {
			return err
		}
		encoded, err := object.EncodeTree(elements)
		if err != nil {
			return err
		}
		text, err := codec.Diagnose(encoded)
		if err != nil {
			return fmt.Errorf("diagnosing %s: %w", flagSet.Arg(0), err)
		}
		_, err = fmt.Fprintln(env.stdout, text)
		return err
	}
	rendered, err := notation.Render(ctx, env.store, object.FromData(object.ObjectData(lifted)))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(env.stdout, "%s\n", rendered)
	return err
}

func runProcedures(ctx context.Context, env *environment, args []string) error {
	if len(args) != 0 {
		return errors.New("usage: fix procedures")
	}
	for _, name := range apply.NewRegistry().Names() {
		if _, err := fmt.Fprintln(env.stdout, name); err != nil {
			return err
		}
	}
	return nil
}

// readExpression parses a JSONC file, or standard input for "-".
func readExpression(ctx context.Context, parser *notation.Parser, path string) (object.Handle, error) {
	if path != "-" {
		return parser.ReadFile(ctx, path)
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return object.Handle{}, fmt.Errorf("reading standard input: %w", err)
	}
	return parser.Parse(ctx, data)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
