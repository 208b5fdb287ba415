// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command fix evaluates Fix expressions against a content-addressed
// object store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fix/lib/config"
	"github.com/bureau-foundation/fix/lib/logging"
	"github.com/bureau-foundation/fix/lib/objstore"
	"github.com/bureau-foundation/fix/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// environment is what every subcommand works with.
type environment struct {
	config *config.Config
	store  objstore.Store
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, env *environment, args []string) error
}

var commands = map[string]command{
	"eval":       {"eval [flags] FILE", "evaluate a JSONC expression and print the result", runEval},
	"put":        {"put [flags] FILE", "store a file (or an expression) and print its name", runPut},
	"cat":        {"cat [--cbor] NAME", "print a stored blob, or render a stored tree", runCat},
	"procedures": {"procedures", "list the built-in procedures", runProcedures},
}

var commandOrder = []string{"eval", "put", "cat", "procedures"}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("fix", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", "", "path to fix.yaml (default: $FIX_CONFIG, then built-in defaults)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if showVersion {
		version.Print(stdout, "fix")
		return nil
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(stderr, flagSet)
		return nil
	}

	name := flagSet.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (run fix --help)", name)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	store, err := objstore.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	defer store.Close()

	logger.Debug("store opened", "backend", cfg.Store.Backend, "path", cfg.Store.Path)
	env := &environment{config: cfg, store: store, logger: logger, stdout: stdout, stderr: stderr}
	return cmd.run(ctx, env, flagSet.Args()[1:])
}

// loadConfig reads the file named by --config, then $FIX_CONFIG, and
// falls back to the defaults when neither is set.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("FIX_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `fix evaluates expressions over a content-addressed object store.

Usage:
  fix [global flags] COMMAND [flags] ARGS

Commands:
`)
	for _, name := range commandOrder {
		cmd := commands[name]
		fmt.Fprintf(w, "  %-24s %s\n", cmd.usage, cmd.summary)
	}
	fmt.Fprintf(w, `
Examples:
  # Evaluate fib(20) with the configured limits
  echo '{"encode": {"apply": ["fib", 20]}}' > fib.jsonc
  fix eval fib.jsonc

  # Store a Starlark procedure and inspect it
  fix put double.star
  fix cat blob:<pointer>:<size>

Global flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
