// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// ProductionStepBudget is the step budget applied in production when
// the file leaves limits.steps at zero.
const ProductionStepBudget = 100_000_000

// Config is the master configuration for fix.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Root is the base directory for fix data. Other paths may refer
	// to it as ${FIX_ROOT}.
	Root string `yaml:"root"`

	// Store selects and configures the object backend.
	Store StoreConfig `yaml:"store"`

	// Limits are the resource limits placed in combinations built by
	// the command line.
	Limits LimitsConfig `yaml:"limits"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Root   string        `yaml:"root,omitempty"`
	Store  *StoreConfig  `yaml:"store,omitempty"`
	Limits *LimitsConfig `yaml:"limits,omitempty"`
	Log    *LogConfig    `yaml:"log,omitempty"`
}

// StoreConfig configures the object backend.
type StoreConfig struct {
	// Backend is one of "memory", "disk" or "sqlite".
	// Default: disk
	Backend string `yaml:"backend"`

	// Path is the directory (disk) or database file (sqlite).
	// Ignored by the memory backend.
	// Default: ${FIX_ROOT}/objects
	Path string `yaml:"path"`

	// Compression is the blob compression used by the disk backend:
	// "none", "lz4", "zstd", or "auto" to sample each blob.
	// Default: auto
	Compression string `yaml:"compression"`

	// PoolSize is the SQLite connection pool size. Zero picks a
	// default from the CPU count.
	PoolSize int `yaml:"pool_size"`
}

// LimitsConfig holds the resource limits of an application. Zero
// means unlimited.
type LimitsConfig struct {
	// Footprint bounds the input and output footprint in 64 KiB pages.
	Footprint uint32 `yaml:"footprint"`

	// Steps bounds the execution steps of a scripted procedure.
	Steps uint64 `yaml:"steps"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is "text", "json", or "auto" for the stderr handler.
	// Auto writes text to a terminal and JSON otherwise.
	// Default: auto
	Format string `yaml:"format"`

	// File, when set, also receives JSON log records.
	File string `yaml:"file"`

	// Journal also sends records to the systemd journal.
	Journal bool `yaml:"journal"`
}

// Default returns the default configuration with variables expanded.
// Commands run without a config file use it as is.
func Default() *Config {
	cfg := defaults()
	cfg.expandVariables()
	return cfg
}

// defaults returns the unexpanded defaults that a config file is
// merged into, so that a file setting only root moves the store too.
func defaults() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Environment: Development,
		Root:        filepath.Join(homeDir, ".cache", "fix"),
		Store: StoreConfig{
			Backend:     "disk",
			Path:        "${FIX_ROOT}/objects",
			Compression: "auto",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the FIX_CONFIG environment variable.
//
// There are no fallbacks or defaults: if FIX_CONFIG is not set, this
// fails.
func Load() (*Config, error) {
	configPath := os.Getenv("FIX_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("FIX_CONFIG environment variable not set; " +
			"set it to the path of your fix.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values. The only expansion performed is ${HOME} and
// similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if c.Limits.Steps == 0 && (overrides == nil || overrides.Limits == nil || overrides.Limits.Steps == 0) {
			c.Limits.Steps = ProductionStepBudget
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Root != "" {
		c.Root = overrides.Root
	}

	if overrides.Store != nil {
		if overrides.Store.Backend != "" {
			c.Store.Backend = overrides.Store.Backend
		}
		if overrides.Store.Path != "" {
			c.Store.Path = overrides.Store.Path
		}
		if overrides.Store.Compression != "" {
			c.Store.Compression = overrides.Store.Compression
		}
		if overrides.Store.PoolSize != 0 {
			c.Store.PoolSize = overrides.Store.PoolSize
		}
	}

	if overrides.Limits != nil {
		if overrides.Limits.Footprint != 0 {
			c.Limits.Footprint = overrides.Limits.Footprint
		}
		if overrides.Limits.Steps != 0 {
			c.Limits.Steps = overrides.Limits.Steps
		}
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.Log.Format != "" {
			c.Log.Format = overrides.Log.Format
		}
		if overrides.Log.File != "" {
			c.Log.File = overrides.Log.File
		}
		// Journal is a bool, so we always apply it from overrides.
		c.Log.Journal = overrides.Log.Journal
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"FIX_ROOT": c.Root,
		"HOME":     os.Getenv("HOME"),
	}

	c.Root = expandVars(c.Root, vars)
	vars["FIX_ROOT"] = c.Root // Update for dependent paths.

	c.Store.Path = expandVars(c.Store.Path, vars)
	c.Log.File = expandVars(c.Log.File, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	backends := []string{"memory", "disk", "sqlite"}
	if !slices.Contains(backends, c.Store.Backend) {
		errs = append(errs, fmt.Errorf("store.backend must be one of: %v", backends))
	}
	if c.Store.Backend != "memory" && c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required for the %s backend", c.Store.Backend))
	}

	compressions := []string{"none", "lz4", "zstd", "auto"}
	if !slices.Contains(compressions, c.Store.Compression) {
		errs = append(errs, fmt.Errorf("store.compression must be one of: %v", compressions))
	}

	if c.Store.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("store.pool_size must not be negative"))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}

	formats := []string{"auto", "text", "json"}
	if !slices.Contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the directories the configured backend writes
// into.
func (c *Config) EnsurePaths() error {
	var paths []string
	switch c.Store.Backend {
	case "disk":
		paths = append(paths, c.Store.Path)
	case "sqlite":
		paths = append(paths, filepath.Dir(c.Store.Path))
	}
	if c.Log.File != "" {
		paths = append(paths, filepath.Dir(c.Log.File))
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
