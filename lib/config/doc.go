// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for fix.
//
// Configuration is loaded from a single file specified by either the
// FIX_CONFIG environment variable (via [Load]) or a --config flag (via
// [LoadFile]). There are no fallbacks and no automatic file search.
// Commands that run without a config file use [Default].
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter: a
// missing step budget is replaced by a finite one so that a runaway
// procedure cannot hold a worker forever.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${FIX_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// This package depends on no other fix packages.
package config
