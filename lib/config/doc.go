// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the herald
// service.
//
// Configuration is loaded from a single YAML file specified by:
//   - HERALD_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. Environment variables
// do not override config values. This ensures deterministic, auditable
// configuration with no hidden overrides; the only expansion performed
// is ${HOME} and similar path variables for portability.
package config
