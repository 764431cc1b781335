// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management
// for the Parley TUI.
//
// Supports TOML configuration with sensible defaults, environment
// variable overrides, validation, and hot reload via file watching.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServiceConfig: Service endpoints and credentials
//   - FeedConfig: History pagination and grouping tunables
//   - AutocompleteConfig: Slash-command popup behavior
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (PARLEY_*)
//   - ~/.parley/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	url := cfg.Service.BaseURL
//	batch := cfg.Feed.InitialBatch
package config
