// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management
// for the Parley TUI.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete Parley TUI configuration.
type Config struct {
	Version string `toml:"version"`

	// Service endpoints and credentials
	Service ServiceConfig `toml:"service"`

	// Feed pagination and grouping tunables
	Feed FeedConfig `toml:"feed"`

	// Autocomplete popup behavior
	Autocomplete AutocompleteConfig `toml:"autocomplete"`

	// Assistant identity for follow-up detection
	Assistant AssistantConfig `toml:"assistant"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// ServiceConfig contains service endpoints and credentials.
type ServiceConfig struct {
	// BaseURL is the HTTP API base URL
	BaseURL string `toml:"base_url"`
	// GatewayURL is the push gateway websocket endpoint
	GatewayURL string `toml:"gateway_url"`
	// Token is the bearer token for both endpoints
	Token string `toml:"token"`
	// TimeoutSecs is the per-request HTTP timeout in seconds
	TimeoutSecs int `toml:"timeout_secs"`
}

// FeedConfig contains history pagination and grouping tunables.
type FeedConfig struct {
	// InitialBatch is the per-stream limit for a plain initial load
	InitialBatch int `toml:"initial_batch"`
	// WidenedBatch is the per-stream limit when loading at a cursor pair
	WidenedBatch int `toml:"widened_batch"`
	// BackfillBatch is the per-stream limit for upward pagination
	BackfillBatch int `toml:"backfill_batch"`
	// ExhaustedBelow marks a stream exhausted when a fetch returns fewer records
	ExhaustedBelow int `toml:"exhausted_below"`
	// GroupWindowMillis is the max gap between visually grouped entries
	GroupWindowMillis int64 `toml:"group_window_millis"`
	// TopThresholdRows is how close to the top (in rows) triggers a backfill
	TopThresholdRows int `toml:"top_threshold_rows"`
}

// AutocompleteConfig contains slash-command popup behavior.
type AutocompleteConfig struct {
	// DebounceMillis is the keystroke-to-search delay
	DebounceMillis int `toml:"debounce_millis"`
	// SearchLimit caps the command candidates fetched per search
	SearchLimit int `toml:"search_limit"`
	// SearchRatePerSec throttles registry searches past the debounce
	SearchRatePerSec float64 `toml:"search_rate_per_sec"`
	// SearchBurst is the throttle's burst allowance
	SearchBurst int `toml:"search_burst"`
}

// AssistantConfig identifies the assistant for follow-up detection.
type AssistantConfig struct {
	// Handle is the mention handle, without the "@"
	Handle string `toml:"handle"`
	// SenderID marks entries authored by the assistant
	SenderID string `toml:"sender_id"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// CompactMode collapses grouped entries harder
	CompactMode bool `toml:"compact_mode"`
	// ShowTimestamps renders a timestamp on every entry header
	ShowTimestamps bool `toml:"show_timestamps"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Service: ServiceConfig{
			BaseURL:     "http://127.0.0.1:8790",
			GatewayURL:  "ws://127.0.0.1:8790/gateway",
			TimeoutSecs: 15,
		},

		Feed: FeedConfig{
			InitialBatch:      40,
			WidenedBatch:      70,
			BackfillBatch:     10,
			ExhaustedBelow:    10,
			GroupWindowMillis: 60_000,
			TopThresholdRows:  3,
		},

		Autocomplete: AutocompleteConfig{
			DebounceMillis:   100,
			SearchLimit:      25,
			SearchRatePerSec: 10,
			SearchBurst:      5,
		},

		Assistant: AssistantConfig{
			Handle:   "parley",
			SenderID: "assistant",
		},

		UI: UIConfig{
			Theme:          "dark",
			CompactMode:    false,
			ShowTimestamps: true,
		},
	}
}

// Timeout returns the HTTP timeout as a duration.
func (c *ServiceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Debounce returns the autocomplete debounce as a duration.
func (c *AutocompleteConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the Parley configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files should be 0600 (owner read/write only) to protect the token.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back
// to defaults when it does not exist. Environment overrides apply last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	if cfg.Service.BaseURL == "" {
		cfg.Service.BaseURL = defaults.Service.BaseURL
	}
	if cfg.Service.GatewayURL == "" {
		cfg.Service.GatewayURL = defaults.Service.GatewayURL
	}
	if cfg.Service.TimeoutSecs == 0 {
		cfg.Service.TimeoutSecs = defaults.Service.TimeoutSecs
	}

	if cfg.Feed.InitialBatch == 0 {
		cfg.Feed.InitialBatch = defaults.Feed.InitialBatch
	}
	if cfg.Feed.WidenedBatch == 0 {
		cfg.Feed.WidenedBatch = defaults.Feed.WidenedBatch
	}
	if cfg.Feed.BackfillBatch == 0 {
		cfg.Feed.BackfillBatch = defaults.Feed.BackfillBatch
	}
	if cfg.Feed.ExhaustedBelow == 0 {
		cfg.Feed.ExhaustedBelow = defaults.Feed.ExhaustedBelow
	}
	if cfg.Feed.GroupWindowMillis == 0 {
		cfg.Feed.GroupWindowMillis = defaults.Feed.GroupWindowMillis
	}
	if cfg.Feed.TopThresholdRows == 0 {
		cfg.Feed.TopThresholdRows = defaults.Feed.TopThresholdRows
	}

	if cfg.Autocomplete.DebounceMillis == 0 {
		cfg.Autocomplete.DebounceMillis = defaults.Autocomplete.DebounceMillis
	}
	if cfg.Autocomplete.SearchLimit == 0 {
		cfg.Autocomplete.SearchLimit = defaults.Autocomplete.SearchLimit
	}
	if cfg.Autocomplete.SearchRatePerSec == 0 {
		cfg.Autocomplete.SearchRatePerSec = defaults.Autocomplete.SearchRatePerSec
	}
	if cfg.Autocomplete.SearchBurst == 0 {
		cfg.Autocomplete.SearchBurst = defaults.Autocomplete.SearchBurst
	}

	if cfg.Assistant.Handle == "" {
		cfg.Assistant.Handle = defaults.Assistant.Handle
	}
	if cfg.Assistant.SenderID == "" {
		cfg.Assistant.SenderID = defaults.Assistant.SenderID
	}

	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with restrictive
// permissions (the token lives in this file).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# parley configuration file")
	fmt.Fprintln(file, "# Generated by parley - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if _, err := url.Parse(c.Service.BaseURL); err != nil {
		errs = append(errs, ValidationError{Field: "service.base_url", Message: "not a valid URL"})
	}
	if u, err := url.Parse(c.Service.GatewayURL); err != nil {
		errs = append(errs, ValidationError{Field: "service.gateway_url", Message: "not a valid URL"})
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		errs = append(errs, ValidationError{Field: "service.gateway_url", Message: "scheme must be ws or wss"})
	}
	if c.Service.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "service.timeout_secs", Message: "must not be negative"})
	}

	if c.Feed.InitialBatch <= 0 {
		errs = append(errs, ValidationError{Field: "feed.initial_batch", Message: "must be positive"})
	}
	if c.Feed.WidenedBatch < c.Feed.InitialBatch {
		errs = append(errs, ValidationError{Field: "feed.widened_batch", Message: "must be at least feed.initial_batch"})
	}
	if c.Feed.BackfillBatch <= 0 {
		errs = append(errs, ValidationError{Field: "feed.backfill_batch", Message: "must be positive"})
	}
	if c.Feed.ExhaustedBelow <= 0 {
		errs = append(errs, ValidationError{Field: "feed.exhausted_below", Message: "must be positive"})
	}
	if c.Feed.GroupWindowMillis < 0 {
		errs = append(errs, ValidationError{Field: "feed.group_window_millis", Message: "must not be negative"})
	}

	if c.Autocomplete.DebounceMillis < 0 {
		errs = append(errs, ValidationError{Field: "autocomplete.debounce_millis", Message: "must not be negative"})
	}
	if c.Autocomplete.SearchLimit <= 0 {
		errs = append(errs, ValidationError{Field: "autocomplete.search_limit", Message: "must be positive"})
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{Field: "ui.theme", Message: "must be dark, light, or auto"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - PARLEY_BASE_URL: overrides service.base_url
//   - PARLEY_GATEWAY_URL: overrides service.gateway_url
//   - PARLEY_TOKEN: overrides service.token
//   - PARLEY_THEME: overrides ui.theme
//   - PARLEY_ASSISTANT_HANDLE: overrides assistant.handle
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PARLEY_BASE_URL"); v != "" {
		c.Service.BaseURL = v
	}
	if v := os.Getenv("PARLEY_GATEWAY_URL"); v != "" {
		c.Service.GatewayURL = v
	}
	if v := os.Getenv("PARLEY_TOKEN"); v != "" {
		c.Service.Token = v
	}
	if v := os.Getenv("PARLEY_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("PARLEY_ASSISTANT_HANDLE"); v != "" {
		c.Assistant.Handle = v
	}
}
