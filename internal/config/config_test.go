// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management
// for the Parley TUI.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = "1.0.0"

[service]
base_url = "https://chat.example.com"
token = "secret"

[feed]
initial_batch = 50
widened_batch = 90

[ui]
theme = "light"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", cfg.Service.BaseURL)
	assert.Equal(t, "secret", cfg.Service.Token)
	assert.Equal(t, 50, cfg.Feed.InitialBatch)
	assert.Equal(t, 90, cfg.Feed.WidenedBatch)
	assert.Equal(t, "light", cfg.UI.Theme)

	// Unset values fall back to defaults.
	assert.Equal(t, 10, cfg.Feed.BackfillBatch)
	assert.Equal(t, int64(60_000), cfg.Feed.GroupWindowMillis)
	assert.Equal(t, "parley", cfg.Assistant.Handle)
	assert.Equal(t, "ws://127.0.0.1:8790/gateway", cfg.Service.GatewayURL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PARLEY_BASE_URL", "https://env.example.com")
	t.Setenv("PARLEY_TOKEN", "env-token")
	t.Setenv("PARLEY_THEME", "auto")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "https://env.example.com", cfg.Service.BaseURL)
	assert.Equal(t, "env-token", cfg.Service.Token)
	assert.Equal(t, "auto", cfg.UI.Theme)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "bad gateway scheme",
			mutate: func(c *Config) { c.Service.GatewayURL = "http://example.com/gateway" },
			field:  "service.gateway_url",
		},
		{
			name:   "zero initial batch",
			mutate: func(c *Config) { c.Feed.InitialBatch = 0 },
			field:  "feed.initial_batch",
		},
		{
			name:   "widened smaller than initial",
			mutate: func(c *Config) { c.Feed.WidenedBatch = c.Feed.InitialBatch - 1 },
			field:  "feed.widened_batch",
		},
		{
			name:   "negative debounce",
			mutate: func(c *Config) { c.Autocomplete.DebounceMillis = -1 },
			field:  "autocomplete.debounce_millis",
		},
		{
			name:   "unknown theme",
			mutate: func(c *Config) { c.UI.Theme = "solarized" },
			field:  "ui.theme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Service.BaseURL = "https://roundtrip.example.com"
	cfg.Feed.BackfillBatch = 20
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "config file carries the token and must be 0600")

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://roundtrip.example.com", loaded.Service.BaseURL)
	assert.Equal(t, 20, loaded.Feed.BackfillBatch)
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	reloaded := make(chan *Config, 1)
	w, err := Watch(path, 20*time.Millisecond, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	updated := Default()
	updated.UI.Theme = "light"
	require.NoError(t, SaveTOML(updated, path))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "light", cfg.UI.Theme)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatchDropsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	reloaded := make(chan *Config, 1)
	w, err := Watch(path, 20*time.Millisecond, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"bogus\"\n"), 0600))

	select {
	case cfg := <-reloaded:
		t.Fatalf("invalid config must not reach the callback, got theme %q", cfg.UI.Theme)
	case <-time.After(500 * time.Millisecond):
		// expected: no reload
	}
}
