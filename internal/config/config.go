// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// floatchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.floatchat/config.toml
//   - ~/.floatchat/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete floatchat configuration.
type Config struct {
	// Version of the config format, for future migrations.
	Version string `toml:"version" json:"version"`

	// API is the chat/query backend configuration.
	API APIConfig `toml:"api" json:"api"`

	// Store is the remote session/message store configuration.
	Store StoreConfig `toml:"store" json:"store"`

	// Auth configures how bearer tokens are obtained.
	Auth AuthConfig `toml:"auth" json:"auth"`

	// Cache configures the local sqlite cache.
	Cache CacheConfig `toml:"cache" json:"cache"`

	// UI configuration.
	UI UIConfig `toml:"ui" json:"ui"`
}

// APIConfig contains the query backend configuration.
type APIConfig struct {
	// BaseURL is the root of the query API (POST /query lives here).
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs applies to non-streaming requests (rename, delete).
	// Streaming requests carry no client timeout.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RequestsPerSecond limits outgoing query traffic. 0 disables limiting.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
	// Burst is the rate limiter burst size.
	Burst int `toml:"burst" json:"burst"`
}

// StoreConfig contains the remote store (PostgREST) configuration.
type StoreConfig struct {
	// URL is the store project URL, e.g. https://xyz.supabase.co
	URL string `toml:"url" json:"url"`
	// AnonKey is the public API key sent with every store request.
	AnonKey string `toml:"anon_key" json:"anon_key"`
	// TimeoutSecs applies to all store requests.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// AuthConfig contains bearer token source configuration.
type AuthConfig struct {
	// TokenFile is the path of the file holding the access token.
	// The file is watched and reloaded on change.
	TokenFile string `toml:"token_file" json:"token_file"`
	// PromptOnMissing asks for a token interactively when the file is
	// absent and stdin is a terminal.
	PromptOnMissing bool `toml:"prompt_on_missing" json:"prompt_on_missing"`
}

// CacheConfig contains the local cache configuration.
type CacheConfig struct {
	// Enabled turns the local sqlite cache on or off.
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the sqlite database file location.
	Path string `toml:"path" json:"path"`
}

// UIConfig contains UI behavior configuration.
type UIConfig struct {
	// Theme is the color theme name: "dark", "light", or "auto".
	Theme string `toml:"theme" json:"theme"`
	// SidebarWidth is the session sidebar width in columns.
	SidebarWidth int `toml:"sidebar_width" json:"sidebar_width"`
	// Markdown enables glamour rendering of assistant messages.
	Markdown bool `toml:"markdown" json:"markdown"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with built-in defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			BaseURL:           "http://localhost:8000/api/v1",
			TimeoutSecs:       30,
			RequestsPerSecond: 4,
			Burst:             4,
		},
		Store: StoreConfig{
			TimeoutSecs: 15,
		},
		Auth: AuthConfig{
			TokenFile:       defaultPath("token"),
			PromptOnMissing: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    defaultPath("cache.db"),
		},
		UI: UIConfig{
			Theme:        "auto",
			SidebarWidth: 28,
			Markdown:     true,
		},
	}
}

// ConfigDir returns the floatchat configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".floatchat"), nil
}

// defaultPath joins name onto the config dir, falling back to the
// working directory when the home dir is unknown.
func defaultPath(name string) string {
	dir, err := ConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from disk, preferring TOML over JSON, applies
// environment overrides, and validates the result. A missing file is not
// an error; defaults are used.
func Load() (*Config, error) {
	cfg := Default()

	dir, err := ConfigDir()
	if err == nil {
		tomlPath := filepath.Join(dir, "config.toml")
		jsonPath := filepath.Join(dir, "config.json")

		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if _, err := toml.DecodeFile(tomlPath, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", tomlPath, err)
			}
		} else if _, statErr := os.Stat(jsonPath); statErr == nil {
			data, err := os.ReadFile(jsonPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", jsonPath, err)
			}
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", jsonPath, err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The format is chosen by extension (.json, otherwise TOML).
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies FLOATCHAT_* environment variables on top of
// the loaded values. Environment always wins over file contents.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FLOATCHAT_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("FLOATCHAT_API_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.API.TimeoutSecs = n
		}
	}
	if v := os.Getenv("FLOATCHAT_STORE_URL"); v != "" {
		c.Store.URL = v
	}
	if v := os.Getenv("FLOATCHAT_STORE_ANON_KEY"); v != "" {
		c.Store.AnonKey = v
	}
	if v := os.Getenv("FLOATCHAT_TOKEN_FILE"); v != "" {
		c.Auth.TokenFile = v
	}
	if v := os.Getenv("FLOATCHAT_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("FLOATCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if _, err := url.Parse(c.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url is not a valid URL: %w", err)
	}
	if c.Store.URL != "" {
		if _, err := url.Parse(c.Store.URL); err != nil {
			return fmt.Errorf("store.url is not a valid URL: %w", err)
		}
	}
	if c.API.TimeoutSecs < 0 {
		return fmt.Errorf("api.timeout_secs must not be negative")
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must not be negative")
	}
	switch c.UI.Theme {
	case "dark", "light", "auto", "":
	default:
		return fmt.Errorf("ui.theme must be one of dark, light, auto")
	}
	if c.UI.SidebarWidth < 0 {
		return fmt.Errorf("ui.sidebar_width must not be negative")
	}
	return nil
}

// APITimeout returns the request timeout as a duration.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// StoreTimeout returns the store request timeout as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Store.TimeoutSecs) * time.Second
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration, loading it on first use.
// Load failures fall back to defaults with a warning on stderr.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
// Intended for tests and for CLI flag overrides at startup.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}
