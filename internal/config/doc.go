// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// floatchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: the complete application configuration
//   - APIConfig: query backend endpoint and rate limits
//   - StoreConfig: remote session/message store endpoint
//   - AuthConfig: bearer token source
//
// # Precedence
//
// Values are resolved in this order, later entries winning:
//
//  1. Built-in defaults
//  2. ~/.floatchat/config.toml (or config.json)
//  3. FLOATCHAT_* environment variables
//
// # Usage
//
//	cfg := config.Global()
//	client := api.NewClient(cfg.API.BaseURL)
package config
