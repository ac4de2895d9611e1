// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the floatchat command line interface: argument
// parsing, the one-shot ask command, and the health check. The TUI entry
// point lives in main; this package handles everything that runs without
// a full-screen terminal.
package cli
