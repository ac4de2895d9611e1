// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the adaptive color palette and lipgloss styles
// shared by the TUI. Colors are declared as adaptive pairs so the same
// theme renders legibly on light and dark terminals.
package styles
