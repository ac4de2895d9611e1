// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines all Bubble Tea message types used by the chat
// interface. Messages are organized into the following categories:
//   - Reconciler: state-change notifications pushed from outside the loop
//   - Sessions: list refresh, selection, rename, and delete results
//   - Send: completion of a streamed query
//   - Status: transient status line updates
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

// =============================================================================
// RECONCILER MESSAGES
// =============================================================================

// StateChangedMsg signals that the reconciler mutated its state. The
// reconciler's change callback delivers it through Program.Send, so
// streaming chunks repaint the view as they arrive.
type StateChangedMsg struct{}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionsLoadedMsg reports the result of a session list refresh.
type SessionsLoadedMsg struct {
	Err error
}

// SessionSelectedMsg reports the result of switching sessions.
type SessionSelectedMsg struct {
	SessionID string
	Err       error
}

// RenameFinishedMsg reports the result of a rename commit.
type RenameFinishedMsg struct {
	Err error
}

// DeleteFinishedMsg reports the result of a confirmed delete.
type DeleteFinishedMsg struct {
	Err error
}

// =============================================================================
// SEND MESSAGES
// =============================================================================

// SendFinishedMsg signals that a streamed query settled, successfully or
// not. Failures are already folded into the transcript as an assistant
// notice; Err here only drives the status line.
type SendFinishedMsg struct {
	Err error
}

// =============================================================================
// STATUS MESSAGES
// =============================================================================

// StatusMsg sets a transient status line.
type StatusMsg struct {
	Text string
}

// ClearStatusMsg clears the transient status line.
type ClearStatusMsg struct{}
