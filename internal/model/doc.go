// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions, messages,
// and float telemetry results.
//
// This package defines the core domain types used throughout the application
// for representing chat sessions, their messages, and the structured payloads
// returned by the backend (visualizations and one-shot query results).
//
// # Key Types
//
//   - ChatSession: A persisted conversation thread owned by the remote store
//   - Message: Single message with role, append-only streamed content, and
//     optional visualization meta
//   - MessageID: Pending/confirmed identifier pair for optimistic messages
//   - QueryResult: Terminal payload of a one-shot query
//   - FloatRecord: One telemetry row from an oceanographic float
//
// # Usage
//
// Create an optimistic message pair for a send:
//
//	user := model.NewUserMessage(sessionID, "show floats near 10N 60E")
//	assistant := model.NewAssistantPlaceholder(sessionID)
//	assistant.AppendChunk("The nearest ")
package model
