// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions, messages,
// and float telemetry results.
package model

import (
	"strings"
	"sync"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "FloatChat"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE IDENTITY
// =============================================================================

// MessageID tracks a message identifier through reconciliation with the
// remote store. A message starts with a client-generated local id and is
// confirmed once the server-issued id is known. Keeping both makes the
// reconciliation point explicit instead of overwriting a single field.
type MessageID struct {
	Local  string `json:"local_id,omitempty"`
	Remote string `json:"remote_id,omitempty"`
}

// PendingID creates an identifier that has not been confirmed remotely.
func PendingID(local string) MessageID {
	return MessageID{Local: local}
}

// ConfirmedID creates an identifier already known to the remote store.
func ConfirmedID(remote string) MessageID {
	return MessageID{Remote: remote}
}

// Confirmed reports whether the remote id is known.
func (id MessageID) Confirmed() bool {
	return id.Remote != ""
}

// Confirm returns a copy of the identifier with the remote id attached.
func (id MessageID) Confirm(remote string) MessageID {
	id.Remote = remote
	return id
}

// String returns the remote id when confirmed, otherwise the local id.
func (id MessageID) String() string {
	if id.Remote != "" {
		return id.Remote
	}
	return id.Local
}

// =============================================================================
// TEMPORARY ID GENERATION
// =============================================================================

var (
	tempIDMu   sync.Mutex
	lastTempID int64
)

// NewTempID generates a time-derived identifier that is strictly monotonic
// within this process. Two ids generated back to back (user message, then
// its assistant placeholder) are guaranteed distinct even when the clock
// does not advance between calls.
func NewTempID() string {
	tempIDMu.Lock()
	defer tempIDMu.Unlock()

	now := time.Now().UnixNano()
	if now <= lastTempID {
		now = lastTempID + 1
	}
	lastTempID = now

	return "tmp_" + formatInt64(now)
}

// formatInt64 formats a non-negative int64 without using fmt.
func formatInt64(n int64) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a chat session. Assistant messages
// are created as empty placeholders before their stream starts and grow by
// append-only content mutation until the stream settles.
type Message struct {
	// Identity
	ID        MessageID `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Content
	Content string `json:"content"`

	// Streaming state (not persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`

	// Structured payload attached by a visualization event. Set at most
	// once per exchange under normal operation; last writer wins.
	Meta *Meta `json:"meta,omitempty"`
}

// Meta holds the optional structured payload of an assistant message.
type Meta struct {
	Visualization *Visualization `json:"visualization,omitempty"`
}

// NewUserMessage creates an optimistic user message with a temporary id.
func NewUserMessage(sessionID, content string) *Message {
	return &Message{
		ID:        PendingID(NewTempID()),
		SessionID: sessionID,
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAssistantPlaceholder creates an empty assistant message ready to
// receive streamed content.
func NewAssistantPlaceholder(sessionID string) *Message {
	return &Message{
		ID:          PendingID(NewTempID()),
		SessionID:   sessionID,
		Role:        RoleAssistant,
		CreatedAt:   time.Now(),
		IsStreaming: true,
	}
}

// NewAssistantNotice creates a settled assistant message carrying the given
// text. Used for synthetic failure notices after a transport error.
func NewAssistantNotice(sessionID, content string) *Message {
	return &Message{
		ID:        PendingID(NewTempID()),
		SessionID: sessionID,
		Role:      RoleAssistant,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendChunk appends streamed text to the message content in arrival order.
func (m *Message) AppendChunk(text string) {
	if m.IsStreaming {
		m.streamContent.WriteString(text)
		return
	}
	m.Content += text
}

// SetVisualization attaches a visualization payload to the message.
// Last writer wins if the server repeats the event.
func (m *Message) SetVisualization(v *Visualization) {
	if v == nil {
		return
	}
	if m.Meta == nil {
		m.Meta = &Meta{}
	}
	m.Meta.Visualization = v
}

// FinalizeStream merges streamed content into Content and marks the
// message settled. Safe to call on a non-streaming message.
func (m *Message) FinalizeStream() {
	if !m.IsStreaming {
		return
	}
	m.Content += m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false
}

// DisplayContent returns the content to display (streaming or final).
func (m *Message) DisplayContent() string {
	if m.IsStreaming {
		return m.Content + m.streamContent.String()
	}
	return m.Content
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := m.DisplayContent()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen-3]) + "..."
}

// Clone returns a deep copy of the message. Streamed content is folded
// into the copy's Content so snapshots are stable; the streaming flag
// carries over so a snapshot still renders as in progress.
func (m *Message) Clone() *Message {
	clone := &Message{
		ID:          m.ID,
		SessionID:   m.SessionID,
		Role:        m.Role,
		CreatedAt:   m.CreatedAt,
		Content:     m.DisplayContent(),
		IsStreaming: m.IsStreaming,
	}
	if m.Meta != nil {
		meta := *m.Meta
		clone.Meta = &meta
	}
	return clone
}
