// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// CHAT SESSION TYPE
// =============================================================================

// DefaultSessionTitle is shown for sessions whose title has not been
// assigned yet (the store keeps title as null until the first rename or
// auto-title).
const DefaultSessionTitle = "New Chat"

// ChatSession represents a persisted conversation thread. The remote store
// owns the record; the local copy is a cache that may be optimistically
// patched and rolled back.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     *string   `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChatSession creates a session record with the given remote id.
// An empty title maps to null.
func NewChatSession(id, title string) ChatSession {
	s := ChatSession{ID: id, CreatedAt: time.Now()}
	if title != "" {
		s.Title = &title
	}
	return s
}

// DisplayTitle returns the title, or DefaultSessionTitle when unset.
func (s ChatSession) DisplayTitle() string {
	if s.Title == nil || *s.Title == "" {
		return DefaultSessionTitle
	}
	return *s.Title
}

// TitleEquals reports whether the current title matches t byte for byte.
// A nil title only equals the empty string.
func (s ChatSession) TitleEquals(t string) bool {
	if s.Title == nil {
		return t == ""
	}
	return *s.Title == t
}

// WithTitle returns a copy of the session with the title replaced.
func (s ChatSession) WithTitle(t string) ChatSession {
	s.Title = &t
	return s
}

// CloneSessions returns a deep copy of a session list, used for
// snapshot-before-mutate rollbacks.
func CloneSessions(sessions []ChatSession) []ChatSession {
	out := make([]ChatSession, len(sessions))
	for i, s := range sessions {
		out[i] = s
		if s.Title != nil {
			title := *s.Title
			out[i].Title = &title
		}
	}
	return out
}
