// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache keeps a local sqlite copy of the session list and recent
// messages so the UI has something to show when the remote store is
// unreachable (stale-but-available).
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/neel-drishti/floatchat-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed = errors.New("cache is closed")
)

// =============================================================================
// CACHE
// =============================================================================

// Cache is a sqlite-backed mirror of sessions and messages. Writes replace
// whole collections, matching the reconciler's wholesale refresh semantics.
type Cache struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    title      TEXT,
    created_at TEXT NOT NULL,
    position   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
    id         TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at TEXT NOT NULL,
    meta       TEXT,
    position   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, position);
`

// Open opens (or creates) the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure cache database: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// =============================================================================
// SESSIONS
// =============================================================================

// PutSessions replaces the cached session list wholesale, preserving the
// given order.
func (c *Cache) PutSessions(sessions []model.ChatSession) error {
	if c.db == nil {
		return ErrClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("failed to clear cached sessions: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO sessions (id, title, created_at, position) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare session insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range sessions {
		var title any
		if s.Title != nil {
			title = *s.Title
		}
		if _, err := stmt.Exec(s.ID, title, s.CreatedAt.UTC().Format(time.RFC3339Nano), i); err != nil {
			return fmt.Errorf("failed to cache session %s: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

// Sessions returns the cached session list in stored order.
func (c *Cache) Sessions() ([]model.ChatSession, error) {
	if c.db == nil {
		return nil, ErrClosed
	}

	rows, err := c.db.Query("SELECT id, title, created_at FROM sessions ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to read cached sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.ChatSession
	for rows.Next() {
		var s model.ChatSession
		var title sql.NullString
		var createdAt string
		if err := rows.Scan(&s.ID, &title, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan cached session: %w", err)
		}
		if title.Valid {
			t := title.String
			s.Title = &t
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// =============================================================================
// MESSAGES
// =============================================================================

// PutMessages replaces the cached messages of one session wholesale.
func (c *Cache) PutMessages(sessionID string, messages []model.Message) error {
	if c.db == nil {
		return ErrClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear cached messages: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO messages (id, session_id, role, content, created_at, meta, position) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range messages {
		var meta any
		if m.Meta != nil {
			data, err := json.Marshal(m.Meta)
			if err == nil {
				meta = string(data)
			}
		}
		if _, err := stmt.Exec(m.ID.String(), sessionID, m.Role.String(), m.Content,
			m.CreatedAt.UTC().Format(time.RFC3339Nano), meta, i); err != nil {
			return fmt.Errorf("failed to cache message %s: %w", m.ID.String(), err)
		}
	}
	return tx.Commit()
}

// Messages returns the cached messages of one session in stored order.
func (c *Cache) Messages(sessionID string) ([]model.Message, error) {
	if c.db == nil {
		return nil, ErrClosed
	}

	rows, err := c.db.Query(
		"SELECT id, role, content, created_at, meta FROM messages WHERE session_id = ? ORDER BY position",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var id, role, content, createdAt string
		var meta sql.NullString
		if err := rows.Scan(&id, &role, &content, &createdAt, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan cached message: %w", err)
		}

		m := model.Message{
			ID:        model.ConfirmedID(id),
			SessionID: sessionID,
			Role:      model.Role(role),
			Content:   content,
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if meta.Valid {
			var decoded model.Meta
			if err := json.Unmarshal([]byte(meta.String), &decoded); err == nil {
				m.Meta = &decoded
			}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// DeleteSession removes a session and its messages from the cache.
func (c *Cache) DeleteSession(sessionID string) error {
	if c.db == nil {
		return ErrClosed
	}
	if _, err := c.db.Exec("DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to evict cached messages: %w", err)
	}
	if _, err := c.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to evict cached session: %w", err)
	}
	return nil
}
