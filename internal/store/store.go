// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store reads and creates session and message rows in the remote
// store over its PostgREST interface.
//
// The store is the source of truth; row-level access control is the
// store's responsibility, so every request carries the caller's bearer
// token and the project api key. Renames and deletes go through the query
// backend instead, which owns those mutations.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/neel-drishti/floatchat-tui/internal/auth"
	"github.com/neel-drishti/floatchat-tui/internal/model"
)

// =============================================================================
// CLIENT
// =============================================================================

// Config holds the remote store configuration.
type Config struct {
	// URL is the store project URL, e.g. https://xyz.supabase.co
	URL string
	// AnonKey is sent as the apikey header on every request.
	AnonKey string
	// Timeout applies to every request.
	Timeout time.Duration
	// Credentials supplies the caller's bearer token. May be nil.
	Credentials auth.CredentialProvider
}

// Client is a PostgREST client for the chat_sessions and messages tables.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a store client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// =============================================================================
// ROW SHAPES
// =============================================================================

// sessionRow is the chat_sessions wire representation.
type sessionRow struct {
	ID        string    `json:"id"`
	Title     *string   `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func (r sessionRow) toModel() model.ChatSession {
	return model.ChatSession{ID: r.ID, Title: r.Title, CreatedAt: r.CreatedAt}
}

// messageRow is the messages wire representation.
type messageRow struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

func (r messageRow) toModel() model.Message {
	msg := model.Message{
		ID:        model.ConfirmedID(r.ID),
		SessionID: r.SessionID,
		Role:      model.Role(r.Role),
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
	if len(r.Metadata) > 0 && string(r.Metadata) != "null" {
		var meta model.Meta
		if err := json.Unmarshal(r.Metadata, &meta); err == nil {
			msg.Meta = &meta
		}
	}
	return msg
}

// =============================================================================
// OPERATIONS
// =============================================================================

// ListSessions returns every session visible to the current identity,
// newest first.
func (c *Client) ListSessions(ctx context.Context) ([]model.ChatSession, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "created_at.desc")

	var rows []sessionRow
	if err := c.get(ctx, "chat_sessions", query, &rows); err != nil {
		return nil, err
	}

	sessions := make([]model.ChatSession, len(rows))
	for i, row := range rows {
		sessions[i] = row.toModel()
	}
	return sessions, nil
}

// ListMessages returns a session's messages ordered by creation time
// ascending.
func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("session_id", "eq."+sessionID)
	query.Set("order", "created_at.asc")

	var rows []messageRow
	if err := c.get(ctx, "messages", query, &rows); err != nil {
		return nil, err
	}

	messages := make([]model.Message, len(rows))
	for i, row := range rows {
		messages[i] = row.toModel()
	}
	return messages, nil
}

// CreateSession inserts a new session owned by the current identity and
// returns the created record. An empty title inserts null.
func (c *Client) CreateSession(ctx context.Context, title string) (*model.ChatSession, error) {
	payload := map[string]any{}
	if title != "" {
		payload["title"] = title
	} else {
		payload["title"] = nil
	}
	body, err := json.Marshal([]any{payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session insert: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "chat_sessions", nil, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")

	var rows []sessionRow
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("store returned no representation for created session")
	}
	created := rows[0].toModel()
	return &created, nil
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

func (c *Client) get(ctx context.Context, table string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, table, query, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, table string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := strings.TrimRight(c.config.URL, "/") + "/rest/v1/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build store request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.config.AnonKey)
	// The bearer token scopes rows to the signed-in identity; the anon
	// key alone reaches only rows public policies expose.
	token := c.config.AnonKey
	if c.config.Credentials != nil {
		if t, ok := c.config.Credentials.CurrentToken(); ok {
			token = t
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode store response: %w", err)
	}
	return nil
}
