// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/neel-drishti/floatchat-tui/internal/auth"
	"github.com/neel-drishti/floatchat-tui/internal/model"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration for the API client.
type ClientConfig struct {
	// BaseURL is the root of the query API.
	BaseURL string
	// Timeout applies to non-streaming requests. Streaming requests use
	// a client without a timeout; a deadline would kill long answers.
	Timeout time.Duration
	// RequestsPerSecond limits outgoing requests. 0 disables limiting.
	RequestsPerSecond float64
	// Burst is the limiter burst size.
	Burst int
	// Credentials supplies the bearer token. May be nil for anonymous use.
	Credentials auth.CredentialProvider
	// Logf receives diagnostics. Defaults to stderr.
	Logf func(format string, args ...any)
}

// DefaultClientConfig returns a config with sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "http://localhost:8000/api/v1",
		Timeout:           30 * time.Second,
		RequestsPerSecond: 4,
		Burst:             4,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the floatchat query backend.
type Client struct {
	config *ClientConfig

	httpClient   *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter
}

// NewClient creates a client for the given base URL with default settings.
func NewClient(baseURL string) *Client {
	cfg := DefaultClientConfig()
	cfg.BaseURL = baseURL
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a client, filling zero values from defaults.
func NewClientWithConfig(cfg *ClientConfig) *Client {
	defaults := DefaultClientConfig()
	if cfg == nil {
		cfg = defaults
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaults.Burst
	}
	if cfg.Logf == nil {
		cfg.Logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		config:       cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{},
		limiter:      rate.NewLimiter(limit, cfg.Burst),
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// STREAMING QUERY
// =============================================================================

// StreamQuery posts a query and decodes its event-stream response, calling
// callback for each classified event in arrival order. Blocks until the
// stream ends or ctx is cancelled.
//
// A non-2xx status before any event is a hard failure. A transport error
// mid-stream aborts decoding and is returned, but events already delivered
// remain valid.
func (c *Client) StreamQuery(ctx context.Context, req QueryRequest, callback EventCallback) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return &ClientError{Type: ErrorTypeRequest, Message: "failed to encode query", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrorTypeRequest, Message: "failed to build request", Cause: err}
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ClientError{Type: ErrorTypeConnection, Message: "query request failed", Cause: errors.Join(ErrNotReachable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp.StatusCode, readErrorBody(resp.Body))
	}

	decoder := NewDecoder(c.config.Logf)
	defer decoder.Close()

	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			decoder.Feed(buf[:n], callback)
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &ClientError{Type: ErrorTypeStream, Message: "stream read failed", Cause: errors.Join(ErrStreamAborted, err)}
		}
	}
}

// =============================================================================
// ONE-SHOT QUERY
// =============================================================================

// OneShotQuery issues a non-conversational query (save_to_history=false),
// returns the metadata payload as soon as it is observed, and cancels the
// remaining stream reads. The backend must not create or mutate sessions
// for this request. A stream that ends without metadata yields an empty
// result set, not an error.
func (c *Client) OneShotQuery(ctx context.Context, query string) (*model.QueryResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var result *model.QueryResult
	err := c.StreamQuery(ctx, QueryRequest{Query: query, SaveToHistory: false}, func(ev Event) {
		if ev.Type == EventMetadata && result == nil {
			result = ev.Metadata
			// Terminal event for this mode: stop reading, the server may
			// still be producing.
			cancel()
		}
	})

	if result != nil {
		return result, nil
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	return model.EmptyQueryResult(), nil
}

// =============================================================================
// SESSION COMMANDS
// =============================================================================

// RenameSession updates a session title via PATCH /sessions/{id} and
// returns the updated record.
func (c *Client) RenameSession(ctx context.Context, sessionID, title string) (*model.ChatSession, error) {
	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return nil, &ClientError{Type: ErrorTypeRequest, Message: "failed to encode title", Cause: err}
	}

	var updated model.ChatSession
	if err := c.doJSON(ctx, http.MethodPatch, "/sessions/"+sessionID, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSession deletes a session via DELETE /sessions/{id}. Deletion
// cascades to the session's messages remotely.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/sessions/"+sessionID, nil, nil)
}

// Health probes the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil)
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// doJSON performs a non-streaming request with the shared header set and
// decodes a JSON response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return &ClientError{Type: ErrorTypeRequest, Message: "failed to build request", Cause: err}
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return &ClientError{Type: ErrorTypeTimeout, Message: method + " " + path + " timed out", Cause: err}
		}
		return &ClientError{Type: ErrorTypeConnection, Message: method + " " + path + " failed", Cause: errors.Join(ErrNotReachable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp.StatusCode, readErrorBody(resp.Body))
	}

	if out == nil {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrorTypeStream, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// setHeaders applies the shared header set: content type, request id for
// correlation, and the bearer token when one is available. An absent
// token means an anonymous request, never a construction failure.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.config.Credentials != nil {
		if token, ok := c.config.Credentials.CurrentToken(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// readErrorBody reads up to 4KB of an error response body for inclusion
// in the returned error.
func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	return strings.TrimSpace(string(data))
}
