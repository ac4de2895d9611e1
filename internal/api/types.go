// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the floatchat query backend,
// including the incremental decoder for its event-stream responses.
package api

import (
	"errors"
	"fmt"

	"github.com/neel-drishti/floatchat-tui/internal/model"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventType names one kind of stream event.
type EventType string

const (
	// EventChunk carries an incremental text token of the assistant reply.
	EventChunk EventType = "chunk"
	// EventVisualization carries a chart or table descriptor.
	EventVisualization EventType = "visualization"
	// EventError carries an error produced while answering; it is shown
	// inline, the stream continues.
	EventError EventType = "error"
	// EventMetadata carries the full result of a one-shot query and
	// signals its termination.
	EventMetadata EventType = "metadata"
	// EventSession announces the server-assigned session id when the
	// query implicitly created a session. Sent first when present.
	EventSession EventType = "session"
)

// Event is one decoded, classified stream event.
type Event struct {
	Type EventType

	// Text is set for chunk and error events.
	Text string

	// Visualization is set for visualization events.
	Visualization *model.Visualization

	// Metadata is set for metadata events.
	Metadata *model.QueryResult

	// SessionID is set for session events.
	SessionID string
}

// EventCallback receives decoded events in strict arrival order.
type EventCallback func(Event)

// =============================================================================
// REQUESTS
// =============================================================================

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query         string `json:"query"`
	SessionID     string `json:"session_id,omitempty"`
	SaveToHistory bool   `json:"save_to_history"`
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors.
type ErrorType string

const (
	ErrorTypeConnection ErrorType = "connection"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeHTTP       ErrorType = "http"
	ErrorTypeStream     ErrorType = "stream"
	ErrorTypeRequest    ErrorType = "request"
)

// ClientError is a structured error from the API client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error

	// StatusCode is set for ErrorTypeHTTP.
	StatusCode int
	// Body holds response body text for ErrorTypeHTTP, when available.
	Body string
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Sentinel errors for errors.Is checks.
var (
	// ErrNotReachable indicates the backend could not be contacted.
	ErrNotReachable = errors.New("backend is not reachable")
	// ErrStreamAborted indicates a mid-stream transport failure. Events
	// already delivered remain valid.
	ErrStreamAborted = errors.New("stream aborted mid-transfer")
)

// newHTTPError builds a ClientError for a non-2xx response.
func newHTTPError(status int, body string) *ClientError {
	return &ClientError{
		Type:       ErrorTypeHTTP,
		Message:    fmt.Sprintf("unexpected status %d", status),
		StatusCode: status,
		Body:       body,
	}
}

// IsHTTPStatus reports whether err is an HTTP error with the given status.
func IsHTTPStatus(err error, status int) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == ErrorTypeHTTP && ce.StatusCode == status
	}
	return false
}

// IsNotReachable reports whether err means the backend is down.
func IsNotReachable(err error) bool {
	return errors.Is(err, ErrNotReachable)
}

// IsStreamAborted reports whether err is a mid-stream transport failure.
func IsStreamAborted(err error) bool {
	return errors.Is(err, ErrStreamAborted)
}
