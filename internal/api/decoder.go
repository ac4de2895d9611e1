// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/neel-drishti/floatchat-tui/internal/model"
)

// =============================================================================
// STREAM DECODER
// =============================================================================

// Decoder reassembles text/event-stream framed events from arbitrarily
// chunked reads. A read may deliver a partial field, a partial event, or
// several events at once; Feed accepts whatever arrives and emits exactly
// the events whose blank-line delimiter has been seen. The decoder knows
// nothing about sessions or messages.
type Decoder struct {
	// buf holds bytes not yet resolved into a complete event.
	buf bytes.Buffer

	// logf receives diagnostics for dropped payloads. Never nil.
	logf func(format string, args ...any)
}

// NewDecoder creates a decoder. logf may be nil to discard diagnostics.
func NewDecoder(logf func(format string, args ...any)) *Decoder {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Decoder{logf: logf}
}

// Feed appends a chunk to the accumulation buffer and emits every event
// completed by it, in order. The trailing partial event, if any, is
// retained for the next call.
func (d *Decoder) Feed(chunk []byte, emit EventCallback) {
	d.buf.Write(chunk)

	for {
		data := d.buf.Bytes()
		idx := bytes.Index(data, []byte("\n\n"))
		if idx < 0 {
			return
		}

		block := string(data[:idx])
		d.buf.Next(idx + 2)

		if event, ok := d.parseBlock(block); ok {
			emit(event)
		}
	}
}

// FeedString is Feed for string chunks.
func (d *Decoder) FeedString(chunk string, emit EventCallback) {
	d.Feed([]byte(chunk), emit)
}

// Close discards any incomplete trailing fragment. Called at end of
// stream; a leftover partial event is not an error.
func (d *Decoder) Close() {
	if d.buf.Len() > 0 && strings.TrimSpace(d.buf.String()) != "" {
		d.logf("discarding incomplete trailing fragment (%d bytes)", d.buf.Len())
	}
	d.buf.Reset()
}

// parseBlock parses one delimiter-terminated block into a classified
// event. Keep-alive blocks (whitespace only) and unclassifiable blocks
// return ok=false and produce no callback.
func (d *Decoder) parseBlock(block string) (Event, bool) {
	if strings.TrimSpace(block) == "" {
		return Event{}, false
	}

	var eventType string
	var dataLines []string

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "event: "):
			// Last one wins if repeated.
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		}
	}

	// Multi-line payloads are joined with a single newline, in order.
	payload := strings.Join(dataLines, "\n")

	return d.classify(eventType, payload)
}

// classify turns a raw event type and payload into a typed Event.
func (d *Decoder) classify(eventType, payload string) (Event, bool) {
	switch EventType(eventType) {
	case EventChunk:
		// Payload is normally a JSON-encoded string; fall back to the
		// raw text so a malformed token degrades instead of failing.
		var text string
		if err := json.Unmarshal([]byte(payload), &text); err != nil {
			text = payload
		}
		return Event{Type: EventChunk, Text: text}, true

	case EventVisualization:
		var viz model.Visualization
		if err := json.Unmarshal([]byte(payload), &viz); err != nil {
			d.logf("dropping undecodable visualization payload: %v", err)
			return Event{}, false
		}
		viz.Raw = json.RawMessage(payload)
		return Event{Type: EventVisualization, Visualization: &viz}, true

	case EventError:
		var text string
		if err := json.Unmarshal([]byte(payload), &text); err != nil {
			text = payload
		}
		return Event{Type: EventError, Text: text}, true

	case EventMetadata:
		var result model.QueryResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			d.logf("dropping undecodable metadata payload: %v", err)
			return Event{}, false
		}
		return Event{Type: EventMetadata, Metadata: &result}, true

	case EventSession:
		var announce struct {
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal([]byte(payload), &announce); err != nil || announce.SessionID == "" {
			d.logf("dropping undecodable session announcement")
			return Event{}, false
		}
		return Event{Type: EventSession, SessionID: announce.SessionID}, true

	default:
		d.logf("dropping event with unrecognized type %q", eventType)
		return Event{}, false
	}
}
