// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"reflect"
	"strings"
	"testing"
)

// collect runs the decoder over the given chunks and returns the events.
func collect(t *testing.T, chunks []string) []Event {
	t.Helper()
	d := NewDecoder(nil)
	var events []Event
	for _, chunk := range chunks {
		d.FeedString(chunk, func(ev Event) {
			events = append(events, ev)
		})
	}
	d.Close()
	return events
}

func TestDecodeSingleChunkEvent(t *testing.T) {
	events := collect(t, []string{"event: chunk\ndata: \"Hello\"\n\n"})
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Type != EventChunk {
		t.Errorf("Type = %q, want %q", events[0].Type, EventChunk)
	}
	if events[0].Text != "Hello" {
		t.Errorf("Text = %q, want %q", events[0].Text, "Hello")
	}
}

func TestChunkBoundaryIndependence(t *testing.T) {
	// The same byte sequence split at every possible boundary must decode
	// to the identical ordered event sequence.
	stream := "event: chunk\ndata: \"The \"\n\n" +
		"event: chunk\ndata: \"nearest \"\n\n" +
		"event: visualization\ndata: {\"type\": \"map\", \"title\": \"Floats\"}\n\n" +
		"event: chunk\ndata: \"float\"\n\n" +
		"event: metadata\ndata: {\"query_type\": \"data_current\", \"message\": \"done\"}\n\n"

	want := collect(t, []string{stream})
	if len(want) != 5 {
		t.Fatalf("baseline decode produced %d events, want 5", len(want))
	}

	for split := 1; split < len(stream); split++ {
		got := collect(t, []string{stream[:split], stream[split:]})
		if !eventsEqual(got, want) {
			t.Fatalf("split at %d produced different events:\ngot  %#v\nwant %#v", split, got, want)
		}
	}

	// Byte-at-a-time
	var drip []string
	for i := 0; i < len(stream); i++ {
		drip = append(drip, stream[i:i+1])
	}
	if got := collect(t, drip); !eventsEqual(got, want) {
		t.Fatal("byte-at-a-time decode differs from baseline")
	}
}

func eventsEqual(a, b []Event) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || a[i].Text != b[i].Text || a[i].SessionID != b[i].SessionID {
			return false
		}
		if (a[i].Visualization == nil) != (b[i].Visualization == nil) {
			return false
		}
		if a[i].Visualization != nil && a[i].Visualization.Type != b[i].Visualization.Type {
			return false
		}
		if (a[i].Metadata == nil) != (b[i].Metadata == nil) {
			return false
		}
		if a[i].Metadata != nil && !reflect.DeepEqual(a[i].Metadata, b[i].Metadata) {
			return false
		}
	}
	return true
}

func TestMultiLineDataJoinedWithNewline(t *testing.T) {
	events := collect(t, []string{"event: chunk\ndata: line one\ndata: line two\ndata: line three\n\n"})
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	want := "line one\nline two\nline three"
	if events[0].Text != want {
		t.Errorf("Text = %q, want %q", events[0].Text, want)
	}
}

func TestKeepAliveBlocksProduceNoEvents(t *testing.T) {
	events := collect(t, []string{"\n\n", "   \n\n", "\n\nevent: chunk\ndata: \"x\"\n\n\n\n"})
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (keep-alives must be silent)", len(events))
	}
	if events[0].Text != "x" {
		t.Errorf("Text = %q, want %q", events[0].Text, "x")
	}
}

func TestLastEventTypeWins(t *testing.T) {
	events := collect(t, []string{"event: chunk\nevent: error\ndata: \"boom\"\n\n"})
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Type != EventError {
		t.Errorf("Type = %q, want %q (last event line wins)", events[0].Type, EventError)
	}
}

func TestChunkFallsBackToRawText(t *testing.T) {
	events := collect(t, []string{"event: chunk\ndata: not json at all\n\n"})
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Text != "not json at all" {
		t.Errorf("Text = %q, want raw payload fallback", events[0].Text)
	}
}

func TestUndecodableVisualizationIsDropped(t *testing.T) {
	var logged bool
	d := NewDecoder(func(string, ...any) { logged = true })

	var events []Event
	stream := "event: visualization\ndata: {broken\n\nevent: chunk\ndata: \"ok\"\n\n"
	d.FeedString(stream, func(ev Event) { events = append(events, ev) })

	if len(events) != 1 || events[0].Type != EventChunk {
		t.Fatalf("got %#v, want only the chunk event", events)
	}
	if !logged {
		t.Error("dropped visualization should produce a diagnostic")
	}
}

func TestSessionAnnouncement(t *testing.T) {
	events := collect(t, []string{"event: session\ndata: {\"session_id\": \"sess-42\"}\n\n"})
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Type != EventSession || events[0].SessionID != "sess-42" {
		t.Errorf("got %+v, want session event with id sess-42", events[0])
	}
}

func TestUnknownEventTypeIsDropped(t *testing.T) {
	events := collect(t, []string{"event: heartbeat\ndata: {}\n\n"})
	if len(events) != 0 {
		t.Errorf("got %d events, want 0 for unknown type", len(events))
	}
}

func TestTrailingPartialFragmentIsRetainedThenDiscarded(t *testing.T) {
	d := NewDecoder(nil)
	var events []Event
	emit := func(ev Event) { events = append(events, ev) }

	d.FeedString("event: chunk\ndata: \"partial", emit)
	if len(events) != 0 {
		t.Fatalf("partial event must not be emitted, got %d", len(events))
	}

	// Completing the delimiter emits it.
	d.FeedString("\"\n\nevent: chunk\ndata: \"tail", emit)
	if len(events) != 1 || events[0].Text != "partial" {
		t.Fatalf("got %#v, want the completed partial event", events)
	}

	// The still-incomplete tail is discarded at close without error.
	d.Close()
	if len(events) != 1 {
		t.Errorf("Close() must not emit the incomplete tail")
	}
}

func TestCRLFLineEndings(t *testing.T) {
	events := collect(t, []string{"event: chunk\r\ndata: \"win\"\r\n\n"})
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Text != "win" {
		t.Errorf("Text = %q, want %q", events[0].Text, "win")
	}
}

func TestMetadataPayloadDecoding(t *testing.T) {
	payload := `{"query_type": "data_current", "message": "2 floats found", "data": [` +
		`{"float_id": "F001", "latitude": 12.5, "longitude": 64.2, "temperature": 18.4, "salinity": 35.1, "pressure": 10.2},` +
		`{"float_id": "F002", "latitude": 13.0, "longitude": 65.0, "temperature": 17.9, "salinity": 35.0, "pressure": 11.0}]}`
	events := collect(t, []string{"event: metadata\ndata: " + payload + "\n\n"})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	meta := events[0].Metadata
	if meta == nil {
		t.Fatal("metadata payload missing")
	}
	if meta.QueryType != "data_current" {
		t.Errorf("QueryType = %q, want data_current", meta.QueryType)
	}
	if len(meta.Data) != 2 || meta.Data[0].FloatID != "F001" {
		t.Errorf("Data = %+v, want two float records", meta.Data)
	}
}

func TestReSplitAcrossManyEventOrders(t *testing.T) {
	// A longer conversation-shaped stream re-split at coarse boundaries.
	parts := []string{
		"event: session\ndata: {\"session_id\": \"s1\"}\n\n",
		"event: chunk\ndata: \"A\"\n\n",
		"\n\n",
		"event: chunk\ndata: \"B\"\n\n",
		"event: error\ndata: \"query engine hiccup\"\n\n",
		"event: chunk\ndata: \"C\"\n\n",
	}
	full := strings.Join(parts, "")

	want := collect(t, []string{full})
	got := collect(t, parts)
	if !eventsEqual(got, want) {
		t.Fatalf("per-event feed differs from single feed:\ngot  %#v\nwant %#v", got, want)
	}

	var texts []string
	for _, ev := range want {
		if ev.Type == EventChunk {
			texts = append(texts, ev.Text)
		}
	}
	if strings.Join(texts, "") != "ABC" {
		t.Errorf("chunk concatenation = %q, want ABC", strings.Join(texts, ""))
	}
}
