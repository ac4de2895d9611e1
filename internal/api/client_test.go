// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/neel-drishti/floatchat-tui/internal/auth"
)

// newTestClient creates a client against the given test server with rate
// limiting disabled so tests run fast.
func newTestClient(srv *httptest.Server, creds auth.CredentialProvider) *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL:     srv.URL,
		Credentials: creds,
		Logf:        func(string, ...any) {},
	})
}

func TestStreamQueryDeliversEventsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/query" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Query != "temperature near 10N" {
			t.Errorf("query = %q", req.Query)
		}
		if !req.SaveToHistory {
			t.Error("chat-mode stream should save to history")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, block := range []string{
			"event: chunk\ndata: \"A\"\n\n",
			"event: chunk\ndata: \"B\"\n\n",
			"event: chunk\ndata: \"C\"\n\n",
		} {
			w.Write([]byte(block))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)

	var got string
	err := client.StreamQuery(context.Background(), QueryRequest{Query: "temperature near 10N", SaveToHistory: true}, func(ev Event) {
		if ev.Type == EventChunk {
			got += ev.Text
		}
	})
	if err != nil {
		t.Fatalf("StreamQuery failed: %v", err)
	}
	if got != "ABC" {
		t.Errorf("concatenated chunks = %q, want ABC", got)
	}
}

func TestStreamQueryNon2xxIsHardFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)

	called := false
	err := client.StreamQuery(context.Background(), QueryRequest{Query: "q"}, func(Event) { called = true })
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
	if called {
		t.Error("callback must not fire on a failed response")
	}
	if !IsHTTPStatus(err, http.StatusBadGateway) {
		t.Errorf("err = %v, want HTTP 502 classification", err)
	}
}

func TestStreamQueryAttachesBearerToken(t *testing.T) {
	var gotAuth, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
	}))
	defer srv.Close()

	client := newTestClient(srv, auth.NewStaticProvider("tok-1"))
	client.StreamQuery(context.Background(), QueryRequest{Query: "q"}, func(Event) {})

	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want Bearer tok-1", gotAuth)
	}
	if gotReqID == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestStreamQueryAnonymousWithoutToken(t *testing.T) {
	var gotAuth string
	hadAuth := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hadAuth = r.Header["Authorization"]
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	client.StreamQuery(context.Background(), QueryRequest{Query: "q"}, func(Event) {})

	if hadAuth {
		t.Errorf("Authorization = %q, want absent header for anonymous use", gotAuth)
	}
}

func TestOneShotQueryReturnsOnMetadataAndCancelsStream(t *testing.T) {
	serverDone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(serverDone)

		var req QueryRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.SaveToHistory {
			t.Error("one-shot query must send save_to_history=false")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		w.Write([]byte("event: metadata\ndata: {\"query_type\": \"data_current\", \"message\": \"1 float\", \"data\": [{\"float_id\": \"F9\"}]}\n\n"))
		flusher.Flush()

		// Keep producing until the client hangs up.
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
			t.Error("client never cancelled the stream after metadata")
		}
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)

	start := time.Now()
	result, err := client.OneShotQuery(context.Background(), "how many floats")
	if err != nil {
		t.Fatalf("OneShotQuery failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("OneShotQuery took %v, should return as soon as metadata arrives", elapsed)
	}
	if result.Message != "1 float" || len(result.Data) != 1 || result.Data[0].FloatID != "F9" {
		t.Errorf("result = %+v, want metadata payload", result)
	}

	<-serverDone
}

func TestOneShotQueryWithoutMetadataYieldsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: chunk\ndata: \"chatty answer with no data\"\n\n"))
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)

	result, err := client.OneShotQuery(context.Background(), "greeting")
	if err != nil {
		t.Fatalf("OneShotQuery should tolerate missing metadata, got %v", err)
	}
	if result == nil || len(result.Data) != 0 {
		t.Errorf("result = %+v, want empty collection", result)
	}
}

func TestRenameSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/sessions/s1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["title"] != "Salinity Trends" {
			t.Errorf("title = %q", body["title"])
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "s1", "title": "Salinity Trends"})
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	updated, err := client.RenameSession(context.Background(), "s1", "Salinity Trends")
	if err != nil {
		t.Fatalf("RenameSession failed: %v", err)
	}
	if updated.ID != "s1" || !updated.TitleEquals("Salinity Trends") {
		t.Errorf("updated = %+v", updated)
	}
}

func TestDeleteSessionSurfacesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/sessions/s1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		http.Error(w, `{"detail": "not yours"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	err := client.DeleteSession(context.Background(), "s1")
	if !IsHTTPStatus(err, http.StatusForbidden) {
		t.Errorf("err = %v, want HTTP 403 classification", err)
	}
}

func TestStreamQueryMidStreamFailureKeepsDeliveredEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		w.Write([]byte("event: chunk\ndata: \"kept\"\n\n"))
		flusher.Flush()

		// Abort the connection without a clean close.
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)

	var got string
	err := client.StreamQuery(context.Background(), QueryRequest{Query: "q"}, func(ev Event) {
		got += ev.Text
	})
	if err == nil {
		t.Fatal("expected mid-stream failure to surface")
	}
	if got != "kept" {
		t.Errorf("delivered events = %q, want %q (already delivered events stand)", got, "kept")
	}
}
