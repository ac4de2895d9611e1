// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/neel-drishti/floatchat-tui/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSessionsRoundTripPreservesOrder(t *testing.T) {
	c := openTestCache(t)

	sessions := []model.ChatSession{
		model.NewChatSession("s3", "Newest"),
		{ID: "s2", CreatedAt: time.Now().Add(-time.Hour)},
		model.NewChatSession("s1", "Oldest"),
	}
	if err := c.PutSessions(sessions); err != nil {
		t.Fatalf("PutSessions failed: %v", err)
	}

	got, err := c.Sessions()
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d sessions, want 3", len(got))
	}
	for i, want := range []string{"s3", "s2", "s1"} {
		if got[i].ID != want {
			t.Errorf("session[%d] = %q, want %q (stored order preserved)", i, got[i].ID, want)
		}
	}
	if got[1].Title != nil {
		t.Error("nil title should survive the round trip")
	}
	if got[0].DisplayTitle() != "Newest" {
		t.Errorf("title = %q, want Newest", got[0].DisplayTitle())
	}
}

func TestPutSessionsReplacesWholesale(t *testing.T) {
	c := openTestCache(t)

	if err := c.PutSessions([]model.ChatSession{model.NewChatSession("old", "Old")}); err != nil {
		t.Fatal(err)
	}
	if err := c.PutSessions([]model.ChatSession{model.NewChatSession("new", "New")}); err != nil {
		t.Fatal(err)
	}

	got, err := c.Sessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "new" {
		t.Errorf("got %+v, want only the new session", got)
	}
}

func TestMessagesRoundTripWithMeta(t *testing.T) {
	c := openTestCache(t)

	user := model.NewUserMessage("s1", "show temperature profile")
	assistant := model.NewAssistantPlaceholder("s1")
	assistant.AppendChunk("Here you go")
	assistant.FinalizeStream()
	assistant.SetVisualization(&model.Visualization{Type: "profile", Title: "Temp"})

	if err := c.PutMessages("s1", []model.Message{*user, *assistant}); err != nil {
		t.Fatalf("PutMessages failed: %v", err)
	}

	got, err := c.Messages("s1")
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0].Role != model.RoleUser || got[1].Role != model.RoleAssistant {
		t.Errorf("roles = %v, %v; want user then assistant", got[0].Role, got[1].Role)
	}
	if got[1].Content != "Here you go" {
		t.Errorf("content = %q", got[1].Content)
	}
	if got[1].Meta == nil || got[1].Meta.Visualization == nil || got[1].Meta.Visualization.Type != "profile" {
		t.Errorf("visualization meta lost: %+v", got[1].Meta)
	}

	// Messages of other sessions are untouched
	other, err := c.Messages("s2")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("got %d messages for unrelated session", len(other))
	}
}

func TestDeleteSessionEvictsMessages(t *testing.T) {
	c := openTestCache(t)

	c.PutSessions([]model.ChatSession{model.NewChatSession("s1", "A")})
	c.PutMessages("s1", []model.Message{*model.NewUserMessage("s1", "hi")})

	if err := c.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	sessions, _ := c.Sessions()
	if len(sessions) != 0 {
		t.Error("session not evicted")
	}
	messages, _ := c.Messages("s1")
	if len(messages) != 0 {
		t.Error("messages not evicted")
	}
}

func TestClosedCacheReturnsErrClosed(t *testing.T) {
	c := openTestCache(t)
	c.Close()

	if err := c.PutSessions(nil); err != ErrClosed {
		t.Errorf("PutSessions after Close = %v, want ErrClosed", err)
	}
	if _, err := c.Sessions(); err != ErrClosed {
		t.Errorf("Sessions after Close = %v, want ErrClosed", err)
	}
}
