// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns local conversation state and keeps it consistent
// with the remote store under optimistic mutation.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/neel-drishti/floatchat-tui/internal/api"
	"github.com/neel-drishti/floatchat-tui/internal/cache"
	"github.com/neel-drishti/floatchat-tui/internal/model"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// QueryAPI is the slice of the API client the reconciler depends on.
type QueryAPI interface {
	StreamQuery(ctx context.Context, req api.QueryRequest, callback api.EventCallback) error
	RenameSession(ctx context.Context, sessionID, title string) (*model.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Store is the slice of the remote store client the reconciler depends on.
// The store only lists, reads, and inserts; renames and deletes go through
// the query API.
type Store interface {
	ListSessions(ctx context.Context) ([]model.ChatSession, error)
	ListMessages(ctx context.Context, sessionID string) ([]model.Message, error)
	CreateSession(ctx context.Context, title string) (*model.ChatSession, error)
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrSendInFlight rejects a send while another send is active.
	// Concurrent sends are rejected at the input level, never queued.
	ErrSendInFlight = errors.New("a send is already in flight")
	// ErrRenameInProgress blocks navigation while a rename edit is open.
	ErrRenameInProgress = errors.New("a rename edit is in progress")
	// ErrNoPendingDelete means ConfirmDelete was called without RequestDelete.
	ErrNoPendingDelete = errors.New("no delete is pending")
	// ErrUnknownSession means the id is not in the local session list.
	ErrUnknownSession = errors.New("unknown session id")
)

// =============================================================================
// SEND PHASES
// =============================================================================

// sendPhase tracks a single send through its lifecycle. Stream events are
// accepted only while streaming; anything arriving after the send settles
// is ignored defensively.
type sendPhase int

const (
	sendIdle sendPhase = iota
	sendCreatingSession
	sendStreaming
	sendSettled
)

// =============================================================================
// RECONCILER
// =============================================================================

// Config holds the reconciler's collaborators.
type Config struct {
	// API executes queries and session commands.
	API QueryAPI
	// Store lists and creates sessions and lists messages.
	Store Store
	// Cache is the optional local mirror for stale-but-available reads.
	Cache *cache.Cache
	// OnChange is invoked (outside the lock) after every state mutation.
	OnChange func()
	// Logf receives diagnostics. Defaults to stderr.
	Logf func(format string, args ...any)
}

// Reconciler maintains the session list and the active session's messages.
// It is the sole writer of this state; every mutation goes through one of
// its operations. All exported methods are safe for concurrent use.
type Reconciler struct {
	mu sync.Mutex

	apiClient QueryAPI
	store     Store
	cache     *cache.Cache
	onChange  func()
	logf      func(format string, args ...any)

	sessions []model.ChatSession
	messages []*model.Message

	// activeID, when set, always references a session in sessions.
	// Empty means "new conversation, not yet persisted".
	activeID string

	// Exactly one session may be in rename edit mode at a time.
	editingID string

	// pendingDeleteID marks the session awaiting delete confirmation.
	pendingDeleteID string

	sendInFlight bool
	phase        sendPhase
}

// NewReconciler creates a reconciler.
func NewReconciler(cfg Config) *Reconciler {
	logf := cfg.Logf
	if logf == nil {
		logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	return &Reconciler{
		apiClient: cfg.API,
		store:     cfg.Store,
		cache:     cfg.Cache,
		onChange:  cfg.OnChange,
		logf:      logf,
	}
}

// notify runs the change callback outside the lock.
func (r *Reconciler) notify() {
	if r.onChange != nil {
		r.onChange()
	}
}

// =============================================================================
// READ ACCESSORS
// =============================================================================

// Sessions returns a snapshot of the session list, newest first.
func (r *Reconciler) Sessions() []model.ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.CloneSessions(r.sessions)
}

// Messages returns a snapshot of the active session's messages in order.
func (r *Reconciler) Messages() []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Message, len(r.messages))
	for i, m := range r.messages {
		out[i] = *m.Clone()
	}
	return out
}

// ActiveID returns the active session id, or "" for a new conversation.
func (r *Reconciler) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// EditingID returns the id of the session in rename edit mode, if any.
func (r *Reconciler) EditingID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.editingID
}

// PendingDelete returns the id awaiting delete confirmation, if any.
func (r *Reconciler) PendingDelete() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingDeleteID
}

// SendInFlight reports whether a send is active.
func (r *Reconciler) SendInFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sendInFlight
}

// indexOf returns the position of a session id, or -1. Caller holds mu.
func (r *Reconciler) indexOf(sessionID string) int {
	for i, s := range r.sessions {
		if s.ID == sessionID {
			return i
		}
	}
	return -1
}

// =============================================================================
// SESSION LIST
// =============================================================================

// LoadSessions fetches all sessions owned by the current identity, newest
// first, and replaces the local list wholesale. On failure the local list
// is left unchanged (stale-but-available); when there is no local list
// yet, the cache seeds one.
func (r *Reconciler) LoadSessions(ctx context.Context) error {
	sessions, err := r.store.ListSessions(ctx)
	if err != nil {
		r.logf("session list refresh failed: %v", err)

		r.mu.Lock()
		empty := len(r.sessions) == 0
		r.mu.Unlock()

		if empty && r.cache != nil {
			if cached, cacheErr := r.cache.Sessions(); cacheErr == nil && len(cached) > 0 {
				r.mu.Lock()
				r.sessions = cached
				r.mu.Unlock()
				r.notify()
			}
		}
		return err
	}

	r.mu.Lock()
	r.sessions = sessions
	// The active session must stay in the list; a remote deletion from
	// another client clears it here.
	if r.activeID != "" && r.indexOf(r.activeID) < 0 {
		r.activeID = ""
		r.messages = nil
	}
	r.mu.Unlock()
	r.notify()

	r.cacheSessions(sessions)
	return nil
}

// Select sets the active session and reloads its messages wholesale.
// Selecting "" clears the active session and its messages. Navigation is
// refused while a rename edit is open (the edit keeps input focus).
func (r *Reconciler) Select(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	if r.editingID != "" {
		r.mu.Unlock()
		return ErrRenameInProgress
	}
	if sessionID == "" {
		r.activeID = ""
		r.messages = nil
		r.mu.Unlock()
		r.notify()
		return nil
	}
	if r.indexOf(sessionID) < 0 {
		r.mu.Unlock()
		return ErrUnknownSession
	}
	r.mu.Unlock()

	messages, err := r.store.ListMessages(ctx, sessionID)
	if err != nil {
		// Fall back to the cached copy when the store is unreachable.
		if r.cache != nil {
			if cached, cacheErr := r.cache.Messages(sessionID); cacheErr == nil {
				r.applySelection(sessionID, cached)
				return nil
			}
		}
		return fmt.Errorf("failed to load messages: %w", err)
	}

	r.applySelection(sessionID, messages)
	r.cacheMessages(sessionID, messages)
	return nil
}

func (r *Reconciler) applySelection(sessionID string, messages []model.Message) {
	r.mu.Lock()
	r.activeID = sessionID
	r.messages = make([]*model.Message, len(messages))
	for i := range messages {
		m := messages[i]
		r.messages[i] = &m
	}
	r.mu.Unlock()
	r.notify()
}

// =============================================================================
// SEND
// =============================================================================

// Send issues a chat-mode query for the active session, creating one
// remotely first when none is active. The user message is appended
// optimistically and never rolled back; stream events fold into an
// assistant placeholder as they arrive.
//
// Empty or whitespace-only input is a no-op. A second send while one is
// in flight returns ErrSendInFlight.
func (r *Reconciler) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	r.mu.Lock()
	if r.sendInFlight {
		r.mu.Unlock()
		return ErrSendInFlight
	}
	r.sendInFlight = true
	r.phase = sendCreatingSession
	hadSession := r.activeID != ""
	sessionID := r.activeID

	user := model.NewUserMessage(sessionID, text)
	r.messages = append(r.messages, user)
	r.mu.Unlock()
	r.notify()

	// Creating the session remotely is a synchronous prerequisite for
	// the first message of a fresh conversation.
	if !hadSession {
		created, err := r.store.CreateSession(ctx, GenerateTitle(text))
		if err != nil {
			r.settleFailed(sessionID, "Could not start a new chat: "+err.Error())
			return err
		}
		r.mu.Lock()
		r.sessions = append([]model.ChatSession{*created}, r.sessions...)
		r.activeID = created.ID
		user.SessionID = created.ID
		sessionID = created.ID
		r.mu.Unlock()
		r.notify()
	}

	assistant := model.NewAssistantPlaceholder(sessionID)
	r.mu.Lock()
	r.messages = append(r.messages, assistant)
	r.phase = sendStreaming
	r.mu.Unlock()
	r.notify()

	streamErr := r.apiClient.StreamQuery(ctx, api.QueryRequest{
		Query:         text,
		SessionID:     sessionID,
		SaveToHistory: true,
	}, func(ev api.Event) {
		r.applyEvent(assistant, ev)
	})

	r.mu.Lock()
	assistant.FinalizeStream()
	r.phase = sendSettled
	if streamErr != nil && r.activeID == sessionID {
		// The user message stands; failure is reported as its own
		// assistant message. Selecting another session mid-stream
		// replaces r.messages, so the notice would otherwise land in
		// the wrong transcript.
		r.messages = append(r.messages, model.NewAssistantNotice(sessionID,
			"The request failed: "+streamErr.Error()))
	}
	r.mu.Unlock()
	r.notify()

	// Pick up a server-assigned title change, but only when the session
	// already existed before this call: refreshing right after creating
	// one races against the insert becoming visible. The session stream
	// event above is the explicit signal for brand-new sessions.
	if hadSession {
		if err := r.LoadSessions(ctx); err != nil {
			r.logf("post-send session refresh failed: %v", err)
		}
	}

	// The cache mirror only makes sense while r.messages still belongs
	// to the session this send ran against.
	r.mu.Lock()
	var snapshot []model.Message
	if r.activeID == sessionID {
		snapshot = make([]model.Message, len(r.messages))
		for i, m := range r.messages {
			snapshot[i] = *m.Clone()
		}
	}
	r.sendInFlight = false
	r.phase = sendIdle
	r.mu.Unlock()

	if snapshot != nil {
		r.cacheMessages(sessionID, snapshot)
	}
	return streamErr
}

// applyEvent folds one stream event into the in-progress assistant
// message. Events outside the streaming phase are ignored.
func (r *Reconciler) applyEvent(assistant *model.Message, ev api.Event) {
	r.mu.Lock()
	if r.phase != sendStreaming {
		r.mu.Unlock()
		return
	}

	switch ev.Type {
	case api.EventChunk:
		assistant.AppendChunk(ev.Text)
	case api.EventVisualization:
		assistant.SetVisualization(ev.Visualization)
	case api.EventError:
		assistant.AppendChunk(errorMarker(ev.Text))
	case api.EventSession:
		// Server-assigned id for a session the backend created itself.
		// We create sessions through the store first, so this normally
		// only confirms what we already know.
		if r.activeID != "" && r.activeID != ev.SessionID {
			r.logf("server announced session %s while %s is active", ev.SessionID, r.activeID)
		}
	case api.EventMetadata:
		// Chat mode has no terminal metadata; ignore.
	}
	r.mu.Unlock()
	r.notify()
}

// errorMarker formats a stream error for inline display.
func errorMarker(text string) string {
	return "\n[error: " + text + "]"
}

// settleFailed appends a synthetic failure message and releases the
// in-flight flag. The notice is dropped when the transcript no longer
// belongs to the failed send's session.
func (r *Reconciler) settleFailed(sessionID, text string) {
	r.mu.Lock()
	if r.activeID == sessionID {
		r.messages = append(r.messages, model.NewAssistantNotice(sessionID, text))
	}
	r.sendInFlight = false
	r.phase = sendIdle
	r.mu.Unlock()
	r.notify()
}

// =============================================================================
// RENAME
// =============================================================================

// StartRename puts a session into rename edit mode. Starting a new edit
// implicitly cancels any other in-progress edit without side effects.
func (r *Reconciler) StartRename(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(sessionID) < 0 {
		return ErrUnknownSession
	}
	r.editingID = sessionID
	return nil
}

// CancelRename leaves rename edit mode without side effects.
func (r *Reconciler) CancelRename() {
	r.mu.Lock()
	r.editingID = ""
	r.mu.Unlock()
	r.notify()
}

// Rename applies a new title optimistically and commits it remotely.
// An empty or unchanged title is a silent no-op with no remote call.
// On remote failure the pre-rename list snapshot is restored.
func (r *Reconciler) Rename(ctx context.Context, sessionID, title string) error {
	title = strings.TrimSpace(title)

	r.mu.Lock()
	r.editingID = ""
	idx := r.indexOf(sessionID)
	if idx < 0 {
		r.mu.Unlock()
		return ErrUnknownSession
	}
	if title == "" || r.sessions[idx].TitleEquals(title) {
		r.mu.Unlock()
		r.notify()
		return nil
	}

	// Snapshot-before, apply-locally, commit-remote, restore-on-failure.
	snapshot := model.CloneSessions(r.sessions)
	r.sessions[idx] = r.sessions[idx].WithTitle(title)
	r.mu.Unlock()
	r.notify()

	if _, err := r.apiClient.RenameSession(ctx, sessionID, title); err != nil {
		r.mu.Lock()
		r.sessions = snapshot
		r.mu.Unlock()
		r.notify()
		return fmt.Errorf("rename failed: %w", err)
	}

	r.mu.Lock()
	sessions := model.CloneSessions(r.sessions)
	r.mu.Unlock()
	r.cacheSessions(sessions)
	return nil
}

// =============================================================================
// DELETE
// =============================================================================

// RequestDelete marks a session for deletion pending confirmation.
func (r *Reconciler) RequestDelete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(sessionID) < 0 {
		return ErrUnknownSession
	}
	r.pendingDeleteID = sessionID
	return nil
}

// CancelDelete clears the pending delete marker.
func (r *Reconciler) CancelDelete() {
	r.mu.Lock()
	r.pendingDeleteID = ""
	r.mu.Unlock()
	r.notify()
}

// ConfirmDelete removes the pending session locally, clearing the active
// session and its messages when it was active, then deletes it remotely.
// On remote failure the session list is resynced from the store (the
// local copy needed for a precise revert is already gone) and the error
// is surfaced.
func (r *Reconciler) ConfirmDelete(ctx context.Context) error {
	r.mu.Lock()
	id := r.pendingDeleteID
	if id == "" {
		r.mu.Unlock()
		return ErrNoPendingDelete
	}
	r.pendingDeleteID = ""

	if idx := r.indexOf(id); idx >= 0 {
		r.sessions = append(r.sessions[:idx], r.sessions[idx+1:]...)
	}
	if r.activeID == id {
		r.activeID = ""
		r.messages = nil
	}
	r.mu.Unlock()
	r.notify()

	if err := r.apiClient.DeleteSession(ctx, id); err != nil {
		if resyncErr := r.LoadSessions(ctx); resyncErr != nil {
			r.logf("resync after failed delete also failed: %v", resyncErr)
		}
		return fmt.Errorf("delete failed: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.DeleteSession(id); err != nil {
			r.logf("cache eviction failed: %v", err)
		}
	}
	return nil
}

// =============================================================================
// CACHE HELPERS
// =============================================================================

// cacheSessions mirrors the session list into the local cache, best effort.
func (r *Reconciler) cacheSessions(sessions []model.ChatSession) {
	if r.cache == nil {
		return
	}
	if err := r.cache.PutSessions(sessions); err != nil {
		r.logf("session cache write failed: %v", err)
	}
}

// cacheMessages mirrors one session's messages into the local cache.
func (r *Reconciler) cacheMessages(sessionID string, messages []model.Message) {
	if r.cache == nil || sessionID == "" {
		return
	}
	if err := r.cache.PutMessages(sessionID, messages); err != nil {
		r.logf("message cache write failed: %v", err)
	}
}
