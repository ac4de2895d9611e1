// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/neel-drishti/floatchat-tui/internal/session"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// loadSessionsCmd refreshes the session list.
func (m Model) loadSessionsCmd() tea.Cmd {
	r := m.reconciler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return SessionsLoadedMsg{Err: r.LoadSessions(ctx)}
	}
}

// selectSessionCmd switches the active session.
func (m Model) selectSessionCmd(sessionID string) tea.Cmd {
	r := m.reconciler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return SessionSelectedMsg{SessionID: sessionID, Err: r.Select(ctx, sessionID)}
	}
}

// sendCmd streams a query. No timeout; long answers stream for as long
// as they need, and failures settle into the transcript.
func (m Model) sendCmd(text string) tea.Cmd {
	r := m.reconciler
	return func() tea.Msg {
		return SendFinishedMsg{Err: r.Send(context.Background(), text)}
	}
}

// renameCmd commits a rename.
func (m Model) renameCmd(sessionID, title string) tea.Cmd {
	r := m.reconciler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return RenameFinishedMsg{Err: r.Rename(ctx, sessionID, title)}
	}
}

// confirmDeleteCmd commits a pending delete.
func (m Model) confirmDeleteCmd() tea.Cmd {
	r := m.reconciler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return DeleteFinishedMsg{Err: r.ConfirmDelete(ctx)}
	}
}

// clearStatusAfter clears the status line after a delay.
func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// =============================================================================
// INIT AND UPDATE
// =============================================================================

// Init starts blinking the cursor and loads the session list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.loadSessionsCmd())
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg.Width, msg.Height)
		return m, nil

	case StateChangedMsg:
		m.refreshTranscript()
		m.clampCursor()
		return m, nil

	case SessionsLoadedMsg:
		m.clampCursor()
		m.refreshTranscript()
		if msg.Err != nil {
			return m.withError("Session list unavailable; showing last known state"), nil
		}
		return m, nil

	case SessionSelectedMsg:
		m.refreshTranscript()
		if msg.Err != nil {
			return m.withError("Could not open session: " + msg.Err.Error()), nil
		}
		m.focus = focusInput
		m.input.Focus()
		return m, nil

	case SendFinishedMsg:
		m.refreshTranscript()
		if msg.Err != nil && !errors.Is(msg.Err, session.ErrSendInFlight) {
			// The transcript already shows the failure notice; the
			// status line just points at it.
			return m.withError("Send failed"), nil
		}
		return m, nil

	case RenameFinishedMsg:
		m.refreshTranscript()
		if msg.Err != nil {
			return m.withError("Rename failed; title restored"), nil
		}
		return m, nil

	case DeleteFinishedMsg:
		m.clampCursor()
		m.refreshTranscript()
		if msg.Err != nil {
			return m.withError("Delete failed; list resynced"), nil
		}
		return m, nil

	case StatusMsg:
		m.status = msg.Text
		m.statusIsErr = false
		return m, clearStatusAfter(4 * time.Second)

	case ClearStatusMsg:
		m.status = ""
		m.statusIsErr = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// withError sets an error status line.
func (m Model) withError(text string) Model {
	m.status = text
	m.statusIsErr = true
	return m
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// Global bindings first
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	switch m.focus {
	case focusRename:
		return m.handleRenameKey(msg)
	case focusSidebar:
		return m.handleSidebarKey(msg)
	default:
		return m.handleInputKey(msg)
	}
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		text := m.input.Value()
		if m.reconciler.SendInFlight() {
			return m.withError("Still answering; wait for the reply to finish"), nil
		}
		m.input.SetValue("")
		return m, m.sendCmd(text)

	case key.Matches(msg, m.keys.NewChat):
		return m, m.selectSessionCmd("")

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadSessionsCmd()

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.focus = focusSidebar
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	sessions := m.reconciler.Sessions()

	// A pending delete narrows input to confirm or cancel.
	if m.reconciler.PendingDelete() != "" {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m, m.confirmDeleteCmd()
		case key.Matches(msg, m.keys.Cancel), msg.String() == "n":
			m.reconciler.CancelDelete()
			return m, nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.NextSession):
		if m.cursor < len(sessions)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevSession):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Send):
		if m.cursor < len(sessions) {
			return m, m.selectSessionCmd(sessions[m.cursor].ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Rename):
		if m.cursor < len(sessions) {
			s := sessions[m.cursor]
			if err := m.reconciler.StartRename(s.ID); err != nil {
				return m.withError(err.Error()), nil
			}
			m.focus = focusRename
			m.renameInput.SetValue(s.DisplayTitle())
			m.renameInput.CursorEnd()
			m.renameInput.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.cursor < len(sessions) {
			if err := m.reconciler.RequestDelete(sessions[m.cursor].ID); err != nil {
				return m.withError(err.Error()), nil
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		return m, m.selectSessionCmd("")

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadSessionsCmd()

	case key.Matches(msg, m.keys.ToggleSidebar), key.Matches(msg, m.keys.Cancel):
		m.focus = focusInput
		m.input.Focus()
		return m, nil
	}

	return m, nil
}

func (m Model) handleRenameKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	editingID := m.reconciler.EditingID()

	switch {
	case key.Matches(msg, m.keys.Send):
		title := m.renameInput.Value()
		m.focus = focusSidebar
		m.renameInput.Blur()
		return m, m.renameCmd(editingID, title)

	case key.Matches(msg, m.keys.Cancel):
		m.reconciler.CancelRename()
		m.focus = focusSidebar
		m.renameInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.renameInput, cmd = m.renameInput.Update(msg)
	return m, cmd
}
