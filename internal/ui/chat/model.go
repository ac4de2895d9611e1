// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/neel-drishti/floatchat-tui/internal/session"
	"github.com/neel-drishti/floatchat-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS STATE
// =============================================================================

// focusArea tracks which surface owns keyboard input.
type focusArea int

const (
	focusInput   focusArea = iota // Typing in the message box
	focusSidebar                  // Navigating the session list
	focusRename                   // Editing a session title inline
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Config configures the chat view.
type Config struct {
	// Reconciler owns all conversation state.
	Reconciler *session.Reconciler
	// SidebarWidth is the session list width in columns.
	SidebarWidth int
	// Markdown enables glamour rendering of assistant replies.
	Markdown bool
}

// Model is the Bubble Tea model for the chat view. All conversation state
// lives in the reconciler; the model only holds presentation state.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	reconciler *session.Reconciler

	// Dimensions
	width  int
	height int
	ready  bool

	// UI components
	viewport    viewport.Model
	input       textinput.Model
	renameInput textinput.Model
	spinner     spinner.Model

	// Focus and sidebar navigation
	focus        focusArea
	cursor       int
	sidebarWidth int

	// Markdown rendering
	renderMarkdown bool
	markdown       *glamour.TermRenderer

	// Transient status line
	status      string
	statusIsErr bool
}

// New creates the chat view.
func New(cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "Ask about float data..."
	input.CharLimit = 2000
	input.Focus()

	renameInput := textinput.New()
	renameInput.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	sidebarWidth := cfg.SidebarWidth
	if sidebarWidth <= 0 {
		sidebarWidth = 28
	}

	return Model{
		theme:          styles.NewTheme(),
		keys:           DefaultKeyMap(),
		reconciler:     cfg.Reconciler,
		input:          input,
		renameInput:    renameInput,
		spinner:        sp,
		sidebarWidth:   sidebarWidth,
		renderMarkdown: cfg.Markdown,
	}
}

// chatWidth returns the width available to the transcript column.
func (m Model) chatWidth() int {
	w := m.width - m.sidebarWidth - 1
	if w < 20 {
		w = m.width
	}
	return w
}

// handleResize recomputes component dimensions and rebuilds the markdown
// renderer for the new wrap width.
func (m *Model) handleResize(width, height int) {
	m.width = width
	m.height = height

	// header (1) + input (2) + status (1)
	viewportHeight := height - 4
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(m.chatWidth(), viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.chatWidth()
		m.viewport.Height = viewportHeight
	}
	m.input.Width = m.chatWidth() - 4

	if m.renderMarkdown {
		wrap := m.chatWidth() - 6
		if wrap < 20 {
			wrap = 20
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err == nil {
			m.markdown = renderer
		}
	}

	m.refreshTranscript()
}

// refreshTranscript rebuilds the viewport content from reconciler state
// and keeps the view pinned to the latest message when it was already at
// the bottom.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// clampCursor keeps the sidebar cursor inside the session list.
func (m *Model) clampCursor() {
	n := len(m.reconciler.Sessions())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
