// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/neel-drishti/floatchat-tui/internal/model"
	"github.com/neel-drishti/floatchat-tui/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the complete chat view.
// Layout: header (1 line) + sidebar/transcript columns + input + status.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderSidebar(),
		m.viewport.View(),
	)
	input := m.renderInput()
	status := m.renderStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, status)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("FloatChat")
	subtitle := m.theme.SidebarHint.Render(" ocean float telemetry")
	return m.theme.Header.Width(m.width).Render(title + subtitle)
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar() string {
	sessions := m.reconciler.Sessions()
	activeID := m.reconciler.ActiveID()
	editingID := m.reconciler.EditingID()
	pendingDelete := m.reconciler.PendingDelete()

	innerWidth := m.sidebarWidth - 3
	var b strings.Builder
	b.WriteString(m.theme.RoleLabel.Render("Sessions"))
	b.WriteString("\n")

	if len(sessions) == 0 {
		b.WriteString(m.theme.SidebarHint.Render("no sessions yet"))
		b.WriteString("\n")
	}

	for i, s := range sessions {
		// An open rename edit replaces the row with the input field.
		if s.ID == editingID && m.focus == focusRename {
			b.WriteString(m.renameInput.View())
			b.WriteString("\n")
			continue
		}

		label := util.TruncateWidth(s.DisplayTitle(), innerWidth)
		style := m.theme.SessionItem
		prefix := "  "
		if s.ID == activeID {
			prefix = "* "
		}
		if m.focus == focusSidebar && i == m.cursor {
			style = m.theme.SessionItemSelected
			prefix = "> "
		}
		if s.ID == pendingDelete {
			style = m.theme.SessionItemPending
			label = util.TruncateWidth(s.DisplayTitle(), innerWidth-9) + " del? y/n"
		}
		b.WriteString(style.Render(prefix + label))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.focus == focusSidebar {
		b.WriteString(m.theme.SidebarHint.Render("enter open · r rename · d delete"))
	} else {
		b.WriteString(m.theme.SidebarHint.Render("tab to browse sessions"))
	}

	return m.theme.Sidebar.
		Width(m.sidebarWidth).
		Height(m.viewport.Height).
		Render(b.String())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders every message of the active conversation.
func (m Model) renderTranscript() string {
	messages := m.reconciler.Messages()
	if len(messages) == 0 {
		return m.theme.SidebarHint.Render(
			"\n  Ask about ARGO float data: temperature, salinity, trajectories...")
	}

	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, m.renderMessage(msg))
	}
	return strings.Join(parts, "\n")
}

func (m Model) renderMessage(msg model.Message) string {
	var b strings.Builder

	label := m.theme.RoleLabel.Render(msg.Role.DisplayName())
	if !msg.CreatedAt.IsZero() {
		label += " " + m.theme.Timestamp.Render(msg.CreatedAt.Format("15:04"))
	}
	b.WriteString(label)
	b.WriteString("\n")

	content := msg.DisplayContent()
	if msg.IsStreaming && content == "" {
		b.WriteString(m.theme.Spinner.Render(m.spinner.View()) +
			m.theme.ThinkingText.Render(" thinking..."))
		return b.String()
	}

	switch msg.Role {
	case model.RoleUser:
		b.WriteString(m.theme.UserBubble.Render(content))
	default:
		b.WriteString(m.theme.AssistantBubble.Render(m.renderAssistantBody(content)))
		if msg.Meta != nil && msg.Meta.Visualization != nil {
			viz := msg.Meta.Visualization
			badge := "◆ visualization: " + viz.Type
			if viz.Title != "" {
				badge += " — " + viz.Title
			}
			b.WriteString("\n" + m.theme.VizBadge.Render(badge))
		}
		if msg.IsStreaming {
			b.WriteString(m.theme.Spinner.Render(" " + m.spinner.View()))
		}
	}
	return b.String()
}

// renderAssistantBody runs assistant markdown through glamour when
// enabled, falling back to the raw text on any rendering error.
func (m Model) renderAssistantBody(content string) string {
	if m.markdown == nil {
		return content
	}
	rendered, err := m.markdown.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// =============================================================================
// INPUT AND STATUS
// =============================================================================

func (m Model) renderInput() string {
	prompt := m.theme.InputPrompt.Render("> ")
	return m.theme.InputContainer.Width(m.width).Render(prompt + m.input.View())
}

func (m Model) renderStatusBar() string {
	if m.status != "" {
		style := m.theme.StatusBar
		if m.statusIsErr {
			style = m.theme.StatusError
		}
		return style.Width(m.width).Render(m.status)
	}

	shortcuts := []string{
		m.theme.ShortcutKey.Render("enter") + m.theme.ShortcutDesc.Render(" send"),
		m.theme.ShortcutKey.Render("tab") + m.theme.ShortcutDesc.Render(" sessions"),
		m.theme.ShortcutKey.Render("ctrl+n") + m.theme.ShortcutDesc.Render(" new"),
		m.theme.ShortcutKey.Render("ctrl+c") + m.theme.ShortcutDesc.Render(" quit"),
	}
	line := strings.Join(shortcuts, "  ")
	if m.reconciler.SendInFlight() {
		line = m.theme.Spinner.Render(m.spinner.View()) +
			m.theme.ThinkingText.Render(" streaming  ") + line
	}
	return m.theme.StatusBar.Width(m.width).Render(line)
}
