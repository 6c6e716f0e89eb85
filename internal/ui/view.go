// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteByte('\n')

	main := m.viewport.View()
	if m.showDocs {
		main = m.documentsView()
	}
	if sw := m.sidebarWidth(); sw > 0 {
		side := m.sidebarView(sw)
		main = lipgloss.JoinHorizontal(lipgloss.Top, side, main)
	}
	b.WriteString(main)
	b.WriteByte('\n')

	b.WriteString(m.theme.InputBox.Width(m.width - 2).Render(m.inputView()))
	b.WriteByte('\n')
	b.WriteString(m.statusView())
	return b.String()
}

func (m Model) headerView() string {
	title := m.theme.Title.Render("docchat")
	active := ""
	if chat := m.store.Active(); chat != nil {
		active = m.theme.Subtitle.Render("  " + chat.DisplayTitle())
	}
	badge := ""
	if m.store.IsLocal() {
		badge = "  " + m.theme.OfflineBadge.Render("[offline]")
	}
	return title + active + badge
}

func (m Model) inputView() string {
	prompt := m.theme.InputPrompt.Render("> ")
	if m.renaming {
		prompt = m.theme.InputPrompt.Render("rename> ")
	}
	return prompt + m.input.View()
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) sidebarView(width int) string {
	inner := width - 3 // border and padding
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Chats"))
	b.WriteByte('\n')

	chats := m.store.Chats()
	activeID := m.store.ActiveID()
	visible := m.viewport.Height - 1
	for i, chat := range chats {
		if i >= visible {
			b.WriteString(m.theme.SessionMeta.Render(fmt.Sprintf("+%d more", len(chats)-visible)))
			break
		}
		marker := "  "
		style := m.theme.SessionItem
		if chat.ID == activeID {
			marker = "* "
			style = m.theme.SessionActive
		}
		if m.focus == focusSidebar && i == m.sidebarIndex {
			marker = "> "
			style = m.theme.SessionActive
		}
		// Pad to the full row so the highlight covers the row, not just
		// the title.
		title := util.PadRight(util.TruncateWidth(chat.DisplayTitle(), inner-2), inner-2)
		b.WriteString(marker + style.Render(title))
		b.WriteByte('\n')
	}
	if len(chats) == 0 {
		b.WriteString(m.theme.SessionMeta.Render("no chats yet"))
		b.WriteByte('\n')
	}

	return m.theme.Sidebar.
		Width(width - 1).
		Height(m.viewport.Height).
		Render(b.String())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport rebuilds the transcript content from the active
// conversation. Called whenever messages or the active session change.
func (m *Model) refreshViewport() {
	msgs := m.store.Messages()
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteByte('\n')
	}
	m.viewport.SetContent(b.String())
}

func (m *Model) renderMessage(msg *model.Message) string {
	label := m.roleLabel(msg.Role)
	if m.cfg.UI.ShowTimestamps {
		label += "  " + m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	}

	var body string
	switch {
	case msg.IsError:
		body = m.theme.ErrorText.Render(msg.Content)
	case msg.Role == model.RoleAssistant:
		body = m.renderer.Render(msg.Content)
	default:
		body = msg.Content
	}

	out := label + "\n" + body
	if prov := provenanceLine(msg.Metadata); prov != "" {
		out += "\n" + m.theme.Provenance.Render(prov)
	}
	return out
}

func (m *Model) roleLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return m.theme.UserLabel.Render(role.DisplayName())
	case model.RoleAssistant:
		return m.theme.AssistantLabel.Render(role.DisplayName())
	default:
		return m.theme.SystemLabel.Render(role.DisplayName())
	}
}

// provenanceLine summarizes which document the answer drew on.
func provenanceLine(meta *model.Metadata) string {
	if meta == nil || meta.SelectedDocument == "" {
		return ""
	}
	line := "source: " + meta.SelectedDocument
	if meta.SelectionScore > 0 {
		line += fmt.Sprintf(" (score %.2f", meta.SelectionScore)
		if meta.DocumentsConsidered > 0 {
			line += fmt.Sprintf(", %d considered", meta.DocumentsConsidered)
		}
		line += ")"
	}
	return line
}

// =============================================================================
// DOCUMENTS OVERLAY
// =============================================================================

func (m Model) documentsView() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Documents on server"))
	b.WriteString("\n\n")
	if len(m.docs) == 0 {
		b.WriteString(m.theme.Subtitle.Render("none uploaded yet"))
	}
	for _, d := range m.docs {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			d.Name, m.theme.SessionMeta.Render(d.Status)))
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render("press any key to close"))
	return lipgloss.NewStyle().
		Width(m.viewport.Width).
		Height(m.viewport.Height).
		Render(b.String())
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) statusView() string {
	var left string
	switch {
	case m.pendingDelete != "":
		left = m.theme.ConfirmPrompt.Render("Delete this chat? y/n")
	case m.confirmingReset:
		left = m.theme.ConfirmPrompt.Render("Clear this conversation? y/n")
	case m.busy:
		left = m.theme.Spinner.Render(m.spin.View()) + " " +
			m.theme.StatusDesc.Render("thinking...")
		if m.debugLine != "" {
			left += "  " + m.theme.DebugLine.Render(util.TruncateWidth(m.debugLine, m.width/2))
		}
	case m.toast != "":
		if m.toastErr {
			left = m.theme.ToastError.Render(m.toast)
		} else {
			left = m.theme.Toast.Render(m.toast)
		}
	default:
		left = m.hintsView()
	}
	return m.theme.StatusBar.Width(m.width).Render(left)
}

func (m Model) hintsView() string {
	hints := []struct{ k, d string }{
		{"Enter", "ask"},
		{"Tab", "sessions"},
		{"C-n", "new"},
		{"C-l", "clear"},
		{"C-c", "quit"},
	}
	if m.focus == focusSidebar {
		hints = []struct{ k, d string }{
			{"Enter", "open"},
			{"r", "rename"},
			{"d", "delete"},
			{"o", "documents"},
			{"Esc", "back"},
		}
	}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, m.theme.StatusKey.Render(h.k)+" "+m.theme.StatusDesc.Render(h.d))
	}
	return strings.Join(parts, "  ")
}
