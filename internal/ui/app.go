// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/api"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/config"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/conversation"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/render"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/session"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// focusArea tracks which pane owns keyboard input.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// Layout rows reserved outside the transcript viewport: header, input box
// (bordered, three rows), status bar.
const reservedRows = 5

// Model is the root Bubble Tea model for the chat interface.
type Model struct {
	cfg    *config.Config
	store  *session.Store
	ctrl   *conversation.Controller
	client *api.Client
	events <-chan conversation.Event

	theme    styles.Theme
	keys     KeyMap
	renderer *render.TerminalRenderer

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	width  int
	height int
	ready  bool

	busy            bool
	confirmingReset bool
	pendingDelete   string
	focus           focusArea
	sidebarIndex    int
	renaming        bool
	renameTarget    string

	toast    string
	toastErr bool
	toastSeq int

	debugLine string

	docs     []api.DocumentInfo
	showDocs bool
}

// New builds the root model. The events channel must be the one the
// controller's notify callback writes to; the UI drains it for the life of
// the program.
func New(cfg *config.Config, store *session.Store, ctrl *conversation.Controller, client *api.Client, events <-chan conversation.Event) Model {
	input := textinput.New()
	input.Placeholder = "Ask a question about your documents..."
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	return Model{
		cfg:      cfg,
		store:    store,
		ctrl:     ctrl,
		client:   client,
		events:   events,
		theme:    styles.NewTheme(),
		keys:     DefaultKeyMap(),
		renderer: render.NewTerminalRenderer(80, cfg.UI.Theme),
		input:    input,
		spin:     sp,
	}
}

// Init starts the event bridge and cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listenForEvents())
}

// =============================================================================
// UPDATE
// =============================================================================

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.applyResize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ControllerEventMsg:
		cmd := m.applyEvent(msg.Event)
		return m, tea.Batch(cmd, m.listenForEvents())

	case SendDoneMsg:
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			// Transcript already carries the error message; the toast is a
			// short pointer for when the user has scrolled away.
			return m, m.setToast("request failed", true)
		}
		return m, nil

	case SessionsRefreshedMsg:
		m.clampSidebar()
		m.refreshViewport()
		if msg.Err != nil {
			return m, m.setToast("could not reach server; sessions unchanged", true)
		}
		return m, nil

	case SessionCreatedMsg:
		m.sidebarIndex = 0
		m.refreshViewport()
		if msg.Err != nil {
			return m, m.setToast("could not create chat", true)
		}
		return m, nil

	case SessionSelectedMsg:
		m.refreshViewport()
		if msg.Err != nil {
			return m, m.setToast("could not load chat history", true)
		}
		return m, nil

	case SessionRenamedMsg:
		if msg.Err != nil {
			return m, m.setToast(renameFailureText(msg.Err), true)
		}
		return m, m.setToast("chat renamed", false)

	case SessionDeletedMsg:
		m.clampSidebar()
		m.refreshViewport()
		if msg.Err != nil {
			return m, m.setToast("delete failed; chat restored", true)
		}
		return m, m.setToast("chat deleted", false)

	case DocumentsLoadedMsg:
		if msg.Err != nil {
			return m, m.setToast("could not list documents", true)
		}
		m.docs = msg.Docs
		m.showDocs = true
		return m, nil

	case ConfigReloadedMsg:
		m.cfg.UI = msg.Config.UI
		m.cfg.Export = msg.Config.Export
		m.renderer.SetTheme(m.cfg.UI.Theme)
		m.applyResize(m.width, m.height)
		m.refreshViewport()
		return m, m.setToast("config reloaded", false)

	case toastExpireMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Delete confirmation is modal: only y/n/esc mean anything.
	if m.pendingDelete != "" {
		target := m.pendingDelete
		switch msg.String() {
		case "y", "Y", "enter":
			m.pendingDelete = ""
			return m, m.deleteCmd(target)
		case "n", "N", "esc":
			m.pendingDelete = ""
		}
		return m, nil
	}

	// Reset confirmation is modal: only y/n/esc mean anything.
	if m.confirmingReset {
		switch msg.String() {
		case "y", "Y", "enter":
			m.ctrl.ConfirmReset()
			m.refreshViewport()
		case "n", "N", "esc":
			m.ctrl.CancelReset()
		}
		return m, nil
	}

	if m.showDocs {
		m.showDocs = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.busy {
			m.ctrl.Abort()
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.busy {
			m.ctrl.Abort()
			return m, nil
		}
		if m.renaming {
			m.stopRenaming()
			return m, nil
		}
		if m.focus == focusSidebar {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleSide):
		if m.focus == focusInput {
			m.focus = focusSidebar
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		return m, m.newChatCmd()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.Clear):
		if err := m.ctrl.RequestReset(); err != nil {
			return m, m.setToast("wait for the current answer first", true)
		}
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.handleSubmit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	chats := m.store.Chats()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}

	case key.Matches(msg, m.keys.Down):
		if m.sidebarIndex < len(chats)-1 {
			m.sidebarIndex++
		}

	case key.Matches(msg, m.keys.Select):
		if m.sidebarIndex < len(chats) {
			id := chats[m.sidebarIndex].ID
			m.focus = focusInput
			m.input.Focus()
			return m, m.selectCmd(id)
		}

	case key.Matches(msg, m.keys.Rename):
		if m.sidebarIndex < len(chats) {
			m.startRenaming(chats[m.sidebarIndex])
		}

	case key.Matches(msg, m.keys.Delete):
		if m.sidebarIndex < len(chats) {
			m.pendingDelete = chats[m.sidebarIndex].ID
		}

	case key.Matches(msg, m.keys.Documents):
		return m, m.loadDocumentsCmd()
	}
	return m, nil
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := m.input.Value()

	if m.renaming {
		target := m.renameTarget
		m.stopRenaming()
		return m, m.renameCmd(target, text)
	}

	if m.busy {
		return m, m.setToast("still answering; Esc to cancel", true)
	}
	if text == "" {
		return m, nil
	}
	m.input.Reset()
	return m, m.sendCmd(text)
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// applyEvent folds one controller event into the model and returns any
// follow-up command (spinner tick on entering the awaiting state).
func (m *Model) applyEvent(ev conversation.Event) tea.Cmd {
	switch ev.Kind {
	case conversation.EventMessage:
		m.refreshViewport()
		m.viewport.GotoBottom()

	case conversation.EventDebug:
		if m.cfg.UI.ShowDebug {
			m.debugLine = ev.Debug
			if ev.Intent != "" {
				m.debugLine = ev.Intent + ": " + ev.Debug
			}
		}

	case conversation.EventState:
		wasBusy := m.busy
		m.busy = ev.State == conversation.StateAwaiting
		m.confirmingReset = ev.State == conversation.StateConfirmReset
		if !m.busy {
			m.debugLine = ""
		}
		if m.busy && !wasBusy {
			return m.spin.Tick
		}
	}
	return nil
}

func (m *Model) startRenaming(chat model.ChatInfo) {
	m.renaming = true
	m.renameTarget = chat.ID
	m.focus = focusInput
	m.input.Placeholder = "New title..."
	m.input.SetValue(chat.DisplayTitle())
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) stopRenaming() {
	m.renaming = false
	m.renameTarget = ""
	m.input.Reset()
	m.input.Placeholder = "Ask a question about your documents..."
}

func (m *Model) setToast(text string, isErr bool) tea.Cmd {
	m.toast = text
	m.toastErr = isErr
	m.toastSeq++
	return expireToast(m.toastSeq)
}

func (m *Model) clampSidebar() {
	if n := len(m.store.Chats()); m.sidebarIndex >= n {
		m.sidebarIndex = n - 1
	}
	if m.sidebarIndex < 0 {
		m.sidebarIndex = 0
	}
}

func (m *Model) applyResize(width, height int) {
	m.width = width
	m.height = height

	transcriptWidth := width - m.sidebarWidth()
	m.viewport.Width = transcriptWidth
	m.viewport.Height = height - reservedRows
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.input.Width = width - 6
	m.renderer.SetWidth(transcriptWidth - 2)
	m.ready = true
	m.refreshViewport()
	m.viewport.GotoBottom()
}

// sidebarWidth returns the configured sidebar width, or zero when the
// terminal is too narrow to split.
func (m *Model) sidebarWidth() int {
	w := m.cfg.UI.SidebarWidth
	if w <= 0 {
		w = 28
	}
	if m.width > 0 && m.width < w*3 {
		return 0
	}
	return w
}

func renameFailureText(err error) string {
	switch {
	case errors.Is(err, session.ErrEmptyTitle):
		return "title cannot be empty"
	case errors.Is(err, session.ErrLocalSession):
		return "offline chat cannot be renamed"
	default:
		return "rename failed; title restored"
	}
}
