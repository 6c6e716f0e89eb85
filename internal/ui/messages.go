// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/api"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/config"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/conversation"
)

// ConfigReloadedMsg carries a freshly reloaded config file. Only display
// settings are applied; connection settings need a restart.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// CONTROLLER BRIDGE
// =============================================================================

// ControllerEventMsg delivers one conversation controller event into the
// Bubble Tea loop.
type ControllerEventMsg struct {
	Event conversation.Event
}

// SendDoneMsg signals that a blocking Send call returned.
type SendDoneMsg struct {
	Err error
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionsRefreshedMsg signals that the session list was reloaded.
type SessionsRefreshedMsg struct {
	Err error
}

// SessionSelectedMsg signals that a session switch finished.
type SessionSelectedMsg struct {
	Err error
}

// SessionCreatedMsg signals that a new session was created.
type SessionCreatedMsg struct {
	Err error
}

// SessionRenamedMsg signals that a rename round-trip finished.
type SessionRenamedMsg struct {
	Err error
}

// SessionDeletedMsg signals that a delete round-trip finished.
type SessionDeletedMsg struct {
	Err error
}

// =============================================================================
// DOCUMENTS AND TOASTS
// =============================================================================

// DocumentsLoadedMsg carries the server's document inventory.
type DocumentsLoadedMsg struct {
	Docs []api.DocumentInfo
	Err  error
}

// toastExpireMsg dismisses the transient status line. The sequence number
// is matched against the current toast so a stale timer cannot clear a
// newer message.
type toastExpireMsg struct {
	seq int
}

// toastDuration is how long a transient status line stays visible.
const toastDuration = 5 * time.Second

func expireToast(seq int) tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpireMsg{seq: seq}
	})
}
