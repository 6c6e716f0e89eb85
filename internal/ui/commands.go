// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// COMMANDS
// =============================================================================
//
// Every command captures the values it needs instead of touching the model
// from its goroutine; results come back as messages and are applied in Update.

// listenForEvents blocks on the controller event channel and forwards one
// event. Update re-issues it after every delivery.
func (m *Model) listenForEvents() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return ControllerEventMsg{Event: ev}
	}
}

// sendCmd runs the blocking ask round-trip. Transcript updates arrive as
// controller events while this runs.
func (m *Model) sendCmd(text string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return SendDoneMsg{Err: ctrl.Send(context.Background(), text)}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return SessionsRefreshedMsg{Err: store.Refresh(context.Background())}
	}
}

func (m *Model) newChatCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		_, err := store.Create(context.Background(), "")
		return SessionCreatedMsg{Err: err}
	}
}

func (m *Model) selectCmd(chatID string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return SessionSelectedMsg{Err: store.Select(context.Background(), chatID)}
	}
}

func (m *Model) renameCmd(chatID, title string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return SessionRenamedMsg{Err: store.Rename(context.Background(), chatID, title)}
	}
}

func (m *Model) deleteCmd(chatID string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return SessionDeletedMsg{Err: store.Delete(context.Background(), chatID)}
	}
}

func (m *Model) loadDocumentsCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		docs, err := client.ListDocuments(context.Background())
		return DocumentsLoadedMsg{Docs: docs, Err: err}
	}
}
