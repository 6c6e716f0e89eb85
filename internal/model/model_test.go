// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"user", RoleUser},
		{"assistant", RoleAssistant},
		{"bot", RoleAssistant},
		{"system", RoleSystem},
		{"tool", RoleSystem},
		{"", RoleSystem},
	}

	for _, tc := range tests {
		if got := ParseRole(tc.in); got != tc.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewAssistantMessage(t *testing.T) {
	meta := &Metadata{SelectedDocument: "doc1.pdf", SelectionScore: 0.92, DocumentsConsidered: 3}
	msg := NewAssistantMessage("answer", meta)

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want assistant", msg.Role)
	}
	if !msg.IsSuccess || msg.IsError {
		t.Errorf("flags = success:%v error:%v, want success only", msg.IsSuccess, msg.IsError)
	}
	if msg.Metadata.SelectedDocument != "doc1.pdf" {
		t.Errorf("SelectedDocument = %q", msg.Metadata.SelectedDocument)
	}
	if msg.ID == "" || msg.Timestamp.IsZero() {
		t.Error("message missing id or timestamp")
	}
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("something failed")
	if !msg.IsError || msg.IsSuccess {
		t.Errorf("flags = error:%v success:%v, want error only", msg.IsError, msg.IsSuccess)
	}
	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want assistant", msg.Role)
	}
}

func TestMessageIDsUnique(t *testing.T) {
	a := NewUserMessage("a")
	b := NewUserMessage("b")
	if a.ID == b.ID {
		t.Error("two messages share an ID")
	}
}

func TestConversationLifecycle(t *testing.T) {
	conv := NewConversation("abc")

	if conv.Len() != 1 || conv.Messages[0].Role != RoleSystem {
		t.Fatalf("new conversation should hold exactly the welcome message, got %d", conv.Len())
	}

	conv.Append(NewUserMessage("What is the dosage?"))
	conv.Append(NewAssistantMessage("250mg twice daily", nil))
	if conv.Len() != 3 {
		t.Errorf("Len = %d, want 3", conv.Len())
	}
	if conv.Messages[2].Role != RoleAssistant {
		t.Errorf("last role = %q, want assistant", conv.Messages[2].Role)
	}

	conv.Reset()
	if conv.Len() != 1 || conv.Messages[0].Content != WelcomeText {
		t.Errorf("reset should leave a single welcome message, got %d", conv.Len())
	}
}

func TestTitleFromFirstQuestion(t *testing.T) {
	conv := NewConversation("abc")
	if got := conv.TitleFromFirstQuestion(); got != "" {
		t.Errorf("title before any user message = %q, want empty", got)
	}

	conv.Append(NewUserMessage("What were the adverse events reported in the phase 3 trial of the study drug?"))
	got := conv.TitleFromFirstQuestion()
	if got == "" || len([]rune(got)) > 50 {
		t.Errorf("title = %q, want non-empty and <= 50 runes", got)
	}
}

func TestLocalChatSentinel(t *testing.T) {
	chat := NewLocalChat()
	if !chat.IsLocal() {
		t.Error("NewLocalChat should be local")
	}
	other := ChatInfo{ID: "chat_1"}
	if other.IsLocal() {
		t.Error("regular chat should not be local")
	}
}
