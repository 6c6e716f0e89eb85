// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/util"
)

// LocalChatID is the sentinel session id used when the backend is
// unreachable and the client runs in degraded offline mode. It exists only
// in memory and must never be sent to the server.
const LocalChatID = "local-chat"

// WelcomeText is the system message seeding a fresh or reset conversation.
const WelcomeText = "Hello! Upload a document and ask me anything about it. " +
	"I will pick the most relevant document for each question."

// =============================================================================
// CHAT INFO
// =============================================================================

// ChatInfo holds session metadata as shown in the sidebar list.
type ChatInfo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	LastMessage  string    `json:"last_message"`
}

// IsLocal reports whether this is the offline sentinel session.
func (c *ChatInfo) IsLocal() bool {
	return c.ID == LocalChatID
}

// DisplayTitle returns the title or a default for untitled sessions.
func (c *ChatInfo) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Chat"
}

// NewLocalChat returns the in-memory sentinel session for offline mode.
func NewLocalChat() ChatInfo {
	now := time.Now()
	return ChatInfo{
		ID:        LocalChatID,
		Title:     "Offline Chat",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation holds the active session's ordered message list.
// The list is append-only; ordering follows append order, which the client
// never rearranges. Clearing history replaces the whole list with a single
// fresh welcome message.
type Conversation struct {
	ChatID   string     `json:"chat_id"`
	Messages []*Message `json:"messages"`
}

// NewConversation creates a conversation seeded with the welcome message.
func NewConversation(chatID string) *Conversation {
	return &Conversation{
		ChatID:   chatID,
		Messages: []*Message{NewSystemMessage(WelcomeText)},
	}
}

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(msg *Message) {
	c.Messages = append(c.Messages, msg)
}

// Replace swaps the whole message list for a server-provided one. The
// server's copy is authoritative; nothing is merged.
func (c *Conversation) Replace(msgs []*Message) {
	c.Messages = msgs
}

// Reset replaces the message list with a single fresh welcome message.
func (c *Conversation) Reset() {
	c.Messages = []*Message{NewSystemMessage(WelcomeText)}
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// TitleFromFirstQuestion derives a session title from the first user
// message, truncated for the sidebar. Returns "" when no user message
// exists yet.
func (c *Conversation) TitleFromFirstQuestion() string {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return util.Preview(msg.Content, 50)
		}
	}
	return ""
}
