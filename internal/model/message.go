// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// ParseRole maps a backend role string to a Role. The backend calls the
// assistant "bot" in session detail responses; everything unrecognized is
// treated as system so it still displays without being attributed to a user.
func ParseRole(s string) Role {
	switch s {
	case "user":
		return RoleUser
	case "assistant", "bot":
		return RoleAssistant
	case "system":
		return RoleSystem
	default:
		return RoleSystem
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Metadata carries answer provenance reported by the backend for a
// retrieval answer. Values are stored verbatim for display; the backend is
// the trust boundary for their validity.
type Metadata struct {
	SelectedDocument    string  `json:"selected_document,omitempty"`
	SelectionScore      float64 `json:"selection_score,omitempty"`
	DocumentsConsidered int     `json:"documents_considered,omitempty"`
}

// Message represents a single message in a conversation.
// Messages are append-only: once added to a conversation they are never
// edited or individually removed.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Answer provenance (assistant messages from retrieval answers).
	Metadata *Metadata `json:"metadata,omitempty"`

	// Outcome flags for assistant messages.
	IsError   bool `json:"is_error,omitempty"`
	IsSuccess bool `json:"is_success,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        "msg_" + uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a successful assistant message with optional
// provenance metadata.
func NewAssistantMessage(content string, meta *Metadata) *Message {
	msg := NewMessage(RoleAssistant, content)
	msg.Metadata = meta
	msg.IsSuccess = true
	return msg
}

// NewErrorMessage creates an assistant message flagged as an error.
func NewErrorMessage(content string) *Message {
	msg := NewMessage(RoleAssistant, content)
	msg.IsError = true
	return msg
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// Preview returns a whitespace-collapsed, truncated preview of the content.
func (m *Message) Preview(maxRunes int) string {
	return util.Preview(m.Content, maxRunes)
}
