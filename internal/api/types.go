// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
)

// =============================================================================
// STREAM FRAMES
// =============================================================================

// FrameType tags one decoded unit of the event stream.
type FrameType string

const (
	FrameFinalAnswer  FrameType = "final_answer"
	FrameError        FrameType = "error"
	FrameDebug        FrameType = "debug"
	FrameDirectAnswer FrameType = "direct_answer"
	FrameUnknown      FrameType = "unknown"
)

// Frame is one decoded event-stream frame. Exactly one terminal frame
// (final_answer or error) ends a request; debug frames may precede it any
// number of times. Unrecognized types arrive as FrameUnknown with Raw set.
type Frame struct {
	Type FrameType

	// final_answer / direct_answer
	Answer              string
	SelectedDocument    string
	SelectionScore      float64
	DocumentsConsidered int

	// error
	ErrText string

	// debug
	DebugMessage string
	Intent       string

	// Original payload, kept for unknown frames and inspection.
	Raw json.RawMessage
}

// Terminal reports whether this frame ends the request. direct_answer is
// the terminal frame the backend emits for non-retrieval queries; treating
// it as such keeps the controller from waiting on a stream that has already
// said everything it will.
func (f *Frame) Terminal() bool {
	switch f.Type {
	case FrameFinalAnswer, FrameError, FrameDirectAnswer:
		return true
	}
	return false
}

// Metadata returns the answer provenance carried by this frame, or nil when
// none was reported.
func (f *Frame) Metadata() *model.Metadata {
	if f.SelectedDocument == "" && f.SelectionScore == 0 && f.DocumentsConsidered == 0 {
		return nil
	}
	return &model.Metadata{
		SelectedDocument:    f.SelectedDocument,
		SelectionScore:      f.SelectionScore,
		DocumentsConsidered: f.DocumentsConsidered,
	}
}

// wireFrame is the superset of all frame payload fields.
type wireFrame struct {
	Type                string  `json:"type"`
	Answer              string  `json:"answer"`
	SelectedDocument    string  `json:"selected_document"`
	SelectionScore      float64 `json:"selection_score"`
	DocumentsConsidered int     `json:"documents_considered"`
	Error               string  `json:"error"`
	Message             string  `json:"message"`
	Intent              string  `json:"intent"`
}

// frameFromWire classifies a payload into a Frame.
func frameFromWire(w wireFrame, raw []byte) Frame {
	f := Frame{Raw: json.RawMessage(raw)}

	switch w.Type {
	case "final_answer":
		f.Type = FrameFinalAnswer
		f.Answer = w.Answer
		f.SelectedDocument = w.SelectedDocument
		f.SelectionScore = w.SelectionScore
		f.DocumentsConsidered = w.DocumentsConsidered
	case "direct_answer":
		f.Type = FrameDirectAnswer
		f.Answer = firstNonEmpty(w.Answer, w.Message)
	case "error":
		f.Type = FrameError
		f.ErrText = w.Error
	case "debug":
		f.Type = FrameDebug
		f.DebugMessage = w.Message
		f.Intent = w.Intent
	default:
		f.Type = FrameUnknown
	}

	return f
}

// =============================================================================
// SESSION WIRE TYPES
// =============================================================================

// wireChat covers both summary and detail session shapes. The backend has
// emitted both "chat_id" and "id" over time; normalization picks whichever
// is present.
type wireChat struct {
	ChatID       string        `json:"chat_id"`
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
	MessageCount int           `json:"message_count"`
	LastMessage  string        `json:"last_message"`
	Messages     []wireMessage `json:"messages"`
}

type wireMessage struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	Timestamp string          `json:"timestamp"`
	Metadata  *model.Metadata `json:"metadata"`
}

type listChatsResponse struct {
	Chats []wireChat `json:"chats"`
}

// askResponse covers the non-streaming ask reply, which repeats the answer
// under three historical keys.
type askResponse struct {
	Message             string  `json:"message"`
	Response            string  `json:"response"`
	Answer              string  `json:"answer"`
	SelectedDocument    string  `json:"selected_document"`
	SelectionScore      float64 `json:"selection_score"`
	DocumentsConsidered int     `json:"documents_considered"`
}

// askRequest is the body for both ask variants. ChatID is omitted entirely
// for the offline sentinel session.
type askRequest struct {
	Message string `json:"message"`
	ChatID  string `json:"chat_id,omitempty"`
}

type createChatRequest struct {
	Title string `json:"title"`
}

type renameChatRequest struct {
	Title string `json:"title"`
}

type backendError struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// =============================================================================
// DOCUMENT WIRE TYPES
// =============================================================================

// DocumentInfo describes one uploaded document.
type DocumentInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// listDocumentsResponse covers both shapes the backend has used: a rich
// "documents" list and a bare "pdfs" filename list.
type listDocumentsResponse struct {
	Documents []DocumentInfo `json:"documents"`
	PDFs      []string       `json:"pdfs"`
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// AskResult is the canonical non-streaming answer.
type AskResult struct {
	Answer   string
	Metadata *model.Metadata
}

func normalizeAsk(w askResponse) *AskResult {
	res := &AskResult{Answer: firstNonEmpty(w.Answer, w.Response, w.Message)}
	if w.SelectedDocument != "" || w.DocumentsConsidered > 0 {
		res.Metadata = &model.Metadata{
			SelectedDocument:    w.SelectedDocument,
			SelectionScore:      w.SelectionScore,
			DocumentsConsidered: w.DocumentsConsidered,
		}
	}
	return res
}

func chatFromWire(w wireChat) model.ChatInfo {
	return model.ChatInfo{
		ID:           firstNonEmpty(w.ChatID, w.ID),
		Title:        w.Title,
		CreatedAt:    parseTime(w.CreatedAt),
		UpdatedAt:    parseTime(w.UpdatedAt),
		MessageCount: w.MessageCount,
		LastMessage:  w.LastMessage,
	}
}

func messageFromWire(w wireMessage) *model.Message {
	msg := &model.Message{
		ID:        w.ID,
		Role:      model.ParseRole(w.Type),
		Content:   w.Content,
		Timestamp: parseTime(w.Timestamp),
		Metadata:  w.Metadata,
	}
	if msg.ID == "" {
		// Session details predating client-generated ids.
		msg.ID = "msg_" + uuid.NewString()
	}
	return msg
}

func normalizeDocuments(w listDocumentsResponse) []DocumentInfo {
	if len(w.Documents) > 0 {
		return w.Documents
	}
	docs := make([]DocumentInfo, 0, len(w.PDFs))
	for _, name := range w.PDFs {
		docs = append(docs, DocumentInfo{ID: name, Name: name, Type: "pdf", Status: "Ready"})
	}
	return docs
}

// parseTime accepts the timestamp layouts the backend has emitted: RFC3339
// and Python isoformat without zone. Unparseable values yield the zero time
// rather than an error; timestamps are display-only on the client.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
