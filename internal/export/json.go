// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations as structured JSON.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// jsonDocument is the exported file shape.
type jsonDocument struct {
	Title      string           `json:"title"`
	ChatID     string           `json:"chat_id"`
	CreatedAt  *time.Time       `json:"created_at,omitempty"`
	ExportedAt time.Time        `json:"exported_at"`
	Messages   []*model.Message `json:"messages"`
}

// Export converts a conversation to indented JSON.
func (e *JSONExporter) Export(chat *model.ChatInfo, msgs []*model.Message) ([]byte, error) {
	if err := validate(chat, msgs); err != nil {
		return nil, err
	}

	doc := jsonDocument{
		Title:      chat.DisplayTitle(),
		ChatID:     chat.ID,
		ExportedAt: time.Now(),
		Messages:   msgs,
	}
	if !chat.CreatedAt.IsZero() {
		created := chat.CreatedAt
		doc.CreatedAt = &created
	}
	if !e.options.IncludeMetadata {
		stripped := make([]*model.Message, len(msgs))
		for i, m := range msgs {
			clone := *m
			clone.Metadata = nil
			stripped[i] = &clone
		}
		doc.Messages = stripped
	}

	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
