// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
)

// =============================================================================
// YAML EXPORTER
// =============================================================================

// YAMLExporter exports conversations as YAML.
type YAMLExporter struct {
	options *Options
}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter(opts *Options) *YAMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &YAMLExporter{options: opts}
}

type yamlMessage struct {
	Role      string          `yaml:"role"`
	Content   string          `yaml:"content"`
	Timestamp string          `yaml:"timestamp,omitempty"`
	Source    *model.Metadata `yaml:"source,omitempty"`
	IsError   bool            `yaml:"is_error,omitempty"`
}

type yamlDocument struct {
	Title      string        `yaml:"title"`
	ChatID     string        `yaml:"chat_id"`
	CreatedAt  string        `yaml:"created_at,omitempty"`
	ExportedAt string        `yaml:"exported_at"`
	Messages   []yamlMessage `yaml:"messages"`
}

// Export converts a conversation to YAML.
func (e *YAMLExporter) Export(chat *model.ChatInfo, msgs []*model.Message) ([]byte, error) {
	if err := validate(chat, msgs); err != nil {
		return nil, err
	}

	doc := yamlDocument{
		Title:      chat.DisplayTitle(),
		ChatID:     chat.ID,
		ExportedAt: time.Now().Format(time.RFC3339),
	}
	if !chat.CreatedAt.IsZero() {
		doc.CreatedAt = chat.CreatedAt.Format(time.RFC3339)
	}

	for _, m := range msgs {
		ym := yamlMessage{
			Role:    m.Role.String(),
			Content: m.Content,
			IsError: m.IsError,
		}
		if e.options.IncludeTimestamps && !m.Timestamp.IsZero() {
			ym.Timestamp = m.Timestamp.Format(time.RFC3339)
		}
		if e.options.IncludeMetadata {
			ym.Source = m.Metadata
		}
		doc.Messages = append(doc.Messages, ym)
	}

	return yaml.Marshal(doc)
}

// FileExtension returns the file extension for YAML.
func (e *YAMLExporter) FileExtension() string {
	return ".yaml"
}

// MimeType returns the MIME type for YAML.
func (e *YAMLExporter) MimeType() string {
	return "application/yaml"
}
