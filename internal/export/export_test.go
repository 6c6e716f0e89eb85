// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
)

func sampleConversation() (*model.ChatInfo, []*model.Message) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	chat := &model.ChatInfo{
		ID: "abc", Title: "Dosage questions",
		CreatedAt: created, UpdatedAt: created,
	}
	msgs := []*model.Message{
		{ID: "m0", Role: model.RoleSystem, Content: model.WelcomeText, Timestamp: created},
		{ID: "m1", Role: model.RoleUser, Content: "What is the dosage?", Timestamp: created},
		{ID: "m2", Role: model.RoleAssistant, Content: "**250mg** twice daily", Timestamp: created,
			IsSuccess: true,
			Metadata:  &model.Metadata{SelectedDocument: "doc1.pdf", SelectionScore: 0.91, DocumentsConsidered: 3}},
	}
	return chat, msgs
}

func TestMarkdownExport(t *testing.T) {
	chat, msgs := sampleConversation()
	out, err := NewMarkdownExporter(nil).Export(chat, msgs)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"# Dosage questions",
		"### You",
		"### Assistant",
		"**250mg** twice daily",
		"doc1.pdf",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestJSONExport_RoundTrip(t *testing.T) {
	chat, msgs := sampleConversation()
	out, err := NewJSONExporter(nil).Export(chat, msgs)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc["title"] != "Dosage questions" || doc["chat_id"] != "abc" {
		t.Errorf("doc = %v", doc)
	}
	if list, ok := doc["messages"].([]any); !ok || len(list) != 3 {
		t.Errorf("messages = %v", doc["messages"])
	}
}

func TestJSONExport_StripsMetadataWhenDisabled(t *testing.T) {
	chat, msgs := sampleConversation()
	opts := DefaultOptions()
	opts.IncludeMetadata = false

	out, err := NewJSONExporter(opts).Export(chat, msgs)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.Contains(string(out), "doc1.pdf") {
		t.Error("metadata present despite IncludeMetadata=false")
	}
	// Original messages must be untouched.
	if msgs[2].Metadata == nil {
		t.Error("exporter mutated the source messages")
	}
}

func TestYAMLExport(t *testing.T) {
	chat, msgs := sampleConversation()
	out, err := NewYAMLExporter(nil).Export(chat, msgs)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var doc struct {
		Title    string `yaml:"title"`
		Messages []struct {
			Role   string `yaml:"role"`
			Source *struct {
				SelectedDocument string `yaml:"selecteddocument"`
			} `yaml:"source"`
		} `yaml:"messages"`
	}
	if err := yaml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if doc.Title != "Dosage questions" || len(doc.Messages) != 3 {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Messages[2].Role != "assistant" {
		t.Errorf("role = %q", doc.Messages[2].Role)
	}
}

func TestHTMLExport_SanitizesContent(t *testing.T) {
	chat, msgs := sampleConversation()
	msgs = append(msgs, &model.Message{
		ID: "m3", Role: model.RoleAssistant, Timestamp: time.Now(),
		Content: `answer <script>alert(1)</script> with [link](javascript:alert(2))`,
	})

	out, err := NewHTMLExporter(nil).Export(chat, msgs)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	page := string(out)

	if !strings.Contains(page, "<strong>250mg</strong>") {
		t.Error("markdown bold not rendered")
	}
	if strings.Contains(page, "<script>alert(1)") {
		t.Error("script tag leaked into export")
	}
	if strings.Contains(page, "javascript:") {
		t.Error("executable scheme leaked into export")
	}
	if !strings.Contains(page, "doc1.pdf") {
		t.Error("provenance missing")
	}
}

func TestExportToFile(t *testing.T) {
	chat, msgs := sampleConversation()
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()

	path, err := ExportToFile(chat, msgs, NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("ExportToFile: %v", err)
	}
	if !strings.HasSuffix(path, ".md") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}
	if !strings.Contains(string(data), "# Dosage questions") {
		t.Error("file content wrong")
	}
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"markdown", "md", "json", "yaml", "yml", "html"} {
		if _, err := ForFormat(format, nil); err != nil {
			t.Errorf("ForFormat(%q): %v", format, err)
		}
	}
	if _, err := ForFormat("docx", nil); err == nil {
		t.Error("want error for unknown format")
	}
}

func TestExport_RejectsEmptyConversation(t *testing.T) {
	chat := &model.ChatInfo{ID: "abc", Title: "t"}
	exporters := []Exporter{
		NewMarkdownExporter(nil), NewJSONExporter(nil),
		NewYAMLExporter(nil), NewHTMLExporter(nil),
	}
	for _, e := range exporters {
		if _, err := e.Export(chat, nil); err == nil {
			t.Errorf("%T accepted empty conversation", e)
		}
		if _, err := e.Export(nil, nil); err == nil {
			t.Errorf("%T accepted nil chat", e)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dosage questions", "Dosage_questions"},
		{"a/b\\c:d", "a-b-c-d"},
		{"", "chat"},
	}
	for _, tc := range tests {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
