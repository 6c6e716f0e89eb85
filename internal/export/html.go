// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/render"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page with
// embedded CSS. Message bodies go through the sanitizer pipeline, so the
// exported file carries the same allow-listed HTML subset the client
// renders.
type HTMLExporter struct {
	options   *Options
	sanitizer *render.Sanitizer
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{
		options:   opts,
		sanitizer: render.NewSanitizer(),
	}
}

// Export converts a conversation to HTML.
func (e *HTMLExporter) Export(chat *model.ChatInfo, msgs []*model.Message) ([]byte, error) {
	if err := validate(chat, msgs); err != nil {
		return nil, err
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(chat.DisplayTitle())))
	if !chat.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", chat.CreatedAt.Format(time.RFC3339)))
	}
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString("        <header class=\"header\">\n")
		sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(chat.DisplayTitle())))
		sb.WriteString("            <div class=\"meta\">\n")
		if !chat.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("                <span><strong>Created:</strong> %s</span>\n", formatTimestamp(chat.CreatedAt)))
		}
		sb.WriteString(fmt.Sprintf("                <span><strong>Messages:</strong> %d</span>\n", len(msgs)))
		sb.WriteString("            </div>\n")
		sb.WriteString("        </header>\n")
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range msgs {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported on %s</p>\n", formatTimestamp(time.Now())))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// renderMessage renders a single message block.
func (e *HTMLExporter) renderMessage(msg *model.Message) string {
	var sb strings.Builder

	cls := string(msg.Role)
	if msg.IsError {
		cls += " error"
	}
	sb.WriteString(fmt.Sprintf("            <div class=\"message %s\">\n", cls))

	sb.WriteString("                <div class=\"message-header\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"role\">%s</span>\n", msg.Role.DisplayName()))
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Timestamp)))
	}
	sb.WriteString("                </div>\n")

	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(e.sanitizer.Render(msg.Content))
	sb.WriteString("\n                </div>\n")

	if e.options.IncludeMetadata && msg.Metadata != nil && msg.Metadata.SelectedDocument != "" {
		sb.WriteString(fmt.Sprintf(
			"                <div class=\"provenance\">Source: <strong>%s</strong> (score %.2f, %d considered)</div>\n",
			html.EscapeString(msg.Metadata.SelectedDocument),
			msg.Metadata.SelectionScore, msg.Metadata.DocumentsConsidered))
	}

	sb.WriteString("            </div>\n")
	return sb.String()
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const pageCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            font-size: 16px; line-height: 1.6;
            color: #24292e; background: #f7f8fa; padding: 20px;
        }
        .container {
            max-width: 860px; margin: 0 auto; background: #ffffff;
            border-radius: 10px; box-shadow: 0 2px 6px rgba(0,0,0,0.08);
            overflow: hidden;
        }
        .header { padding: 28px 32px; border-bottom: 2px solid #e1e4e8; }
        .header h1 { font-size: 26px; margin-bottom: 12px; }
        .meta { display: flex; gap: 16px; font-size: 14px; color: #586069; }
        .conversation { padding: 24px 32px; }
        .message {
            margin-bottom: 20px; padding: 16px 20px; border-radius: 8px;
            border-left: 4px solid transparent;
        }
        .message.user { background: #f6f8fa; border-left-color: #0366d6; }
        .message.assistant { background: #ffffff; border-left-color: #22863a; border: 1px solid #e1e4e8; border-left-width: 4px; }
        .message.system { background: #f1f3f5; border-left-color: #6f42c1; color: #586069; }
        .message.error { border-left-color: #d73a49; }
        .message-header {
            display: flex; justify-content: space-between;
            margin-bottom: 10px; font-size: 14px;
        }
        .role { font-weight: 600; }
        .timestamp { color: #6a737d; font-size: 13px; }
        .message-content p { margin-bottom: 10px; }
        .message-content p:last-child { margin-bottom: 0; }
        .message-content pre {
            margin: 12px 0; padding: 12px; background: #f6f8fa;
            border-radius: 6px; overflow-x: auto; font-size: 14px;
        }
        .message-content code {
            font-family: "SF Mono", Monaco, Consolas, monospace; font-size: 14px;
        }
        .message-content table { border-collapse: collapse; margin: 12px 0; }
        .message-content th, .message-content td {
            border: 1px solid #e1e4e8; padding: 6px 12px;
        }
        .boxed-answer {
            margin: 12px 0; padding: 12px 16px;
            border: 2px solid #22863a; border-radius: 6px;
            font-weight: 600; background: #f0fff4;
        }
        .provenance {
            margin-top: 10px; padding-top: 10px;
            border-top: 1px solid #e1e4e8;
            font-size: 13px; color: #6a737d;
        }
        .footer {
            padding: 16px 32px; text-align: center;
            font-size: 13px; color: #6a737d; border-top: 1px solid #e1e4e8;
        }
        @media print { body { padding: 0; } .container { box-shadow: none; } }
    </style>
`
