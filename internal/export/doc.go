// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversations out to shareable files.
// Markdown, JSON, YAML, and styled HTML are supported; the HTML format
// runs message content through the sanitizer pipeline so exported files
// carry no script-capable markup.
package export
