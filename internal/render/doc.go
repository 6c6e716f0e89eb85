// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render converts raw assistant text into safe output.
//
// The primary pipeline parses GitHub-flavored markdown and pushes the
// resulting HTML through an allow-list sanitizer, so script-capable markup
// never reaches a viewer regardless of what the backend sends. Link and
// image URLs are restricted to http, https, and mailto; anything else is
// dropped outright. Two fallbacks sit underneath it: an HTML-escaping
// renderer used when markdown parsing fails, and a pattern-substitution
// formatter for environments where the markdown engine is unavailable.
//
// Terminal output goes through glamour instead, which emits ANSI rather
// than HTML.
package render
