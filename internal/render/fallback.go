// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// =============================================================================
// ESCAPE FALLBACK
// =============================================================================

// EscapeFallback is the degraded renderer: it HTML-escapes everything and
// converts line breaks, nothing more. Used whenever markdown parsing fails
// so a safe result is always produced.
func EscapeFallback(raw string) string {
	return strings.ReplaceAll(html.EscapeString(raw), "\n", "<br>\n")
}

// =============================================================================
// SIMPLE FORMATTER
// =============================================================================

var (
	simpleBoldRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	simpleItalicRe = regexp.MustCompile(`\*([^*]+)\*`)
	simpleCodeRe   = regexp.MustCompile("`([^`]+)`")
	simpleLinkRe   = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
)

// SimpleFormat is the last-resort formatter for when the markdown engine
// is unavailable: bold, italic, inline code, and links via direct pattern
// substitution over escaped text. Links keep the same scheme restriction
// as the primary pipeline; a disallowed scheme renders as plain text.
func SimpleFormat(raw string) string {
	out := html.EscapeString(raw)

	out = simpleCodeRe.ReplaceAllString(out, `<code>$1</code>`)
	out = simpleBoldRe.ReplaceAllString(out, `<strong>$1</strong>`)
	out = simpleItalicRe.ReplaceAllString(out, `<em>$1</em>`)

	out = simpleLinkRe.ReplaceAllStringFunc(out, func(match string) string {
		parts := simpleLinkRe.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		text, href := parts[1], parts[2]
		if !safeScheme(href) {
			return text
		}
		return fmt.Sprintf(`<a href="%s">%s</a>`, href, text)
	})

	return strings.ReplaceAll(out, "\n", "<br>\n")
}

// safeScheme reports whether a URL uses one of the allowed schemes.
func safeScheme(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "mailto:")
}
