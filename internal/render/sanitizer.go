// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// =============================================================================
// BOXED ANSWER MARKER
// =============================================================================

// boxedRe matches the backend's boxed-answer marker, a LaTeX-style
// \boxed{...} wrapping the headline value of an answer.
var boxedRe = regexp.MustCompile(`\\boxed\{([^{}]*)\}`)

// rewriteBoxed converts boxed-answer markers into a plain container the
// sanitizer's allow-list admits. Runs before markdown parsing so the inner
// text still gets inline formatting.
func rewriteBoxed(raw string) string {
	return boxedRe.ReplaceAllString(raw, `<div class="boxed-answer">$1</div>`)
}

// =============================================================================
// SANITIZER
// =============================================================================

// Sanitizer renders markdown to an allow-listed HTML subset.
// It is safe for concurrent use.
type Sanitizer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewSanitizer creates the standard pipeline: GFM markdown with hard line
// breaks, then the fixed allow-list policy.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// Raw HTML passes through the parser so the policy is the
			// single place where markup is judged.
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
				html.WithHardWraps(),
			),
		),
		policy: newPolicy(),
	}
}

// newPolicy builds the fixed allow-list: structural and inline formatting
// tags, a restricted attribute set, and three URL schemes. Everything else
// is dropped, not escaped.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr", "div",
		"strong", "em", "del", "b", "i",
		"ul", "ol", "li",
		"blockquote",
		"code", "pre",
		"table", "thead", "tbody", "tr", "th", "td",
	)

	p.AllowAttrs("class", "id").Globally()
	p.AllowAttrs("href", "title", "target", "rel").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowAttrs("start").OnElements("ol")

	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")

	return p
}

// Render converts raw assistant text to safe HTML. It never fails: when
// markdown conversion errors or panics, the escape fallback takes over, so
// the result is always displayable and always sanitized.
func (s *Sanitizer) Render(raw string) (out string) {
	defer func() {
		if recover() != nil {
			out = EscapeFallback(raw)
		}
	}()

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(rewriteBoxed(raw)), &buf); err != nil {
		return EscapeFallback(raw)
	}
	return s.policy.Sanitize(buf.String())
}
