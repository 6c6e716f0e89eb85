// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// =============================================================================
// TERMINAL RENDERER
// =============================================================================

// TerminalRenderer renders answer markdown as ANSI for the TUI transcript.
// The glamour renderer is rebuilt when the wrap width or theme changes;
// everything else is cached.
type TerminalRenderer struct {
	mu    sync.Mutex
	width int
	theme string
	tr    *glamour.TermRenderer
}

// NewTerminalRenderer creates a renderer wrapping at the given width with
// the given theme ("auto", "dark" or "light").
func NewTerminalRenderer(width int, theme string) *TerminalRenderer {
	if width <= 0 {
		width = 80
	}
	return &TerminalRenderer{width: width, theme: ResolveTheme(theme)}
}

// ResolveTheme maps a configured theme name to a glamour style name.
// "auto" resolves against the terminal background; anything unrecognized
// falls back the same way.
func ResolveTheme(theme string) string {
	switch theme {
	case "dark", "light":
		return theme
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// SetWidth changes the wrap width; the underlying renderer is rebuilt on
// the next Render.
func (r *TerminalRenderer) SetWidth(width int) {
	if width <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if width != r.width {
		r.width = width
		r.tr = nil
	}
}

// SetTheme switches the style; the underlying renderer is rebuilt on the
// next Render. Used when the config file reloads.
func (r *TerminalRenderer) SetTheme(theme string) {
	resolved := ResolveTheme(theme)
	r.mu.Lock()
	defer r.mu.Unlock()
	if resolved != r.theme {
		r.theme = resolved
		r.tr = nil
	}
}

// Render converts markdown to ANSI-styled terminal text. The boxed-answer
// marker renders as a blockquote so the headline value still stands out.
// On any renderer failure the raw text comes back unchanged, which is safe
// for terminal output.
func (r *TerminalRenderer) Render(raw string) string {
	src := boxedRe.ReplaceAllString(raw, "\n> **$1**\n")

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tr == nil {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.theme),
			glamour.WithWordWrap(r.width),
		)
		if err != nil {
			return raw
		}
		r.tr = tr
	}

	out, err := r.tr.Render(src)
	if err != nil {
		return raw
	}
	return strings.TrimRight(out, "\n")
}
