// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the color palette and lipgloss styles for the
// terminal interface. All colors use AdaptiveColor so the UI reads well
// on both light and dark terminals.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// PALETTE
// =============================================================================

// Teal - primary accent, assistant output, active selections.
var Teal = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}

// Blue - user messages and interactive highlights.
var Blue = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}

// Rose - errors and destructive prompts.
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - warnings and the offline indicator.
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Slate - secondary text, timestamps, borders.
var Slate = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"}

// SurfaceDim - status bar and sidebar backgrounds.
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F1F5F9", Dark: "#1E293B"}

// =============================================================================
// THEME
// =============================================================================

// Theme holds the styled components used across the interface.
type Theme struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style

	Sidebar       lipgloss.Style
	SidebarTitle  lipgloss.Style
	SessionItem   lipgloss.Style
	SessionActive lipgloss.Style
	SessionMeta   lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	ErrorText      lipgloss.Style
	Timestamp      lipgloss.Style
	Provenance     lipgloss.Style

	InputBox    lipgloss.Style
	InputPrompt lipgloss.Style

	StatusBar    lipgloss.Style
	StatusKey    lipgloss.Style
	StatusDesc   lipgloss.Style
	OfflineBadge lipgloss.Style
	Spinner      lipgloss.Style

	Toast         lipgloss.Style
	ToastError    lipgloss.Style
	ConfirmPrompt lipgloss.Style

	DebugLine lipgloss.Style
}

// NewTheme builds the default theme.
func NewTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(Teal),
		Subtitle: lipgloss.NewStyle().Foreground(Slate),

		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(Slate).
			Padding(0, 1),
		SidebarTitle:  lipgloss.NewStyle().Bold(true).Foreground(Teal),
		SessionItem:   lipgloss.NewStyle().Foreground(Slate),
		SessionActive: lipgloss.NewStyle().Bold(true).Foreground(Blue),
		SessionMeta:   lipgloss.NewStyle().Faint(true),

		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(Blue),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(Teal),
		SystemLabel:    lipgloss.NewStyle().Bold(true).Foreground(Slate),
		ErrorText:      lipgloss.NewStyle().Foreground(Rose),
		Timestamp:      lipgloss.NewStyle().Faint(true),
		Provenance:     lipgloss.NewStyle().Italic(true).Foreground(Slate),

		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Slate).
			Padding(0, 1),
		InputPrompt: lipgloss.NewStyle().Bold(true).Foreground(Blue),

		StatusBar:    lipgloss.NewStyle().Background(SurfaceDim).Padding(0, 1),
		StatusKey:    lipgloss.NewStyle().Bold(true).Foreground(Teal),
		StatusDesc:   lipgloss.NewStyle().Foreground(Slate),
		OfflineBadge: lipgloss.NewStyle().Bold(true).Foreground(Amber),
		Spinner:      lipgloss.NewStyle().Foreground(Teal),

		Toast:         lipgloss.NewStyle().Foreground(Slate),
		ToastError:    lipgloss.NewStyle().Bold(true).Foreground(Rose),
		ConfirmPrompt: lipgloss.NewStyle().Bold(true).Foreground(Amber),

		DebugLine: lipgloss.NewStyle().Faint(true),
	}
}
