// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the full-screen terminal interface built on
// Bubble Tea. It composes a session sidebar, a scrollable transcript
// rendered through glamour, a single-line question input, and a status
// bar. Conversation controller events are bridged into the Bubble Tea
// loop over a channel so all model mutation happens in Update.
package ui
