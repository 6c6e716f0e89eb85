// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation drives the ask/answer lifecycle for the active
// session.
//
// The controller is a small state machine: Idle, Awaiting (a question is in
// flight), and ConfirmReset (a destructive clear is pending confirmation).
// One question is in flight at a time; a second Send while Awaiting fails
// fast with ErrBusy rather than queueing. Aborting a question cancels its
// stream, and frames from an aborted request are discarded instead of
// landing in the transcript.
//
// Send blocks until the stream finishes, so callers run it on their own
// goroutine (the TUI wraps it in a command). Events emitted through the
// notify callback may therefore arrive from that goroutine.
package conversation
