// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the plain-terminal REPL used when stdout is not a
// TTY or when the user passes -plain. It offers the same operations as the
// full-screen interface through slash commands, with liner providing input
// history and line editing.
package cli
