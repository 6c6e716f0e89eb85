// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string helpers shared across the client.
//
// Everything here is rune- and width-aware: message previews, sidebar titles
// and statusbar fragments all truncate user-controlled UTF-8 text, and a
// byte-indexed cut would corrupt multi-byte characters.
package util
