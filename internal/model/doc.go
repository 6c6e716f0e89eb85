// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// These are the canonical in-memory types. Everything arriving from the
// backend is normalized into them once, at the API boundary; nothing past
// that boundary branches on wire shapes.
package model
