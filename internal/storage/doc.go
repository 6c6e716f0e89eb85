// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists sessions and messages to a local SQLite
// database.
//
// The cache is a convenience layer: the backend stays authoritative for
// server-side sessions, and the cache exists so recent history is readable
// when the backend is down and so the offline session survives restarts.
// Writes are whole-session upserts; there is no partial message merging.
package storage
