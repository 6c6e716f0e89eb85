// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session manages the client-side view of chat sessions.
//
// The store keeps the session list, the active session id, and the active
// conversation. Mutations (rename, delete) apply optimistically so the UI
// never waits on the network, and roll back to the exact prior state when
// the backend rejects the change. Server responses are authoritative:
// selecting a session replaces local messages wholesale, never merges.
//
// The store guarantees there is always an active session. When the last
// session is deleted a fresh one is created; when the backend is
// unreachable the offline sentinel session takes its place.
package session
