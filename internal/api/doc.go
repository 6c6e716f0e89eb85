// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the document-QA backend.
//
// It owns the wire formats: session CRUD, document listing/upload, the
// non-streaming ask call, and the streaming ask call whose response body is
// decoded by StreamReader into typed Frames. All response-shape quirks of
// the backend (chat_id vs id, message vs response vs answer, documents vs
// pdfs, "bot" roles) are normalized here, once; callers only ever see the
// canonical model types.
package api
