// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 0,
	last_message  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT NOT NULL,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	metadata   TEXT,
	is_error   INTEGER NOT NULL DEFAULT 0,
	is_success INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (session_id, position)
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);
`

// =============================================================================
// CACHE
// =============================================================================

// Cache is the SQLite-backed session store.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// SaveChat upserts a session and, when msgs is non-nil, replaces its
// message list wholesale.
func (c *Cache) SaveChat(chat model.ChatInfo, msgs []*model.Message) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (id, title, created_at, updated_at, message_count, last_message)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			message_count = excluded.message_count,
			last_message = excluded.last_message`,
		chat.ID, chat.Title,
		chat.CreatedAt.Format(time.RFC3339Nano), chat.UpdatedAt.Format(time.RFC3339Nano),
		chat.MessageCount, chat.LastMessage)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if msgs != nil {
		if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = ?`, chat.ID); err != nil {
			return fmt.Errorf("failed to clear messages: %w", err)
		}
		stmt, err := tx.Prepare(`
			INSERT INTO messages (id, session_id, position, role, content, timestamp, metadata, is_error, is_success)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, msg := range msgs {
			var meta any
			if msg.Metadata != nil {
				raw, err := json.Marshal(msg.Metadata)
				if err != nil {
					return fmt.Errorf("failed to encode metadata: %w", err)
				}
				meta = string(raw)
			}
			_, err := stmt.Exec(msg.ID, chat.ID, i, string(msg.Role), msg.Content,
				msg.Timestamp.Format(time.RFC3339Nano), meta,
				boolInt(msg.IsError), boolInt(msg.IsSuccess))
			if err != nil {
				return fmt.Errorf("failed to save message %d: %w", i, err)
			}
		}
	}

	return tx.Commit()
}

// DeleteChat removes a session and its messages.
func (c *Cache) DeleteChat(chatID string) error {
	_, err := c.db.Exec(`DELETE FROM sessions WHERE id = ?`, chatID)
	return err
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// ListChats returns cached sessions, most recently updated first.
func (c *Cache) ListChats() ([]model.ChatInfo, error) {
	rows, err := c.db.Query(`
		SELECT id, title, created_at, updated_at, message_count, last_message
		FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []model.ChatInfo
	for rows.Next() {
		var chat model.ChatInfo
		var created, updated string
		if err := rows.Scan(&chat.ID, &chat.Title, &created, &updated,
			&chat.MessageCount, &chat.LastMessage); err != nil {
			return nil, err
		}
		chat.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		chat.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// LoadMessages returns a session's messages in stored order. A session
// with no cached messages returns an empty slice, not an error.
func (c *Cache) LoadMessages(chatID string) ([]*model.Message, error) {
	rows, err := c.db.Query(`
		SELECT id, role, content, timestamp, metadata, is_error, is_success
		FROM messages WHERE session_id = ? ORDER BY position`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*model.Message
	for rows.Next() {
		var msg model.Message
		var role, ts string
		var meta sql.NullString
		var isErr, isOK int
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &ts, &meta, &isErr, &isOK); err != nil {
			return nil, err
		}
		msg.Role = model.ParseRole(role)
		msg.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		msg.IsError = isErr != 0
		msg.IsSuccess = isOK != 0
		if meta.Valid && meta.String != "" {
			var m model.Metadata
			if err := json.Unmarshal([]byte(meta.String), &m); err == nil {
				msg.Metadata = &m
			}
		}
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
