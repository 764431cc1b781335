// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists small bits of local state between runs.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// STORE
// =============================================================================

// Store is the local usage/read-marker database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database location under the user's
// home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "parley-history.db"
	}
	return filepath.Join(home, ".parley", "history.db")
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS command_usage (
		name      TEXT PRIMARY KEY,
		uses      INTEGER NOT NULL DEFAULT 0,
		last_used INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS last_read (
		conversation_id TEXT PRIMARY KEY,
		entry_id        TEXT NOT NULL,
		read_at         INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// =============================================================================
// COMMAND USAGE
// =============================================================================

// RecordCommandUse bumps the local use count for a command. Best
// effort; errors are swallowed.
func (s *Store) RecordCommandUse(name string) {
	if s == nil || s.db == nil || name == "" {
		return
	}
	s.db.Exec(`
		INSERT INTO command_usage (name, uses, last_used) VALUES (?, 1, ?)
		ON CONFLICT(name) DO UPDATE SET uses = uses + 1, last_used = excluded.last_used`,
		name, time.Now().UnixMilli())
}

// CommandUses returns how often a command has been used locally, zero
// when unknown or on any error.
func (s *Store) CommandUses(name string) int {
	if s == nil || s.db == nil {
		return 0
	}
	var uses int
	err := s.db.QueryRow(`SELECT uses FROM command_usage WHERE name = ?`, name).Scan(&uses)
	if err != nil {
		return 0
	}
	return uses
}

// =============================================================================
// LAST-READ MARKERS
// =============================================================================

// MarkRead records the newest entry the user has seen in a
// conversation. Best effort.
func (s *Store) MarkRead(conversationID, entryID string) {
	if s == nil || s.db == nil || conversationID == "" {
		return
	}
	s.db.Exec(`
		INSERT INTO last_read (conversation_id, entry_id, read_at) VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET entry_id = excluded.entry_id, read_at = excluded.read_at`,
		conversationID, entryID, time.Now().UnixMilli())
}

// LastRead returns the last-read entry id for a conversation, empty
// when none is recorded.
func (s *Store) LastRead(conversationID string) string {
	if s == nil || s.db == nil {
		return ""
	}
	var entryID string
	err := s.db.QueryRow(`SELECT entry_id FROM last_read WHERE conversation_id = ?`, conversationID).Scan(&entryID)
	if err != nil {
		return ""
	}
	return entryID
}
