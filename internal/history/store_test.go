// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists small bits of local state between runs.
package history

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestCommandUsage tests the usage counter round trip
func TestCommandUsage(t *testing.T) {
	store := openTestStore(t)

	if got := store.CommandUses("pin"); got != 0 {
		t.Errorf("CommandUses on empty store = %d, want 0", got)
	}

	store.RecordCommandUse("pin")
	store.RecordCommandUse("pin")
	store.RecordCommandUse("giphy")

	if got := store.CommandUses("pin"); got != 2 {
		t.Errorf("CommandUses(pin) = %d, want 2", got)
	}
	if got := store.CommandUses("giphy"); got != 1 {
		t.Errorf("CommandUses(giphy) = %d, want 1", got)
	}
}

// TestLastRead tests the read marker round trip
func TestLastRead(t *testing.T) {
	store := openTestStore(t)

	if got := store.LastRead("conv-1"); got != "" {
		t.Errorf("LastRead on empty store = %q, want empty", got)
	}

	store.MarkRead("conv-1", "e5")
	store.MarkRead("conv-1", "e9")
	store.MarkRead("conv-2", "e1")

	if got := store.LastRead("conv-1"); got != "e9" {
		t.Errorf("LastRead(conv-1) = %q, want e9", got)
	}
	if got := store.LastRead("conv-2"); got != "e1" {
		t.Errorf("LastRead(conv-2) = %q, want e1", got)
	}
}

// TestNilStoreIsSafe tests the degraded path
func TestNilStoreIsSafe(t *testing.T) {
	var store *Store

	store.RecordCommandUse("pin")
	store.MarkRead("conv-1", "e1")

	if got := store.CommandUses("pin"); got != 0 {
		t.Errorf("nil store CommandUses = %d, want 0", got)
	}
	if got := store.LastRead("conv-1"); got != "" {
		t.Errorf("nil store LastRead = %q, want empty", got)
	}
	if err := store.Close(); err != nil {
		t.Errorf("nil store Close() = %v, want nil", err)
	}
}
