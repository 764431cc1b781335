// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convlist

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleychat/parley-tui/internal/api"
)

func loadedModel() Model {
	m := New(nil, nil, nil)
	m.SetSize(30, 20)
	m, _ = m.Update(LoadedMsg{Conversations: []api.Conversation{
		{ID: "c1", Title: "general", LastEntryID: "e1"},
		{ID: "c2", Title: "random", LastEntryID: "e2"},
		{ID: "c3", Title: "dev", LastEntryID: "e3"},
	}})
	return m
}

// TestApplyOrderReorders tests the pushed reorder path
func TestApplyOrderReorders(t *testing.T) {
	m := loadedModel()

	m, _ = m.Update(OrderChangedMsg{ConversationIDs: []string{"c3", "c1", "c2"}})

	got := make([]string, len(m.items))
	for i, item := range m.items {
		got[i] = item.ID
	}
	want := []string{"c3", "c1", "c2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

// TestApplyOrderKeepsSelection tests that the highlight follows its conversation
func TestApplyOrderKeepsSelection(t *testing.T) {
	m := loadedModel()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}) // select c2

	m, _ = m.Update(OrderChangedMsg{ConversationIDs: []string{"c2", "c3", "c1"}})

	conv, ok := m.Selected()
	if !ok || conv.ID != "c2" {
		t.Errorf("selected = %v (%v), want c2", conv.ID, ok)
	}
}

// TestApplyOrderUnknownIDsDropped tests that pushed unknown IDs are ignored
func TestApplyOrderUnknownIDsDropped(t *testing.T) {
	m := loadedModel()

	m, _ = m.Update(OrderChangedMsg{ConversationIDs: []string{"c9", "c2"}})

	if len(m.items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(m.items))
	}
	if m.items[0].ID != "c2" {
		t.Errorf("items[0] = %s, want c2", m.items[0].ID)
	}
}

// TestSelectEmitsMessage tests the selection message
func TestSelectEmitsMessage(t *testing.T) {
	m := loadedModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Enter on a row should emit a command")
	}
	msg, ok := cmd().(SelectedMsg)
	if !ok {
		t.Fatalf("cmd() = %T, want SelectedMsg", cmd())
	}
	if msg.Conversation.ID != "c1" {
		t.Errorf("selected conversation = %s, want c1", msg.Conversation.ID)
	}
}

// TestUnreadWithoutHistoryStore tests the nil-store degraded path
func TestUnreadWithoutHistoryStore(t *testing.T) {
	m := loadedModel()

	// Nil history store: LastRead returns "", so anything with a last
	// entry counts as unread.
	if !m.Unread(api.Conversation{ID: "c1", LastEntryID: "e1"}) {
		t.Error("conversation with entries should read as unread without markers")
	}
	if m.Unread(api.Conversation{ID: "empty"}) {
		t.Error("conversation without entries can never be unread")
	}
}
