// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package convlist provides the conversation list sidebar for the TUI.
package convlist

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/parleychat/parley-tui/internal/api"
	"github.com/parleychat/parley-tui/internal/history"
	"github.com/parleychat/parley-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// LoadedMsg delivers the conversation list from the service.
type LoadedMsg struct {
	Conversations []api.Conversation
	Err           error
}

// OrderChangedMsg applies a pushed conversation.reordered event. IDs
// not currently in the list are ignored; known IDs move to the pushed
// order.
type OrderChangedMsg struct {
	ConversationIDs []string
}

// SelectedMsg reports that the user activated a conversation.
type SelectedMsg struct {
	Conversation api.Conversation
}

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap defines the sidebar key bindings.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
}

// DefaultKeyMap returns the default sidebar bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous conversation"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next conversation"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "open conversation"),
		),
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the conversation list sidebar.
type Model struct {
	theme   *styles.Theme
	client  *api.Client
	history *history.Store
	keyMap  KeyMap

	width  int
	height int

	items  []api.Conversation
	cursor int

	lastError error
}

// New creates an empty sidebar; Init loads the list.
func New(theme *styles.Theme, client *api.Client, hist *history.Store) Model {
	if theme == nil {
		theme = styles.NewTheme("auto")
	}
	return Model{
		theme:   theme,
		client:  client,
		history: hist,
		keyMap:  DefaultKeyMap(),
	}
}

// Init fetches the conversation list.
func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m Model) loadCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		convs, err := client.ListConversations(ctx)
		return LoadedMsg{Conversations: convs, Err: err}
	}
}

// SetSize resizes the sidebar.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Selected returns the highlighted conversation, if any.
func (m Model) Selected() (api.Conversation, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return api.Conversation{}, false
	}
	return m.items[m.cursor], true
}

// Unread reports whether the conversation's newest entry is past the
// local read marker.
func (m Model) Unread(conv api.Conversation) bool {
	if conv.LastEntryID == "" {
		return false
	}
	return m.history.LastRead(conv.ID) != conv.LastEntryID
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles sidebar messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil {
			m.lastError = msg.Err
			return m, nil
		}
		m.lastError = nil
		m.items = msg.Conversations
		if m.cursor >= len(m.items) {
			m.cursor = 0
		}
		return m, nil

	case OrderChangedMsg:
		m.applyOrder(msg.ConversationIDs)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keyMap.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keyMap.Select):
			if conv, ok := m.Selected(); ok {
				return m, func() tea.Msg { return SelectedMsg{Conversation: conv} }
			}
		}
		return m, nil
	}
	return m, nil
}

// applyOrder reorders the list to match the pushed ID order, keeping
// the highlight on the same conversation. IDs the list does not know
// yet are dropped; a reload will pick them up.
func (m *Model) applyOrder(ids []string) {
	selectedID := ""
	if conv, ok := m.Selected(); ok {
		selectedID = conv.ID
	}

	byID := make(map[string]api.Conversation, len(m.items))
	for _, item := range m.items {
		byID[item.ID] = item
	}

	reordered := make([]api.Conversation, 0, len(m.items))
	for _, id := range ids {
		if conv, ok := byID[id]; ok {
			reordered = append(reordered, conv)
			delete(byID, id)
		}
	}
	// Conversations the push did not mention keep their relative order
	// at the tail.
	for _, item := range m.items {
		if _, ok := byID[item.ID]; ok {
			reordered = append(reordered, item)
		}
	}
	m.items = reordered

	if selectedID != "" {
		for i, item := range m.items {
			if item.ID == selectedID {
				m.cursor = i
				break
			}
		}
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the sidebar.
func (m Model) View() string {
	if m.lastError != nil {
		return m.theme.ConvList.Height(m.height).Render(
			m.theme.ErrorTitle.Render("list unavailable"))
	}

	innerWidth := m.width - 4
	if innerWidth < 8 {
		innerWidth = 8
	}

	rows := make([]string, 0, len(m.items))
	for i, conv := range m.items {
		title := conv.Title
		if title == "" {
			title = conv.ID
		}
		title = runewidth.Truncate(title, innerWidth, "…")

		style := m.theme.ConvItem
		switch {
		case i == m.cursor:
			style = m.theme.ConvItemSelected
		case m.Unread(conv):
			style = m.theme.ConvItemUnread
		}

		row := style.Render(title)
		if m.Unread(conv) && i != m.cursor {
			row += " " + m.theme.UnreadBadge.Render("●")
		}
		rows = append(rows, row)
	}

	content := ""
	for i, row := range rows {
		if i > 0 {
			content += "\n"
		}
		content += row
	}
	return m.theme.ConvList.Width(m.width).Height(m.height).Render(content)
}
