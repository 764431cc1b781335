// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedview provides the live message feed component for the TUI.
package feedview

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleychat/parley-tui/internal/autocomplete"
	"github.com/parleychat/parley-tui/internal/compose"
	"github.com/parleychat/parley-tui/internal/gateway"
)

const requestTimeout = 15 * time.Second

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// loadInitialCmd fetches the first history page.
func (m Model) loadInitialCmd() tea.Cmd {
	store, id := m.store, m.conversationID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return InitialLoadedMsg{Err: store.LoadInitial(ctx, id)}
	}
}

// backfillCmd fetches one older page.
func (m Model) backfillCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		added, err := store.LoadMore(ctx)
		return BackfillLoadedMsg{Added: added, Err: err}
	}
}

// searchCmd runs one registry search for the popup.
func (m Model) searchCmd(req autocomplete.SearchRequest) tea.Cmd {
	searcher, id := m.searcher, m.conversationID
	return func() tea.Msg {
		if searcher == nil {
			return SearchResultsMsg{Gen: req.Gen}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		cmds, err := searcher.SearchCommands(ctx, id, req.Term)
		return SearchResultsMsg{Gen: req.Gen, Commands: cmds, Err: err}
	}
}

// debounceCmd schedules the post-keystroke search tick.
func (m Model) debounceCmd(gen uint64) tea.Cmd {
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return searchTickMsg{gen: gen}
	})
}

// submitCmd dispatches the compose buffer.
func (m Model) submitCmd(sub compose.Submission) tea.Cmd {
	dispatcher := m.dispatcher
	commandName := ""
	if sub.Picked != nil {
		commandName = sub.Picked.Name
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		outcome, err := dispatcher.Submit(ctx, sub)
		return SubmitResultMsg{Outcome: outcome, CommandName: commandName, Err: err}
	}
}

// followUpCmd runs the assistant follow-up while the thinking
// indicator shows.
func (m Model) followUpCmd(req *compose.Outcome) tea.Cmd {
	dispatcher := m.dispatcher
	followUp := *req.FollowUp
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return FollowUpDoneMsg{Err: dispatcher.FollowUp(ctx, followUp)}
	}
}

// waitForEventCmd blocks on the subscription channel for the next
// pushed event, re-armed after every delivery.
func waitForEventCmd(sub *gateway.Subscription) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.Events()
		if !ok {
			return GatewayClosedMsg{}
		}
		return GatewayEventMsg{Event: ev}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all Bubble Tea messages for the feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state == StateLoading || m.thinking || m.store.InFlight() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case InitialLoadedMsg:
		return m.handleInitialLoaded(msg)

	case BackfillLoadedMsg:
		return m.handleBackfillLoaded(msg)

	case GatewayEventMsg:
		return m.handleGatewayEvent(msg)

	case GatewayClosedMsg:
		// Reconnection is the gateway client's job; the pump stops and
		// the caller swaps in a fresh subscription if one appears.
		return m, nil

	case searchTickMsg:
		if m.pendingSearch == nil || m.pendingSearch.Gen != msg.gen {
			return m, nil
		}
		req := *m.pendingSearch
		m.pendingSearch = nil
		return m, m.searchCmd(req)

	case SearchResultsMsg:
		if msg.Err == nil {
			m.engine.ApplySearchResults(msg.Gen, msg.Commands)
		}
		return m, nil

	case SubmitResultMsg:
		return m.handleSubmitResult(msg)

	case FollowUpDoneMsg:
		m.thinking = false
		if msg.Err != nil {
			m.lastError = msg.Err
		}
		return m, nil
	}

	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey routes keys. Popup navigation keys are intercepted while
// the popup is open and never fall through to the compose box or the
// viewport; in particular Enter commits a candidate without sending.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.engine.Open() {
		switch {
		case key.Matches(msg, m.keyMap.Up):
			m.engine.MoveUp()
			return m, nil
		case key.Matches(msg, m.keyMap.Down):
			m.engine.MoveDown()
			return m, nil
		case key.Matches(msg, m.keyMap.Submit), key.Matches(msg, m.keyMap.Accept):
			return m.commitCandidate()
		case key.Matches(msg, m.keyMap.Cancel):
			m.engine.Cancel()
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		if m.state == StateFailed {
			m.state = StateLoading
			m.lastError = nil
			return m, tea.Batch(m.spinner.Tick, m.loadInitialCmd())
		}
		return m.submit()

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m.afterScroll()
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m.afterScroll()
	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m.afterScroll()
	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m.afterScroll()
	case key.Matches(msg, m.keyMap.Home):
		m.viewport.GotoTop()
		return m.afterScroll()
	case key.Matches(msg, m.keyMap.End):
		m.viewport.GotoBottom()
		return m.afterScroll()
	}

	// Everything else edits the compose buffer.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if req := m.engine.OnInput(m.input.Value()); req != nil {
		m.pendingSearch = req
		return m, tea.Batch(cmd, m.debounceCmd(req.Gen))
	}
	return m, cmd
}

// afterScroll checks whether the new offset should trigger a backfill.
func (m Model) afterScroll() (Model, tea.Cmd) {
	if !m.anchor.ShouldBackfill(m.viewport.YOffset, m.store.HasMore(), m.store.InFlight()) {
		return m, nil
	}
	m.anchor.OnBackfillStart(m.viewport.YOffset, m.contentHeight)
	return m, tea.Batch(m.spinner.Tick, m.backfillCmd())
}

// commitCandidate applies the highlighted popup row to the buffer.
func (m Model) commitCandidate() (Model, tea.Cmd) {
	result, ok := m.engine.Commit(m.input.Value())
	if !ok {
		return m, nil
	}
	m.input.SetValue(result.NewBuffer)
	m.input.SetCursor(result.CaretPos)

	// Re-parse so an option list opens right after a command commit.
	if req := m.engine.OnInput(result.NewBuffer); req != nil {
		m.pendingSearch = req
		return m, m.debounceCmd(req.Gen)
	}
	return m, nil
}

// submit dispatches the compose buffer. The buffer is only cleared on
// success, in handleSubmitResult.
func (m Model) submit() (Model, tea.Cmd) {
	body := strings.TrimSpace(m.input.Value())
	if body == "" || m.sending || m.state != StateReady {
		return m, nil
	}
	m.sending = true
	m.lastError = nil
	return m, m.submitCmd(compose.Submission{
		ConversationID:  m.conversationID,
		Body:            body,
		ReplyTo:         m.replyTo,
		ReplyToSenderID: m.replyToSenderID,
		Picked:          m.engine.PickedCommand(),
	})
}

// =============================================================================
// RESULT HANDLING
// =============================================================================

func (m Model) handleInitialLoaded(msg InitialLoadedMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.state = StateFailed
		m.lastError = msg.Err
		return m, nil
	}

	m.state = StateReady
	m.refreshContent(true)
	m.anchor.OnInitialApplied()
	m.markNewestRead()
	return m, nil
}

func (m Model) handleBackfillLoaded(msg BackfillLoadedMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.anchor.OnSettle()
		m.lastError = msg.Err
		return m, nil
	}

	m.refreshContent(false)
	m.viewport.SetYOffset(m.anchor.OnBackfillApplied(m.contentHeight))
	m.anchor.OnSettle()
	return m, nil
}

func (m Model) handleGatewayEvent(msg GatewayEventMsg) (Model, tea.Cmd) {
	rearm := waitForEventCmd(m.sub)

	wasAtBottom := m.viewport.AtBottom()
	if !gateway.Apply(m.store, msg.Event) {
		return m, rearm
	}

	// A created entry from the assistant answers any pending follow-up.
	if m.thinking && msg.Event.Type == gateway.EventEntryCreated {
		m.thinking = false
	}

	m.refreshContent(wasAtBottom)
	if wasAtBottom {
		m.markNewestRead()
	}
	return m, rearm
}

func (m Model) handleSubmitResult(msg SubmitResultMsg) (Model, tea.Cmd) {
	m.sending = false
	if msg.Err != nil {
		// Buffer and popup state stay; the user retries or edits.
		m.lastError = msg.Err
		return m, nil
	}

	m.input.SetValue("")
	m.engine.OnInput("")
	m.replyTo = ""
	m.replyToSenderID = ""

	if msg.Outcome.Kind == compose.OutcomeCommand && msg.CommandName != "" {
		m.history.RecordCommandUse(msg.CommandName)
	}

	if msg.Outcome.FollowUp != nil {
		m.thinking = true
		m.thinkingStart = time.Now()
		return m, tea.Batch(m.spinner.Tick, m.followUpCmd(msg.Outcome))
	}
	return m, nil
}

// =============================================================================
// CONTENT MAINTENANCE
// =============================================================================

// refreshContent re-renders the timeline into the viewport. When
// stickBottom is set the viewport follows the newest entry.
func (m *Model) refreshContent(stickBottom bool) {
	content := m.renderFeed()
	m.contentHeight = countLines(content)
	m.viewport.SetContent(content)
	if stickBottom {
		m.viewport.GotoBottom()
	}
}

// markNewestRead advances the local read marker to the newest entry.
func (m *Model) markNewestRead() {
	entries := m.store.Entries()
	if len(entries) == 0 {
		return
	}
	m.history.MarkRead(m.conversationID, entries[len(entries)-1].ID)
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
