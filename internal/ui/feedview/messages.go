// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedview provides the live message feed component for the TUI.
//
// This file defines all Bubble Tea message types used by the feed view.
// Messages are organized into the following categories:
//   - History: initial page and backfill results
//   - Gateway: pushed entry events and channel teardown
//   - Autocomplete: debounce ticks and registry search results
//   - Compose: submission outcomes and assistant follow-up completion
//
// All message types follow Bubble Tea conventions and are immutable.
package feedview

import (
	"github.com/parleychat/parley-tui/internal/autocomplete"
	"github.com/parleychat/parley-tui/internal/compose"
	"github.com/parleychat/parley-tui/internal/gateway"
)

// =============================================================================
// HISTORY MESSAGES
// =============================================================================

// InitialLoadedMsg reports the first history page for the conversation.
type InitialLoadedMsg struct {
	Err error
}

// BackfillLoadedMsg reports an older-page fetch triggered by scrolling
// near the top.
type BackfillLoadedMsg struct {
	Added int
	Err   error
}

// =============================================================================
// GATEWAY MESSAGES
// =============================================================================

// GatewayEventMsg delivers one pushed entry event.
type GatewayEventMsg struct {
	Event gateway.Event
}

// GatewayClosedMsg signals that the subscription channel closed.
type GatewayClosedMsg struct{}

// =============================================================================
// AUTOCOMPLETE MESSAGES
// =============================================================================

// searchTickMsg fires when the debounce window after a keystroke
// elapses. Stale ticks carry an older generation and are dropped.
type searchTickMsg struct {
	gen uint64
}

// SearchResultsMsg delivers registry search results for the popup.
type SearchResultsMsg struct {
	Gen      uint64
	Commands []autocomplete.Command
	Err      error
}

// =============================================================================
// COMPOSE MESSAGES
// =============================================================================

// SubmitResultMsg reports one compose submission. On error the compose
// buffer is left untouched so the user can retry.
type SubmitResultMsg struct {
	Outcome     *compose.Outcome
	CommandName string
	Err         error
}

// FollowUpDoneMsg signals that the assistant follow-up call returned.
// The answer itself arrives later as a pushed entry.
type FollowUpDoneMsg struct {
	Err error
}
