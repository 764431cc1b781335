// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedview provides the live message feed component for the TUI.
package feedview

// =============================================================================
// SCROLL ANCHOR STATE MACHINE
// =============================================================================

// AnchorState tracks what the viewport offset currently means.
type AnchorState int

const (
	// AnchorInitialLoad: first page not yet rendered; the viewport must
	// jump to the bottom once it is.
	AnchorInitialLoad AnchorState = iota

	// AnchorIdle: the user owns the offset.
	AnchorIdle

	// AnchorBackfill: an older page is being fetched; the offset will be
	// re-derived when it lands so the visible entries do not move.
	AnchorBackfill
)

// Anchor keeps the viewport stable across content changes. Prepending a
// backfilled page grows the content above the viewport, which would
// otherwise shove the visible entries down by the height of the new
// page.
type Anchor struct {
	state        AnchorState
	topThreshold int

	// lastYOffset detects scroll direction between calls.
	lastYOffset int

	// Offset and content height captured when a backfill starts.
	savedYOffset int
	savedHeight  int
}

// NewAnchor creates an anchor in the initial-load state. topThreshold
// is how many rows from the top still count as "near the top".
func NewAnchor(topThreshold int) *Anchor {
	if topThreshold <= 0 {
		topThreshold = 3
	}
	return &Anchor{topThreshold: topThreshold}
}

// State returns the current anchor state.
func (a *Anchor) State() AnchorState {
	return a.state
}

// OnInitialApplied marks the first page as rendered. The caller jumps
// the viewport to the bottom before calling this.
func (a *Anchor) OnInitialApplied() {
	a.state = AnchorIdle
	a.lastYOffset = 0
}

// ShouldBackfill reports whether a scroll to yOffset should trigger an
// older-page fetch: near the top, moving upward, more history exists,
// and no fetch is already running.
func (a *Anchor) ShouldBackfill(yOffset int, hasMore, inFlight bool) bool {
	movedUp := yOffset < a.lastYOffset
	a.lastYOffset = yOffset

	if a.state != AnchorIdle || inFlight || !hasMore {
		return false
	}
	return movedUp && yOffset <= a.topThreshold
}

// OnBackfillStart captures the pre-fetch offset and content height.
func (a *Anchor) OnBackfillStart(yOffset, contentHeight int) {
	a.state = AnchorBackfill
	a.savedYOffset = yOffset
	a.savedHeight = contentHeight
}

// OnBackfillApplied returns the offset that keeps the previously
// visible entries in place after the prepended page grew the content
// to newHeight.
func (a *Anchor) OnBackfillApplied(newHeight int) int {
	offset := a.savedYOffset + (newHeight - a.savedHeight)
	if offset < 0 {
		offset = 0
	}
	a.lastYOffset = offset
	return offset
}

// OnSettle returns the anchor to idle. Called after a backfill is
// applied or after it fails.
func (a *Anchor) OnSettle() {
	a.state = AnchorIdle
}
