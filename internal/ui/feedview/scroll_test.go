// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedview provides the live message feed component for the TUI.
package feedview

import "testing"

func idleAnchor(t *testing.T) *Anchor {
	t.Helper()
	a := NewAnchor(3)
	a.OnInitialApplied()
	return a
}

// TestShouldBackfillRequiresUpwardMotion tests the direction gate
func TestShouldBackfillRequiresUpwardMotion(t *testing.T) {
	a := idleAnchor(t)

	// Establish a downward position first.
	if a.ShouldBackfill(10, true, false) {
		t.Error("downward scroll to 10 must not trigger backfill")
	}

	// Moving up but still far from the top.
	if a.ShouldBackfill(8, true, false) {
		t.Error("upward scroll at offset 8 is not near the top")
	}

	// Moving up into the threshold band.
	if !a.ShouldBackfill(2, true, false) {
		t.Error("upward scroll to offset 2 should trigger backfill")
	}
}

// TestShouldBackfillAtTopWithoutMotion tests that landing at the top going down does not fire
func TestShouldBackfillAtTopWithoutMotion(t *testing.T) {
	a := idleAnchor(t)

	// First observation: offset 0, no prior position above it.
	if a.ShouldBackfill(0, true, false) {
		t.Error("offset 0 with no upward motion must not trigger backfill")
	}
}

// TestShouldBackfillGates tests hasMore and inFlight suppression
func TestShouldBackfillGates(t *testing.T) {
	a := idleAnchor(t)
	a.ShouldBackfill(10, true, false)

	if a.ShouldBackfill(1, false, false) {
		t.Error("exhausted history must not trigger backfill")
	}

	a = idleAnchor(t)
	a.ShouldBackfill(10, true, false)
	if a.ShouldBackfill(1, true, true) {
		t.Error("in-flight fetch must not trigger backfill")
	}
}

// TestShouldBackfillSuppressedDuringBackfill tests the state gate
func TestShouldBackfillSuppressedDuringBackfill(t *testing.T) {
	a := idleAnchor(t)
	a.ShouldBackfill(10, true, false)
	a.OnBackfillStart(2, 100)

	if a.ShouldBackfill(1, true, false) {
		t.Error("backfill state must suppress a second trigger")
	}
}

// TestBackfillOffsetCompensation tests the prepend offset math
func TestBackfillOffsetCompensation(t *testing.T) {
	a := idleAnchor(t)
	a.OnBackfillStart(2, 100)

	// A 30-row page was prepended: content grew from 100 to 130 rows,
	// so the offset moves down by 30 to keep the same rows visible.
	if got := a.OnBackfillApplied(130); got != 32 {
		t.Errorf("OnBackfillApplied(130) = %d, want 32", got)
	}
	a.OnSettle()

	if a.State() != AnchorIdle {
		t.Errorf("state after settle = %v, want AnchorIdle", a.State())
	}
}

// TestBackfillOffsetClamped tests that a shrinking render cannot go negative
func TestBackfillOffsetClamped(t *testing.T) {
	a := idleAnchor(t)
	a.OnBackfillStart(2, 100)

	if got := a.OnBackfillApplied(90); got != 0 {
		t.Errorf("OnBackfillApplied(90) = %d, want 0", got)
	}
}

// TestInitialLoadSuppressesBackfill tests the initial state gate
func TestInitialLoadSuppressesBackfill(t *testing.T) {
	a := NewAnchor(3)
	a.ShouldBackfill(10, true, false)

	if a.ShouldBackfill(0, true, false) {
		t.Error("initial-load state must suppress backfill")
	}

	a.OnInitialApplied()
	a.ShouldBackfill(10, true, false)
	if !a.ShouldBackfill(0, true, false) {
		t.Error("idle state after initial load should allow backfill")
	}
}
