// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feed implements the live message timeline for a conversation.
package feed

// DefaultGroupWindow is the maximum gap, in epoch milliseconds, between two
// entries that may render as one visual block.
const DefaultGroupWindow = 60_000

// Grouped reports whether the entry at index i should render compactly
// attached to its predecessor, using the default time window.
func Grouped(entries []Entry, i int) bool {
	return GroupedWithin(entries, i, DefaultGroupWindow)
}

// GroupedWithin is Grouped with an explicit time window.
//
// An entry groups with its predecessor only when both come from the same
// sender within the window, the entry is not a reply (replies need their own
// header), and neither side is a command invocation (commands always render
// with their own badge).
func GroupedWithin(entries []Entry, i int, windowMillis int64) bool {
	if i <= 0 || i >= len(entries) {
		return false
	}
	cur, prev := entries[i], entries[i-1]
	if cur.SenderID != prev.SenderID {
		return false
	}
	gap := cur.CreatedTimestamp - prev.CreatedTimestamp
	if gap < 0 {
		gap = -gap
	}
	if gap >= windowMillis {
		return false
	}
	if cur.ReplyTo != "" {
		return false
	}
	if cur.Kind == KindCommand || prev.Kind == KindCommand {
		return false
	}
	return true
}
