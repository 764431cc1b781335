// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists small bits of local state between runs:
// per-command usage counts (feeding the autocomplete ranking boost)
// and the last-read marker per conversation (feeding unread badges in
// the conversation list).
//
// Everything here is best effort. A broken or missing database
// degrades every read to its zero value and every write to a no-op;
// the feed never depends on this package succeeding.
package history
