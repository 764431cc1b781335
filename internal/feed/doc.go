// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feed implements the live message timeline for a conversation.
//
// A conversation's history is served by the remote service as two
// independently paginated streams: plain messages and application command
// invocations. This package normalizes the raw records of both streams into
// a single canonical Entry shape, merges them into one chronologically
// ordered timeline, and keeps that timeline live through the mutation
// operations the push channel drives (create, edit, delete).
//
// The three pieces are:
//
//   - Normalize: converts heterogeneous raw records (numeric, string, or
//     missing timestamps; JSON-encoded-or-decoded payloads) into Entry
//     values. Total function - malformed input degrades, never aborts.
//   - Store: the ordered entry list plus the two pagination cursors, the
//     in-flight guard, and the has-more flag.
//   - Grouped: the pure policy deciding whether an entry renders compactly
//     attached to its predecessor.
package feed
