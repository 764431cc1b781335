// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package convlist provides the conversation list sidebar for the TUI.

The sidebar shows the user's conversations ordered by latest activity.
Order updates arrive as conversation.reordered gateway events, routed
in by the root program as OrderChangedMsg; the sidebar never touches
the feed store. Unread markers compare each conversation's newest
entry against the local read marker in the history store.

Activating a row emits SelectedMsg; the root program reacts by
building a feed view for that conversation.
*/
package convlist
