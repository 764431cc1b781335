// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway maintains the websocket connection to the Parley
// push gateway.
package gateway

import (
	"github.com/parleychat/parley-tui/internal/feed"
)

// Apply translates one entry event into the matching feed store
// mutation. Events for other conversations are dropped; the store's
// own idempotence rules handle duplicates and absent IDs. Returns
// true if the store changed.
func Apply(store *feed.Store, ev Event) bool {
	if ev.ConversationID != store.ConversationID() {
		return false
	}

	switch ev.Type {
	case EventEntryCreated:
		entry := feed.NormalizeOne(*ev.Record, ev.Kind)
		return store.ApplyCreate(entry)

	case EventEntryEdited:
		patch := feed.EntryPatch{
			Body:    ev.Body,
			Edited:  ev.Edited,
			Embeds:  ev.Embeds,
			Actions: ev.Actions,
		}
		return store.ApplyEdit(ev.EntryID, patch)

	case EventEntryDeleted:
		return store.ApplyDelete(ev.EntryID)
	}
	return false
}
