// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway maintains the websocket connection to the Parley
// push gateway.
package gateway

import (
	"encoding/json"

	"github.com/parleychat/parley-tui/internal/feed"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventType identifies one kind of pushed gateway event.
type EventType string

const (
	EventEntryCreated         EventType = "entry.created"
	EventEntryEdited          EventType = "entry.edited"
	EventEntryDeleted         EventType = "entry.deleted"
	EventConversationsReorder EventType = "conversation.reordered"
)

// Event is one decoded push event. Which fields are populated depends
// on Type: created events carry Record and Kind, edited events carry
// EntryID plus the changed fields, deleted events carry only EntryID,
// and reorder events carry ConversationIDs.
type Event struct {
	Type           EventType
	ConversationID string

	// entry.created
	Kind   feed.Kind
	Record *feed.RawRecord

	// entry.edited / entry.deleted
	EntryID string
	Body    *string
	Edited  *bool
	Embeds  []json.RawMessage
	Actions []json.RawMessage

	// conversation.reordered
	ConversationIDs []string
}

// frame is the wire shape of a gateway event.
type frame struct {
	Type            string            `json:"type"`
	ConversationID  string            `json:"conversation_id"`
	Kind            string            `json:"kind"`
	Record          *feed.RawRecord   `json:"record"`
	EntryID         string            `json:"entry_id"`
	Body            *string           `json:"body"`
	Edited          *bool             `json:"edited"`
	Embeds          []json.RawMessage `json:"embeds"`
	Actions         []json.RawMessage `json:"actions"`
	ConversationIDs []string          `json:"conversation_ids"`
}

// decodeEvent turns one raw websocket message into an Event. Unknown
// event types and undecodable frames return ok=false and are dropped
// by the read loop; a malformed push must never take the feed down.
func decodeEvent(raw []byte) (Event, bool) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Event{}, false
	}

	ev := Event{
		ConversationID:  f.ConversationID,
		Record:          f.Record,
		EntryID:         f.EntryID,
		Body:            f.Body,
		Edited:          f.Edited,
		Embeds:          f.Embeds,
		Actions:         f.Actions,
		ConversationIDs: f.ConversationIDs,
	}

	switch EventType(f.Type) {
	case EventEntryCreated:
		if f.Record == nil {
			return Event{}, false
		}
		ev.Type = EventEntryCreated
	case EventEntryEdited:
		ev.Type = EventEntryEdited
	case EventEntryDeleted:
		ev.Type = EventEntryDeleted
	case EventConversationsReorder:
		ev.Type = EventConversationsReorder
	default:
		return Event{}, false
	}

	if f.Kind == string(feed.KindCommand) {
		ev.Kind = feed.KindCommand
	} else {
		ev.Kind = feed.KindMessage
	}

	return ev, true
}

// =============================================================================
// CLIENT FRAMES
// =============================================================================

// clientFrame is a frame sent from the client to the gateway.
type clientFrame struct {
	Op             string `json:"op"`
	SubscriptionID string `json:"subscription_id"`
	ConversationID string `json:"conversation_id,omitempty"`
}

const (
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
)
