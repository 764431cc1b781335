// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway maintains the websocket connection to the Parley
// push gateway.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleychat/parley-tui/internal/feed"
)

// =============================================================================
// EVENT DECODING
// =============================================================================

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantOK   bool
		wantType EventType
	}{
		{
			name:     "created with record",
			raw:      `{"type":"entry.created","conversation_id":"c1","kind":"message","record":{"id":"e1"}}`,
			wantOK:   true,
			wantType: EventEntryCreated,
		},
		{
			name:   "created without record is dropped",
			raw:    `{"type":"entry.created","conversation_id":"c1"}`,
			wantOK: false,
		},
		{
			name:     "edited",
			raw:      `{"type":"entry.edited","conversation_id":"c1","entry_id":"e1","body":"new"}`,
			wantOK:   true,
			wantType: EventEntryEdited,
		},
		{
			name:     "deleted",
			raw:      `{"type":"entry.deleted","conversation_id":"c1","entry_id":"e1"}`,
			wantOK:   true,
			wantType: EventEntryDeleted,
		},
		{
			name:     "reorder",
			raw:      `{"type":"conversation.reordered","conversation_ids":["c2","c1"]}`,
			wantOK:   true,
			wantType: EventConversationsReorder,
		},
		{
			name:   "unknown type is dropped",
			raw:    `{"type":"presence.changed","conversation_id":"c1"}`,
			wantOK: false,
		},
		{
			name:   "malformed json is dropped",
			raw:    `{broken`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := decodeEvent([]byte(tt.raw))
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantType, ev.Type)
			}
		})
	}
}

func TestDecodeEventKind(t *testing.T) {
	ev, ok := decodeEvent([]byte(`{"type":"entry.created","conversation_id":"c1","kind":"command","record":{"id":"e1"}}`))
	require.True(t, ok)
	assert.Equal(t, feed.KindCommand, ev.Kind)

	ev, ok = decodeEvent([]byte(`{"type":"entry.created","conversation_id":"c1","kind":"","record":{"id":"e1"}}`))
	require.True(t, ok)
	assert.Equal(t, feed.KindMessage, ev.Kind, "missing kind defaults to message")
}

// =============================================================================
// STORE ADAPTER
// =============================================================================

type nullFetcher struct{}

func (nullFetcher) FetchHistory(context.Context, feed.HistoryQuery) (*feed.HistoryPage, error) {
	return &feed.HistoryPage{}, nil
}

func TestApply(t *testing.T) {
	store := feed.NewStore(nullFetcher{}, feed.Config{})
	require.NoError(t, store.LoadInitial(context.Background(), "conv-1"))

	created := Event{
		Type:           EventEntryCreated,
		ConversationID: "conv-1",
		Kind:           feed.KindMessage,
		Record:         &feed.RawRecord{ID: "e1", Body: "hello", CreatedTimestamp: float64(10)},
	}
	assert.True(t, Apply(store, created))
	assert.False(t, Apply(store, created), "replayed create must be a no-op")
	require.Equal(t, 1, store.Len())

	body := "revised"
	edited := Event{
		Type:           EventEntryEdited,
		ConversationID: "conv-1",
		EntryID:        "e1",
		Body:           &body,
	}
	assert.True(t, Apply(store, edited))
	assert.Equal(t, "revised", store.Entries()[0].Body)

	assert.True(t, Apply(store, Event{Type: EventEntryDeleted, ConversationID: "conv-1", EntryID: "e1"}))
	assert.Zero(t, store.Len())
}

func TestApplyDropsOtherConversations(t *testing.T) {
	store := feed.NewStore(nullFetcher{}, feed.Config{})
	require.NoError(t, store.LoadInitial(context.Background(), "conv-1"))

	ev := Event{
		Type:           EventEntryCreated,
		ConversationID: "conv-OTHER",
		Kind:           feed.KindMessage,
		Record:         &feed.RawRecord{ID: "e1"},
	}
	assert.False(t, Apply(store, ev))
	assert.Zero(t, store.Len())
}

// =============================================================================
// CONNECTION
// =============================================================================

var upgrader = websocket.Upgrader{}

// testServer runs handler for each websocket connection it accepts.
func testServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSubscribeAndReceive(t *testing.T) {
	server := testServer(t, func(conn *websocket.Conn) {
		var sub clientFrame
		require.NoError(t, conn.ReadJSON(&sub))
		assert.Equal(t, opSubscribe, sub.Op)
		assert.Equal(t, "conv-1", sub.ConversationID)
		assert.NotEmpty(t, sub.SubscriptionID)

		payload, _ := json.Marshal(frame{
			Type:           string(EventEntryCreated),
			ConversationID: "conv-1",
			Kind:           "message",
			Record:         &feed.RawRecord{ID: "e1", Body: "pushed"},
		})
		conn.WriteMessage(websocket.TextMessage, payload)

		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	client := NewClient(&ClientConfig{URL: wsURL(server), MinReconnectDelay: 10 * time.Millisecond})
	defer client.Close()

	sub, err := client.Subscribe("conv-1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, EventEntryCreated, ev.Type)
		require.NotNil(t, ev.Record)
		assert.Equal(t, "e1", ev.Record.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pushed event")
	}
}

func TestResubscribeAfterReconnect(t *testing.T) {
	subscribes := make(chan clientFrame, 4)
	conns := 0
	server := testServer(t, func(conn *websocket.Conn) {
		conns++
		first := conns == 1
		var sub clientFrame
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subscribes <- sub
		if first {
			return // drop the first connection right after the subscribe
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	client := NewClient(&ClientConfig{URL: wsURL(server), MinReconnectDelay: 10 * time.Millisecond})
	defer client.Close()

	_, err := client.Subscribe("conv-1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)

	var first, second clientFrame
	select {
	case first = <-subscribes:
	case <-time.After(5 * time.Second):
		t.Fatal("no subscribe on first connection")
	}
	select {
	case second = <-subscribes:
	case <-time.After(5 * time.Second):
		t.Fatal("no subscribe after reconnect")
	}

	assert.Equal(t, first.SubscriptionID, second.SubscriptionID,
		"reconnect must replay the same subscription")
	assert.Equal(t, "conv-1", second.ConversationID)
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	client := NewClient(&ClientConfig{URL: "ws://127.0.0.1:1/gateway"})
	defer client.Close()

	sub, err := client.Subscribe("conv-1")
	require.NoError(t, err)

	sub.Close()
	sub.Close()

	_, open := <-sub.Events()
	assert.False(t, open, "event channel must close with the subscription")
}

func TestSubscribeAfterClose(t *testing.T) {
	client := NewClient(nil)
	client.Close()

	_, err := client.Subscribe("conv-1")
	assert.ErrorIs(t, err, ErrClosed)
}
