// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Parley chat service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleychat/parley-tui/internal/feed"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClientWithConfig(&ClientConfig{
		BaseURL: server.URL,
		Token:   "test-token",
	})
	return client, server
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func TestListConversations(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/conversations", r.URL.Path)
		json.NewEncoder(w).Encode(listConversationsResponse{Conversations: []Conversation{
			{ID: "conv-1", Title: "general", LastEntryID: "e9"},
			{ID: "conv-2", Title: "random"},
		}})
	}))
	defer server.Close()

	convs, err := client.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "general", convs[0].Title)
	assert.Equal(t, "e9", convs[0].LastEntryID)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestFetchHistory(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(feed.HistoryPage{
			Messages: []feed.RawRecord{{ID: "m1", CreatedTimestamp: float64(10)}},
			Commands: []feed.RawRecord{{ID: "c1", CreatedTimestamp: float64(20)}},
		})
	}))
	defer server.Close()

	page, err := client.FetchHistory(context.Background(), feed.HistoryQuery{
		ConversationID: "conv-1",
		UserCursor:     "u-cur",
		CommandCursor:  "c-cur",
		Limit:          70,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/conversations/conv-1/history", gotPath)
	assert.Equal(t, []string{"u-cur"}, gotQuery["user_cursor"])
	assert.Equal(t, []string{"c-cur"}, gotQuery["command_cursor"])
	assert.Equal(t, []string{"70"}, gotQuery["limit"])
	require.Len(t, page.Messages, 1)
	require.Len(t, page.Commands, 1)
}

func TestFetchHistoryOmitsEmptyCursors(t *testing.T) {
	var gotQuery map[string][]string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(feed.HistoryPage{})
	}))
	defer server.Close()

	_, err := client.FetchHistory(context.Background(), feed.HistoryQuery{
		ConversationID: "conv-1",
		Limit:          40,
	})
	require.NoError(t, err)
	assert.NotContains(t, gotQuery, "user_cursor")
	assert.NotContains(t, gotQuery, "command_cursor")
}

// =============================================================================
// MESSAGES
// =============================================================================

func TestSendMessage(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/messages", r.URL.Path)

		var req SendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "conv-1", req.ConversationID)
		assert.Equal(t, "hello", req.Body)

		json.NewEncoder(w).Encode(SendMessageResult{ID: "new-id"})
	}))
	defer server.Close()

	result, err := client.SendMessage(context.Background(), SendMessageRequest{
		ConversationID: "conv-1",
		Body:           "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", result.ID)
}

func TestEditAndDeleteMessage(t *testing.T) {
	var methods []string
	var paths []string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	require.NoError(t, client.EditMessage(context.Background(), EditMessageRequest{
		ConversationID: "conv-1", EntryID: "e1", Body: "revised",
	}))
	require.NoError(t, client.DeleteMessage(context.Background(), DeleteMessageRequest{
		ConversationID: "conv-1", EntryID: "e1",
	}))

	assert.Equal(t, []string{http.MethodPatch, http.MethodDelete}, methods)
	assert.Equal(t, []string{"/api/messages/e1", "/api/messages/e1"}, paths)
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestDispatchCommandSendsEmptyOptionsArray(t *testing.T) {
	var gotBody map[string]json.RawMessage
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	require.NoError(t, client.DispatchCommand(context.Background(), DispatchCommandRequest{
		AppID:          "app-1",
		CommandName:    "giphy",
		ConversationID: "conv-1",
	}))

	// Options must serialize as [] even when the invocation carried none.
	assert.Equal(t, "[]", string(gotBody["options"]))
}

func TestSearchCommands(t *testing.T) {
	var gotQuery map[string][]string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(searchCommandsResponse{Commands: []CommandInfo{
			{Name: "giphy", AppID: "app-1", Description: "Post a gif"},
		}})
	}))
	defer server.Close()

	cmds, err := client.SearchCommands(context.Background(), SearchCommandsRequest{
		ConversationID: "conv-1",
		Query:          "gip",
		Limit:          25,
	})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "giphy", cmds[0].Name)
	assert.Equal(t, []string{"gip"}, gotQuery["q"])
	assert.Equal(t, []string{"25"}, gotQuery["limit"])
	assert.NotContains(t, gotQuery, "offset")
}

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

func TestErrorTaxonomy(t *testing.T) {
	t.Run("unreachable service", func(t *testing.T) {
		client := NewClientWithConfig(&ClientConfig{BaseURL: "http://127.0.0.1:1"})
		_, err := client.SendMessage(context.Background(), SendMessageRequest{})
		require.Error(t, err)
		assert.True(t, IsUnavailable(err))
	})

	t.Run("expired deadline", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		_, err := client.SendMessage(ctx, SendMessageRequest{})
		require.Error(t, err)
		assert.True(t, IsTimeout(err))
	})

	t.Run("rejected session", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := client.FetchHistory(context.Background(), feed.HistoryQuery{ConversationID: "c", Limit: 40})
		require.Error(t, err)
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("service error envelope", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(serviceError{Error: "unknown command"})
		}))
		defer server.Close()

		err := client.DispatchCommand(context.Background(), DispatchCommandRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown command")
		assert.False(t, IsUnavailable(err))
	})
}
