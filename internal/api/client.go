// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Parley chat service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/parleychat/parley-tui/internal/feed"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Parley service client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnavailable
	ErrTypeTimeout
	ErrTypeUnauthorized
	ErrTypeInvalidResponse
	ErrTypeConnection
)

// Sentinel errors for easy checking. Every kind is treated as transient
// by callers: the failed operation leaves state unchanged and the user
// re-triggers it. Auth failures included - expired sessions recover on
// their own once the session refreshes.
var (
	ErrUnavailable  = &ClientError{Type: ErrTypeUnavailable, Message: "parley service is unreachable"}
	ErrTimeout      = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrUnauthorized = &ClientError{Type: ErrTypeUnauthorized, Message: "session rejected by the service"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the service client.
type ClientConfig struct {
	// BaseURL is the service API base URL (default: http://127.0.0.1:8790)
	BaseURL string

	// Token is the bearer token attached to every request.
	Token string

	// Timeout for requests (default: 15s)
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://127.0.0.1:8790",
		Timeout: 15 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Parley service API.
//
// The Client is thread-safe for concurrent use. It implements
// feed.Fetcher, so the feed store can paginate through it directly.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new service client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new service client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8790"
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// doJSON issues one request with the client's auth header and decodes a
// JSON response into out (skipped when out is nil). All transport and
// status failures come back as *ClientError.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ErrTimeout
		}
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Try to surface the service's error message
		var svcErr serviceError
		if err := json.NewDecoder(resp.Body).Decode(&svcErr); err == nil && svcErr.Error != "" {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: svcErr.Error}
		}
		return &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: method + " " + path + " failed: " + resp.Status,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// serviceError is the service's uniform error envelope.
type serviceError struct {
	Error string `json:"error"`
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// ListConversations retrieves the user's conversations, newest
// activity first. The gateway's conversation.reordered event carries
// only IDs; this endpoint supplies the titles and activity metadata.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var resp listConversationsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// =============================================================================
// HISTORY
// =============================================================================

// FetchHistory retrieves one page of conversation history: the user
// message stream and the command record stream, each capped at
// q.Limit, each optionally bounded above by its own cursor.
//
// FetchHistory implements feed.Fetcher.
func (c *Client) FetchHistory(ctx context.Context, q feed.HistoryQuery) (*feed.HistoryPage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.UserCursor != "" {
		params.Set("user_cursor", q.UserCursor)
	}
	if q.CommandCursor != "" {
		params.Set("command_cursor", q.CommandCursor)
	}

	path := "/api/conversations/" + url.PathEscape(q.ConversationID) + "/history?" + params.Encode()

	var page feed.HistoryPage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// SendMessage posts a new message to a conversation.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResult, error) {
	var result SendMessageResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/messages", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EditMessage replaces the body of an existing message. The updated
// record arrives back through the gateway, not the response.
func (c *Client) EditMessage(ctx context.Context, req EditMessageRequest) error {
	path := "/api/messages/" + url.PathEscape(req.EntryID)
	return c.doJSON(ctx, http.MethodPatch, path, req, nil)
}

// DeleteMessage removes a message from a conversation.
func (c *Client) DeleteMessage(ctx context.Context, req DeleteMessageRequest) error {
	path := "/api/messages/" + url.PathEscape(req.EntryID) +
		"?conversation_id=" + url.QueryEscape(req.ConversationID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// =============================================================================
// COMMANDS
// =============================================================================

// DispatchCommand executes an application command in a conversation.
// The resulting command record arrives through the gateway.
func (c *Client) DispatchCommand(ctx context.Context, req DispatchCommandRequest) error {
	if req.Options == nil {
		req.Options = []CommandOption{}
	}
	return c.doJSON(ctx, http.MethodPost, "/api/commands/dispatch", req, nil)
}

// SearchCommands queries the registered commands visible in a
// conversation. An empty query returns the unfiltered listing, which
// callers page through with Limit and Offset.
func (c *Client) SearchCommands(ctx context.Context, req SearchCommandsRequest) ([]CommandInfo, error) {
	params := url.Values{}
	params.Set("conversation_id", req.ConversationID)
	params.Set("q", req.Query)
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		params.Set("offset", strconv.Itoa(req.Offset))
	}

	var resp searchCommandsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/commands/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Commands, nil
}

// =============================================================================
// ASSISTANT
// =============================================================================

// AssistantFollowUp asks the assistant to respond to a just-sent
// message. The response itself arrives as a pushed entry; this call
// only covers the request round-trip.
func (c *Client) AssistantFollowUp(ctx context.Context, req AssistantFollowUpRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/assistant/followup", req, nil)
}

// =============================================================================
// UTILITY METHODS
// =============================================================================

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// IsUnavailable checks if an error indicates the service is unreachable.
func IsUnavailable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUnavailable
	}
	return errors.Is(err, ErrUnavailable)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// IsUnauthorized checks if an error is an auth rejection.
func IsUnauthorized(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUnauthorized
	}
	return errors.Is(err, ErrUnauthorized)
}
