// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Parley chat service.
package api

import (
	"github.com/parleychat/parley-tui/internal/feed"
)

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// FileUpload references one file attached to an outgoing message.
type FileUpload struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Kind string `json:"kind"`
	Size int64  `json:"size"`
}

// Conversation is one row of the conversation list.
type Conversation struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	LastEntryID  string `json:"last_entry_id"`
	LastActivity int64  `json:"last_activity"`
}

// listConversationsResponse is the wire shape of the conversation list.
type listConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

// SendMessageRequest is the payload of the message-send endpoint.
type SendMessageRequest struct {
	ConversationID string       `json:"conversation_id"`
	Body           string       `json:"body"`
	ReplyTo        string       `json:"reply_to,omitempty"`
	Files          []FileUpload `json:"files,omitempty"`
}

// SendMessageResult is the service's answer to a send.
type SendMessageResult struct {
	ID           string            `json:"id"`
	CreatedFiles []feed.Attachment `json:"created_files"`
}

// EditMessageRequest is the payload of the message-edit endpoint.
type EditMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	EntryID        string `json:"entry_id"`
	Body           string `json:"body"`
}

// DeleteMessageRequest is the payload of the message-delete endpoint.
type DeleteMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	EntryID        string `json:"entry_id"`
}

// =============================================================================
// COMMAND OPERATIONS
// =============================================================================

// CommandOption is one key:value pair of a command invocation.
type CommandOption struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DispatchCommandRequest is the payload of the application-command endpoint.
type DispatchCommandRequest struct {
	AppID          string          `json:"app_id"`
	CommandName    string          `json:"command_name"`
	ConversationID string          `json:"conversation_id"`
	Options        []CommandOption `json:"options"`
}

// CommandOptionDef is one declared option of a registered command.
type CommandOptionDef struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// CommandInfo is one registered command with its declared option schema.
type CommandInfo struct {
	Name        string             `json:"name"`
	AppID       string             `json:"app_id"`
	Description string             `json:"description"`
	Options     []CommandOptionDef `json:"options"`
}

// SearchCommandsRequest queries the command registry.
type SearchCommandsRequest struct {
	ConversationID string
	Query          string
	Limit          int
	Offset         int
}

// searchCommandsResponse is the wire shape of a registry search.
type searchCommandsResponse struct {
	Commands []CommandInfo `json:"commands"`
}

// =============================================================================
// ASSISTANT OPERATIONS
// =============================================================================

// AssistantFollowUpRequest asks the assistant to respond to a just-sent
// message. Fire-and-forget beyond the thinking indicator.
type AssistantFollowUpRequest struct {
	Body           string       `json:"body"`
	ConversationID string       `json:"conversation_id"`
	ReplyTo        string       `json:"reply_to"`
	Files          []FileUpload `json:"files,omitempty"`
}
