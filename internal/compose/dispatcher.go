// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package compose routes a submitted compose buffer to the right
// service call.
package compose

import (
	"context"
	"strings"

	"github.com/parleychat/parley-tui/internal/api"
	"github.com/parleychat/parley-tui/internal/autocomplete"
	"github.com/parleychat/parley-tui/internal/feed"
)

// =============================================================================
// SERVICE CONTRACT
// =============================================================================

// Service is the slice of the api client the dispatcher needs.
type Service interface {
	SendMessage(ctx context.Context, req api.SendMessageRequest) (*api.SendMessageResult, error)
	DispatchCommand(ctx context.Context, req api.DispatchCommandRequest) error
	AssistantFollowUp(ctx context.Context, req api.AssistantFollowUpRequest) error
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Config holds the assistant identity used for follow-up detection.
type Config struct {
	// AssistantHandle is the mention handle, without the "@".
	AssistantHandle string

	// AssistantSenderID marks entries authored by the assistant.
	AssistantSenderID string
}

// Dispatcher turns compose submissions into service calls.
type Dispatcher struct {
	service Service
	config  Config
}

// NewDispatcher creates a dispatcher over the given service.
func NewDispatcher(service Service, config Config) *Dispatcher {
	return &Dispatcher{service: service, config: config}
}

// Submission is one submitted compose buffer with its context.
type Submission struct {
	ConversationID string
	Body           string

	// ReplyTo is the replied-to entry's id, if any; ReplyToSenderID is
	// that entry's author, used for assistant detection.
	ReplyTo         string
	ReplyToSenderID string

	Files []api.FileUpload

	// Picked is the committed slash command, if any.
	Picked *autocomplete.Picked

	// ForceFollowUp requests an assistant follow-up regardless of
	// mention or reply target.
	ForceFollowUp bool
}

// OutcomeKind says which endpoint a submission went to.
type OutcomeKind int

const (
	OutcomeMessage OutcomeKind = iota
	OutcomeCommand
)

// Outcome reports a successful submission. When FollowUp is non-nil
// the caller runs Dispatcher.FollowUp with it, tracking the thinking
// indicator for the duration.
type Outcome struct {
	Kind         OutcomeKind
	SentID       string
	CreatedFiles []feed.Attachment
	FollowUp     *api.AssistantFollowUpRequest
}

// Submit dispatches one submission. A command pick only applies while
// the buffer still starts with its invocation; otherwise the buffer is
// a plain message. On error, state is the caller's to keep - nothing
// was cleared.
func (d *Dispatcher) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	if sub.Picked != nil && strings.HasPrefix(sub.Body, "/"+sub.Picked.Name) {
		return d.submitCommand(ctx, sub)
	}
	return d.submitMessage(ctx, sub)
}

func (d *Dispatcher) submitCommand(ctx context.Context, sub Submission) (*Outcome, error) {
	rest := strings.TrimPrefix(sub.Body, "/"+sub.Picked.Name)
	err := d.service.DispatchCommand(ctx, api.DispatchCommandRequest{
		AppID:          sub.Picked.AppID,
		CommandName:    sub.Picked.Name,
		ConversationID: sub.ConversationID,
		Options:        ParseOptions(rest),
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{Kind: OutcomeCommand}, nil
}

func (d *Dispatcher) submitMessage(ctx context.Context, sub Submission) (*Outcome, error) {
	result, err := d.service.SendMessage(ctx, api.SendMessageRequest{
		ConversationID: sub.ConversationID,
		Body:           sub.Body,
		ReplyTo:        sub.ReplyTo,
		Files:          sub.Files,
	})
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Kind:         OutcomeMessage,
		SentID:       result.ID,
		CreatedFiles: result.CreatedFiles,
	}
	if d.wantsFollowUp(sub) {
		outcome.FollowUp = &api.AssistantFollowUpRequest{
			Body:           sub.Body,
			ConversationID: sub.ConversationID,
			ReplyTo:        result.ID,
			Files:          sub.Files,
		}
	}
	return outcome, nil
}

// FollowUp runs the assistant follow-up call. Fire-and-forget beyond
// the caller's thinking indicator; the assistant's answer arrives as a
// pushed entry.
func (d *Dispatcher) FollowUp(ctx context.Context, req api.AssistantFollowUpRequest) error {
	return d.service.AssistantFollowUp(ctx, req)
}

// wantsFollowUp decides whether a sent message should wake the
// assistant: an explicit mention, a reply to an assistant entry, or a
// forced flag.
func (d *Dispatcher) wantsFollowUp(sub Submission) bool {
	if sub.ForceFollowUp {
		return true
	}
	if d.config.AssistantHandle != "" && strings.Contains(sub.Body, "@"+d.config.AssistantHandle) {
		return true
	}
	return sub.ReplyTo != "" &&
		d.config.AssistantSenderID != "" &&
		sub.ReplyToSenderID == d.config.AssistantSenderID
}
