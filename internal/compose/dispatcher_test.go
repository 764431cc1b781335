// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package compose routes a submitted compose buffer to the right
// service call.
package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleychat/parley-tui/internal/api"
	"github.com/parleychat/parley-tui/internal/autocomplete"
)

// fakeService records every call the dispatcher makes.
type fakeService struct {
	sends      []api.SendMessageRequest
	dispatches []api.DispatchCommandRequest
	followUps  []api.AssistantFollowUpRequest

	sendErr     error
	dispatchErr error
}

func (f *fakeService) SendMessage(_ context.Context, req api.SendMessageRequest) (*api.SendMessageResult, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sends = append(f.sends, req)
	return &api.SendMessageResult{ID: "sent-1"}, nil
}

func (f *fakeService) DispatchCommand(_ context.Context, req api.DispatchCommandRequest) error {
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	f.dispatches = append(f.dispatches, req)
	return nil
}

func (f *fakeService) AssistantFollowUp(_ context.Context, req api.AssistantFollowUpRequest) error {
	f.followUps = append(f.followUps, req)
	return nil
}

func newDispatcher(service *fakeService) *Dispatcher {
	return NewDispatcher(service, Config{
		AssistantHandle:   "parley",
		AssistantSenderID: "assistant-bot",
	})
}

// =============================================================================
// OPTION PARSING
// =============================================================================

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []api.CommandOption
	}{
		{
			name: "attached values",
			in:   "user:alice channel:general",
			want: []api.CommandOption{{Key: "user", Value: "alice"}, {Key: "channel", Value: "general"}},
		},
		{
			name: "detached value after autocomplete commit",
			in:   "user: alice",
			want: []api.CommandOption{{Key: "user", Value: "alice"}},
		},
		{
			name: "quoted value with spaces",
			in:   `message:"hello there" user:bob`,
			want: []api.CommandOption{{Key: "message", Value: "hello there"}, {Key: "user", Value: "bob"}},
		},
		{
			name: "key with no value before another key",
			in:   "user: channel:general",
			want: []api.CommandOption{{Key: "user", Value: ""}, {Key: "channel", Value: "general"}},
		},
		{
			name: "stray tokens are ignored",
			in:   "please user:alice now",
			want: []api.CommandOption{{Key: "user", Value: "alice"}},
		},
		{
			name: "empty region",
			in:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOptions(tt.in))
		})
	}
}

// =============================================================================
// SUBMISSION ROUTING
// =============================================================================

func TestSubmitCommand(t *testing.T) {
	service := &fakeService{}
	d := newDispatcher(service)

	outcome, err := d.Submit(context.Background(), Submission{
		ConversationID: "conv-1",
		Body:           "/pin user: alice",
		Picked:         &autocomplete.Picked{Name: "pin", AppID: "app-core"},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommand, outcome.Kind)

	require.Len(t, service.dispatches, 1)
	req := service.dispatches[0]
	assert.Equal(t, "app-core", req.AppID)
	assert.Equal(t, "pin", req.CommandName)
	assert.Equal(t, []api.CommandOption{{Key: "user", Value: "alice"}}, req.Options)
	assert.Empty(t, service.sends, "a picked command must not also send a message")
}

func TestSubmitStalePickFallsBackToMessage(t *testing.T) {
	service := &fakeService{}
	d := newDispatcher(service)

	// The user picked /pin but then rewrote the buffer.
	outcome, err := d.Submit(context.Background(), Submission{
		ConversationID: "conv-1",
		Body:           "actually never mind",
		Picked:         &autocomplete.Picked{Name: "pin", AppID: "app-core"},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeMessage, outcome.Kind)
	assert.Empty(t, service.dispatches)
	require.Len(t, service.sends, 1)
}

func TestSubmitMessage(t *testing.T) {
	service := &fakeService{}
	d := newDispatcher(service)

	outcome, err := d.Submit(context.Background(), Submission{
		ConversationID: "conv-1",
		Body:           "hello",
		ReplyTo:        "e9",
		Files:          []api.FileUpload{{Name: "pic.png"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "sent-1", outcome.SentID)
	assert.Nil(t, outcome.FollowUp)

	require.Len(t, service.sends, 1)
	assert.Equal(t, "e9", service.sends[0].ReplyTo)
	require.Len(t, service.sends[0].Files, 1)
}

func TestSubmitErrorLeavesNothingSent(t *testing.T) {
	service := &fakeService{sendErr: errors.New("boom")}
	d := newDispatcher(service)

	_, err := d.Submit(context.Background(), Submission{ConversationID: "conv-1", Body: "hello"})
	require.Error(t, err)
	assert.Empty(t, service.sends)
	assert.Empty(t, service.followUps)
}

// =============================================================================
// ASSISTANT FOLLOW-UP
// =============================================================================

func TestFollowUpTriggers(t *testing.T) {
	tests := []struct {
		name string
		sub  Submission
		want bool
	}{
		{
			name: "mention",
			sub:  Submission{Body: "hey @parley what do you think"},
			want: true,
		},
		{
			name: "reply to assistant entry",
			sub:  Submission{Body: "and then?", ReplyTo: "e1", ReplyToSenderID: "assistant-bot"},
			want: true,
		},
		{
			name: "forced",
			sub:  Submission{Body: "plain", ForceFollowUp: true},
			want: true,
		},
		{
			name: "reply to a human",
			sub:  Submission{Body: "sure", ReplyTo: "e1", ReplyToSenderID: "u2"},
			want: false,
		},
		{
			name: "plain message",
			sub:  Submission{Body: "hello"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &fakeService{}
			d := newDispatcher(service)

			tt.sub.ConversationID = "conv-1"
			outcome, err := d.Submit(context.Background(), tt.sub)
			require.NoError(t, err)

			if tt.want {
				require.NotNil(t, outcome.FollowUp)
				assert.Equal(t, "sent-1", outcome.FollowUp.ReplyTo,
					"follow-up must reference the newly created entry")
			} else {
				assert.Nil(t, outcome.FollowUp)
			}
		})
	}
}

func TestFollowUpDelegates(t *testing.T) {
	service := &fakeService{}
	d := newDispatcher(service)

	req := api.AssistantFollowUpRequest{Body: "hey", ConversationID: "conv-1", ReplyTo: "sent-1"}
	require.NoError(t, d.FollowUp(context.Background(), req))
	require.Len(t, service.followUps, 1)
	assert.Equal(t, req, service.followUps[0])
}
