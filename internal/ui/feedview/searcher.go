// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedview provides the live message feed component for the TUI.
package feedview

import (
	"context"

	"github.com/parleychat/parley-tui/internal/api"
	"github.com/parleychat/parley-tui/internal/autocomplete"
)

// apiSearcher adapts the api client to the autocomplete Searcher
// contract.
type apiSearcher struct {
	client *api.Client
	limit  int
}

// NewSearcher wraps the api client for popup command searches. limit
// caps how many candidates one search returns; zero means 25.
func NewSearcher(client *api.Client, limit int) autocomplete.Searcher {
	if limit <= 0 {
		limit = 25
	}
	return &apiSearcher{client: client, limit: limit}
}

func (s *apiSearcher) SearchCommands(ctx context.Context, conversationID, term string) ([]autocomplete.Command, error) {
	infos, err := s.client.SearchCommands(ctx, api.SearchCommandsRequest{
		ConversationID: conversationID,
		Query:          term,
		Limit:          s.limit,
	})
	if err != nil {
		return nil, err
	}

	cmds := make([]autocomplete.Command, 0, len(infos))
	for _, info := range infos {
		opts := make([]autocomplete.Option, 0, len(info.Options))
		for _, def := range info.Options {
			opts = append(opts, autocomplete.Option{Key: def.Key, Description: def.Description})
		}
		cmds = append(cmds, autocomplete.Command{
			Name:        info.Name,
			AppID:       info.AppID,
			Description: info.Description,
			Options:     opts,
		})
	}
	return cmds, nil
}
