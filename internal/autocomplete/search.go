// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package autocomplete implements the slash-command popup for the
// compose box.
package autocomplete

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDebounce is how long the compose view waits after the last
// keystroke before running a command search.
const DefaultDebounce = 100 * time.Millisecond

// Searcher queries the command registry. The api client satisfies
// this through a small adapter in the view layer.
type Searcher interface {
	SearchCommands(ctx context.Context, conversationID, term string) ([]Command, error)
}

// =============================================================================
// RATE LIMITING
// =============================================================================

// RateLimitedSearcher wraps a Searcher with a token bucket so a held
// key cannot hammer the registry endpoint even past the debounce.
type RateLimitedSearcher struct {
	inner   Searcher
	limiter *rate.Limiter
}

// NewRateLimitedSearcher allows ratePerSec searches with the given
// burst. Zero values fall back to 10/s with a burst of 5.
func NewRateLimitedSearcher(inner Searcher, ratePerSec float64, burst int) *RateLimitedSearcher {
	if ratePerSec <= 0 {
		ratePerSec = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &RateLimitedSearcher{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

// SearchCommands waits for a token, then delegates. A cancelled
// context surfaces as the context's error.
func (s *RateLimitedSearcher) SearchCommands(ctx context.Context, conversationID, term string) ([]Command, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.SearchCommands(ctx, conversationID, term)
}
