// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feed implements the live message timeline for a conversation.
package feed

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// =============================================================================
// FETCHER CONTRACT
// =============================================================================

// HistoryQuery describes one request against the history endpoint.
// An empty cursor means "from the newest end" of that stream.
type HistoryQuery struct {
	ConversationID string
	UserCursor     string
	CommandCursor  string
	Limit          int
}

// HistoryPage is one response from the history endpoint: a batch of each
// stream, both raw and unordered relative to each other.
type HistoryPage struct {
	Messages []RawRecord `json:"messages"`
	Commands []RawRecord `json:"commands"`
}

// Fetcher loads history pages from the remote service.
type Fetcher interface {
	FetchHistory(ctx context.Context, q HistoryQuery) (*HistoryPage, error)
}

// =============================================================================
// STORE CONFIGURATION
// =============================================================================

// Config holds the batch-size tuning for the store. These mirror the
// service defaults but are not load-bearing; any positive values work.
type Config struct {
	// InitialBatch is the per-stream size of the first fetch.
	InitialBatch int

	// WidenedBatch is the per-stream size used when an explicit cursor
	// pair is supplied to the first fetch (resuming mid-history).
	WidenedBatch int

	// BackfillBatch is the per-stream size of every subsequent fetch.
	BackfillBatch int

	// ExhaustedBelow marks a fetch as the end of history when every
	// stream returned fewer than this many records.
	ExhaustedBelow int
}

// DefaultConfig returns the store defaults.
func DefaultConfig() Config {
	return Config{
		InitialBatch:   40,
		WidenedBatch:   70,
		BackfillBatch:  10,
		ExhaustedBelow: 10,
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.InitialBatch <= 0 {
		c.InitialBatch = def.InitialBatch
	}
	if c.WidenedBatch <= 0 {
		c.WidenedBatch = def.WidenedBatch
	}
	if c.BackfillBatch <= 0 {
		c.BackfillBatch = def.BackfillBatch
	}
	if c.ExhaustedBelow <= 0 {
		c.ExhaustedBelow = def.ExhaustedBelow
	}
}

// =============================================================================
// STORE
// =============================================================================

// Store holds the ordered timeline for the active conversation.
//
// Entries are always sorted ascending by CreatedTimestamp; ties keep
// arrival order. The store owns the two pagination cursors implicitly:
// the user cursor is the CreatedAt of the oldest loaded message entry,
// the command cursor the CreatedAt of the oldest loaded command entry.
//
// Mutations are applied in call order. Fetch results are guarded by a
// generation counter so a response that lands after the conversation
// switched (or after a newer initial load) is discarded silently.
type Store struct {
	mu      sync.Mutex
	fetcher Fetcher
	cfg     Config

	conversationID string
	generation     uint64

	entries  []Entry
	inFlight bool
	hasMore  bool
}

// NewStore creates a store backed by the given fetcher.
func NewStore(fetcher Fetcher, cfg Config) *Store {
	cfg.fillDefaults()
	return &Store{
		fetcher: fetcher,
		cfg:     cfg,
	}
}

// ConversationID returns the conversation this store currently serves.
func (s *Store) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Entries returns a copy of the ordered timeline.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of loaded entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// HasMore reports whether older history may remain.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// InFlight reports whether a fetch is currently outstanding.
func (s *Store) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// =============================================================================
// LOADING
// =============================================================================

// LoadInitial clears state and fetches the most recent batch of both
// streams for the conversation. Safe to call again for a different
// conversation: the generation bump discards any older in-flight result.
func (s *Store) LoadInitial(ctx context.Context, conversationID string) error {
	return s.loadInitial(ctx, conversationID, "", "")
}

// LoadInitialAt is LoadInitial resuming from an explicit cursor pair,
// which widens the per-stream batch.
func (s *Store) LoadInitialAt(ctx context.Context, conversationID, userCursor, commandCursor string) error {
	return s.loadInitial(ctx, conversationID, userCursor, commandCursor)
}

func (s *Store) loadInitial(ctx context.Context, conversationID, userCursor, commandCursor string) error {
	limit := s.cfg.InitialBatch
	if userCursor != "" && commandCursor != "" {
		limit = s.cfg.WidenedBatch
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.conversationID = conversationID
	s.entries = nil
	s.hasMore = false
	s.inFlight = true
	s.mu.Unlock()

	page, err := s.fetcher.FetchHistory(ctx, HistoryQuery{
		ConversationID: conversationID,
		UserCursor:     userCursor,
		CommandCursor:  commandCursor,
		Limit:          limit,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		// Conversation switched while the fetch was outstanding.
		return nil
	}
	s.inFlight = false
	if err != nil {
		return err
	}

	merged := append(Normalize(page.Messages, KindMessage), Normalize(page.Commands, KindCommand)...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedTimestamp < merged[j].CreatedTimestamp
	})
	s.entries = merged
	s.hasMore = len(page.Messages) >= s.cfg.ExhaustedBelow || len(page.Commands) >= s.cfg.ExhaustedBelow
	return nil
}

// LoadMore fetches the next older batch and prepends it. It is a no-op when
// a fetch is already in flight or history is exhausted, and returns the
// number of entries prepended.
func (s *Store) LoadMore(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.inFlight || !s.hasMore {
		s.mu.Unlock()
		return 0, nil
	}
	if len(s.entries) == 0 {
		// No cursor can be derived from an empty feed.
		s.hasMore = false
		s.mu.Unlock()
		return 0, nil
	}
	query := HistoryQuery{
		ConversationID: s.conversationID,
		UserCursor:     s.oldestCursorLocked(KindMessage),
		CommandCursor:  s.oldestCursorLocked(KindCommand),
		Limit:          s.cfg.BackfillBatch,
	}
	gen := s.generation
	s.inFlight = true
	s.mu.Unlock()

	page, err := s.fetcher.FetchHistory(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return 0, nil
	}
	s.inFlight = false
	if err != nil {
		// Failed fetch leaves state untouched beyond the in-flight flag.
		return 0, err
	}

	older := append(Normalize(page.Messages, KindMessage), Normalize(page.Commands, KindCommand)...)
	sort.SliceStable(older, func(i, j int) bool {
		return older[i].CreatedTimestamp < older[j].CreatedTimestamp
	})

	// Prepend without disturbing the already-rendered suffix.
	older = s.dropKnownLocked(older)
	if len(older) > 0 {
		s.entries = append(older, s.entries...)
	}
	s.hasMore = len(page.Messages) >= s.cfg.ExhaustedBelow || len(page.Commands) >= s.cfg.ExhaustedBelow
	return len(older), nil
}

// oldestCursorLocked returns the CreatedAt of the oldest loaded entry of the
// given kind, or empty when that stream has no loaded entries.
func (s *Store) oldestCursorLocked(kind Kind) string {
	for _, e := range s.entries {
		if e.Kind == kind {
			return e.CreatedAt
		}
	}
	return ""
}

// dropKnownLocked filters out records the store already holds by ID. The
// service may re-deliver boundary records across pages.
func (s *Store) dropKnownLocked(batch []Entry) []Entry {
	if len(batch) == 0 {
		return batch
	}
	known := make(map[string]struct{}, len(s.entries))
	for _, e := range s.entries {
		known[e.ID] = struct{}{}
	}
	out := batch[:0]
	for _, e := range batch {
		if _, dup := known[e.ID]; dup {
			continue
		}
		out = append(out, e)
	}
	return out
}

// =============================================================================
// PUSH MUTATIONS
// =============================================================================

// ApplyCreate inserts a newly pushed entry. Duplicate IDs are ignored,
// which makes at-least-once delivery harmless.
func (s *Store) ApplyCreate(entry Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == entry.ID {
			return false
		}
	}
	// New entries almost always belong at the end; walk back only as far
	// as the order invariant requires.
	idx := len(s.entries)
	for idx > 0 && s.entries[idx-1].CreatedTimestamp > entry.CreatedTimestamp {
		idx--
	}
	s.entries = append(s.entries, Entry{})
	copy(s.entries[idx+1:], s.entries[idx:])
	s.entries[idx] = entry
	return true
}

// EntryPatch carries the mutable fields of an edit event. Nil fields are
// left untouched.
type EntryPatch struct {
	Body    *string
	Edited  *bool
	Embeds  []json.RawMessage
	Actions []json.RawMessage
}

// ApplyEdit merges a patch into the entry with the given ID. An edit for an
// entry outside the loaded window is dropped silently.
func (s *Store) ApplyEdit(id string, patch EntryPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID != id {
			continue
		}
		if patch.Body != nil {
			s.entries[i].Body = *patch.Body
		}
		if patch.Edited != nil {
			s.entries[i].Edited = *patch.Edited
		}
		if patch.Embeds != nil {
			s.entries[i].Embeds = DecodePayloads(patch.Embeds)
		}
		if patch.Actions != nil {
			s.entries[i].Actions = DecodePayloads(patch.Actions)
		}
		return true
	}
	return false
}

// ApplyDelete removes the entry with the given ID; absent IDs are a no-op.
func (s *Store) ApplyDelete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}
