// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feed implements the live message timeline for a conversation.
package feed

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// ENTRY TYPES
// =============================================================================

// Kind distinguishes plain messages from application command invocations.
type Kind string

const (
	KindMessage Kind = "message"
	KindCommand Kind = "command"
)

// Attachment describes one file attached to an entry.
type Attachment struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
	Size int64  `json:"size"`
}

// Entry is one rendered timeline item in canonical form.
//
// CreatedAt is the opaque cursor token used for pagination requests; it is
// never assumed sortable by value. CreatedTimestamp is the numeric sort key
// derived by Normalize; when the raw timestamp was unparsable it is zero and
// TimestampValid is false, which sorts the entry first.
type Entry struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	SenderID string `json:"sender_id"`
	Body     string `json:"body"`

	// Pagination and ordering
	CreatedAt        string `json:"created_at"`
	CreatedTimestamp int64  `json:"created_timestamp"`
	TimestampValid   bool   `json:"-"`

	Edited  bool   `json:"edited"`
	ReplyTo string `json:"reply_to,omitempty"`

	Attachments []Attachment      `json:"attachments"`
	Embeds      []json.RawMessage `json:"embeds,omitempty"`
	Actions     []json.RawMessage `json:"actions,omitempty"`
}

// =============================================================================
// RAW RECORD
// =============================================================================

// RawRecord is the wire shape of one history or push record before
// normalization. Timestamp and reply fields are deliberately loose: the
// service has delivered numbers, RFC 3339 strings, and plain digit strings
// for the same field over time.
type RawRecord struct {
	ID               string            `json:"id"`
	Kind             string            `json:"kind,omitempty"`
	SenderID         string            `json:"sender_id"`
	Body             string            `json:"body"`
	CreatedAt        string            `json:"created_at"`
	CreatedTimestamp any               `json:"created_timestamp"`
	Edited           bool              `json:"edited"`
	ReplyTo          any               `json:"reply_to"`
	Attachments      []Attachment      `json:"attachments"`
	Embeds           []json.RawMessage `json:"embeds"`
	Actions          []json.RawMessage `json:"actions"`
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize converts a batch of raw records into canonical entries.
// It is total: unparsable timestamps degrade to an invalid (zero) sort key,
// malformed embed and action payloads are dropped individually, and missing
// attachments become an empty slice. The batch is never aborted.
//
// fallback is the kind assigned to records that do not carry their own.
func Normalize(records []RawRecord, fallback Kind) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, NormalizeOne(rec, fallback))
	}
	return entries
}

// NormalizeOne converts a single raw record into a canonical entry.
func NormalizeOne(rec RawRecord, fallback Kind) Entry {
	kind := fallback
	switch rec.Kind {
	case string(KindMessage):
		kind = KindMessage
	case string(KindCommand):
		kind = KindCommand
	}

	ts, ok := resolveTimestamp(rec.CreatedTimestamp)

	attachments := rec.Attachments
	if attachments == nil {
		attachments = []Attachment{}
	}

	return Entry{
		ID:               rec.ID,
		Kind:             kind,
		SenderID:         rec.SenderID,
		Body:             rec.Body,
		CreatedAt:        rec.CreatedAt,
		CreatedTimestamp: ts,
		TimestampValid:   ok,
		Edited:           rec.Edited,
		ReplyTo:          coerceReply(rec.ReplyTo),
		Attachments:      attachments,
		Embeds:           DecodePayloads(rec.Embeds),
		Actions:          DecodePayloads(rec.Actions),
	}
}

// resolveTimestamp derives the epoch-millisecond sort key from whatever the
// service delivered. Resolution order: numeric value verbatim, then a
// date-like value, then a string parsed as either digits or RFC 3339.
// Returns (0, false) when nothing parses.
func resolveTimestamp(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int64:
		return t, true
	case int:
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil {
			return int64(f), true
		}
	case time.Time:
		return t.UnixMilli(), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return parsed.UnixMilli(), true
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return parsed.UnixMilli(), true
		}
	}
	return 0, false
}

// coerceReply reduces the loose reply reference to a cursor string.
func coerceReply(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatInt(int64(t), 10)
	case json.Number:
		return t.String()
	}
	return ""
}

// DecodePayloads resolves the embed/action payload union exactly once.
// Each element is either a JSON value or a JSON string that itself contains
// encoded JSON; the result is always the decoded form. Elements that resolve
// to malformed JSON are dropped, not fatal.
func DecodePayloads(raw []json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	out := make([]json.RawMessage, 0, len(raw))
	for _, payload := range raw {
		trimmed := strings.TrimSpace(string(payload))
		if trimmed == "" {
			continue
		}
		if trimmed[0] == '"' {
			// Encoded-inside-a-string variant.
			var inner string
			if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
				continue
			}
			if !json.Valid([]byte(inner)) {
				continue
			}
			out = append(out, json.RawMessage(inner))
			continue
		}
		if !json.Valid([]byte(trimmed)) {
			continue
		}
		out = append(out, json.RawMessage(trimmed))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
