// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package autocomplete implements the slash-command popup for the
// compose box.
package autocomplete

import (
	"reflect"
	"testing"
)

// TestParseBuffer tests the buffer shape classification
func TestParseBuffer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Parse
	}{
		{
			name: "bare slash",
			in:   "/",
			want: Parse{Mode: ModeCommandList, Term: ""},
		},
		{
			name: "partial command",
			in:   "/pin",
			want: Parse{Mode: ModeCommandList, Term: "pin"},
		},
		{
			name: "name plus space enters option shape",
			in:   "/pin ",
			want: Parse{Mode: ModeOptionList, CommandName: "pin", Rest: ""},
		},
		{
			name: "option region with used key",
			in:   "/pin user: alice",
			want: Parse{Mode: ModeOptionList, CommandName: "pin", Rest: "user: alice", UsedKeys: []string{"user"}},
		},
		{
			name: "multiple used keys",
			in:   "/remind who:me when:later ",
			want: Parse{Mode: ModeOptionList, CommandName: "remind", Rest: "who:me when:later ", UsedKeys: []string{"who", "when"}},
		},
		{
			name: "plain text",
			in:   "hello",
			want: Parse{Mode: ModeNone},
		},
		{
			name: "slash not at start",
			in:   "see /pin",
			want: Parse{Mode: ModeNone},
		},
		{
			name: "slash with punctuation",
			in:   "/pin!",
			want: Parse{Mode: ModeNone},
		},
		{
			name: "empty buffer",
			in:   "",
			want: Parse{Mode: ModeNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBuffer(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseBuffer(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

// TestReplaceTailWord tests the option commit rewrite target
func TestReplaceTailWord(t *testing.T) {
	tests := []struct {
		name string
		in   string
		text string
		want string
	}{
		{name: "partial word", in: "/pin us", text: "user: ", want: "/pin user: "},
		{name: "empty tail after space", in: "/pin ", text: "user: ", want: "/pin user: "},
		{name: "tail after earlier option", in: "/remind who:me wh", text: "when: ", want: "/remind who:me when: "},
		{name: "whole buffer is the word", in: "us", text: "user: ", want: "user: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReplaceTailWord(tt.in, tt.text); got != tt.want {
				t.Errorf("ReplaceTailWord(%q, %q) = %q, want %q", tt.in, tt.text, got, tt.want)
			}
		})
	}
}
