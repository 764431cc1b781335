// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package autocomplete implements the slash-command popup for the
// compose box.
package autocomplete

import "regexp"

// =============================================================================
// MODES
// =============================================================================

// Mode is the autocomplete popup mode derived from the buffer shape.
type Mode int

const (
	// ModeNone hides the popup.
	ModeNone Mode = iota
	// ModeCommandList searches command names by the partial word.
	ModeCommandList
	// ModeOptionList lists the matched command's unused options.
	ModeOptionList
)

func (m Mode) String() string {
	switch m {
	case ModeCommandList:
		return "command-list"
	case ModeOptionList:
		return "option-list"
	default:
		return "none"
	}
}

// =============================================================================
// BUFFER GRAMMAR
// =============================================================================

var (
	// "/" plus word characters and nothing else
	commandListRe = regexp.MustCompile(`^/(\w*)$`)

	// "/name" followed by at least one space
	optionListRe = regexp.MustCompile(`^/(\w+) (.*)$`)

	// option keys already present in the rest of the buffer
	usedKeyRe = regexp.MustCompile(`(\w+):`)

	// the trailing partial word an option commit replaces
	tailWordRe = regexp.MustCompile(`(?:^| )(\w*)$`)
)

// Parse is the structural reading of one buffer state.
type Parse struct {
	Mode        Mode
	Term        string   // partial command word in ModeCommandList
	CommandName string   // matched name in ModeOptionList
	Rest        string   // everything after "name " in ModeOptionList
	UsedKeys    []string // option keys already typed as "key:" tokens
}

// ParseBuffer classifies the buffer against the slash-command grammar.
// ModeOptionList here means only that the shape matches; whether the
// name refers to a known command is the engine's call.
func ParseBuffer(buffer string) Parse {
	if m := commandListRe.FindStringSubmatch(buffer); m != nil {
		return Parse{Mode: ModeCommandList, Term: m[1]}
	}
	if m := optionListRe.FindStringSubmatch(buffer); m != nil {
		return Parse{
			Mode:        ModeOptionList,
			CommandName: m[1],
			Rest:        m[2],
			UsedKeys:    scanUsedKeys(m[2]),
		}
	}
	return Parse{Mode: ModeNone}
}

// scanUsedKeys collects every "key:" token in the option region.
func scanUsedKeys(rest string) []string {
	var keys []string
	for _, m := range usedKeyRe.FindAllStringSubmatch(rest, -1) {
		keys = append(keys, m[1])
	}
	return keys
}

// ReplaceTailWord swaps the trailing partial word of buffer for text.
// Used by option commits; the grammar guarantees a (possibly empty)
// tail word always matches.
func ReplaceTailWord(buffer, text string) string {
	loc := tailWordRe.FindStringSubmatchIndex(buffer)
	if loc == nil {
		return buffer + text
	}
	// loc[2]:loc[3] is the captured word group
	return buffer[:loc[2]] + text
}
