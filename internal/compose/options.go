// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package compose routes a submitted compose buffer to the right
// service call.
package compose

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/parleychat/parley-tui/internal/api"
)

var optionKeyRe = regexp.MustCompile(`^(\w+):(.*)$`)

// ParseOptions extracts the key:value option list from the text after
// a command name. Values may be quoted to carry spaces, and the value
// may follow its key either attached ("user:alice") or as the next
// token ("user: alice") - autocomplete commits produce the latter.
// Tokens that belong to no key are ignored.
func ParseOptions(rest string) []api.CommandOption {
	tokens := splitTokens(rest)

	var opts []api.CommandOption
	for i := 0; i < len(tokens); i++ {
		m := optionKeyRe.FindStringSubmatch(tokens[i])
		if m == nil {
			continue
		}
		key, value := m[1], m[2]
		if value == "" && i+1 < len(tokens) && !optionKeyRe.MatchString(tokens[i+1]) {
			value = tokens[i+1]
			i++
		}
		opts = append(opts, api.CommandOption{Key: key, Value: value})
	}
	return opts
}

// splitTokens splits the option region into tokens, respecting single
// and double quotes so values can contain spaces.
func splitTokens(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingleQuote, inDoubleQuote bool

	for i := 0; i < len(input); i++ {
		char := rune(input[i])

		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote

		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote

		case char == '\\' && i+1 < len(input) && (inDoubleQuote || inSingleQuote):
			next := rune(input[i+1])
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(char)
			}

		case unicode.IsSpace(char) && !inSingleQuote && !inDoubleQuote:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}
