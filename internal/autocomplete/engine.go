// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package autocomplete implements the slash-command popup for the
// compose box.
package autocomplete

import (
	"sort"
	"strings"
)

// =============================================================================
// CANDIDATE TYPES
// =============================================================================

// Option is one declared key of a command.
type Option struct {
	Key         string
	Description string
}

// Command is one registered slash command with its option schema.
type Command struct {
	Name        string
	AppID       string
	Description string
	Options     []Option
}

// Candidate is one row in the popup.
type Candidate struct {
	Value       string // command name or option key
	Description string
	Score       int
}

// Picked identifies a committed command for the compose dispatcher.
type Picked struct {
	Name  string
	AppID string
}

// CommitResult carries the buffer rewrite produced by a commit.
type CommitResult struct {
	NewBuffer string
	CaretPos  int
	Picked    *Picked // set when a command (not an option) was committed
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine tracks autocomplete state for one compose box. Not safe for
// concurrent use; in practice every call happens on the UI loop.
type Engine struct {
	mode   Mode
	term   string
	rest   string
	cursor int

	// command-list candidates, ranked
	commands []Command
	// option-list candidates
	options []Option

	picked *Command
	known  map[string]Command

	// searchGen tags the newest requested term so late results for an
	// older term are dropped.
	searchGen uint64

	// dismissedKey remembers the buffer shape Escape closed the popup
	// on; the popup stays closed until the shape changes.
	dismissedKey string

	// UsageFn returns how often a command has been used locally.
	// Optional; set by the application to boost familiar commands.
	UsageFn func(name string) int
}

// NewEngine creates an empty autocomplete engine.
func NewEngine() *Engine {
	return &Engine{known: make(map[string]Command)}
}

// Mode returns the current popup mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Term returns the current command search term.
func (e *Engine) Term() string {
	return e.term
}

// Cursor returns the highlighted candidate index.
func (e *Engine) Cursor() int {
	return e.cursor
}

// PickedCommand returns the committed command, or nil.
func (e *Engine) PickedCommand() *Picked {
	if e.picked == nil {
		return nil
	}
	return &Picked{Name: e.picked.Name, AppID: e.picked.AppID}
}

// Open reports whether the popup should render.
func (e *Engine) Open() bool {
	if e.mode == ModeNone || e.dismissedKey == e.stateKey() {
		return false
	}
	return len(e.Candidates()) > 0
}

// Candidates returns the rows to render, highlighted row at Cursor.
func (e *Engine) Candidates() []Candidate {
	switch e.mode {
	case ModeCommandList:
		out := make([]Candidate, len(e.commands))
		for i, cmd := range e.commands {
			out[i] = Candidate{Value: cmd.Name, Description: cmd.Description, Score: e.score(cmd.Name)}
		}
		return out
	case ModeOptionList:
		out := make([]Candidate, len(e.options))
		for i, opt := range e.options {
			out[i] = Candidate{Value: opt.Key, Description: opt.Description}
		}
		return out
	default:
		return nil
	}
}

// =============================================================================
// INPUT TRACKING
// =============================================================================

// SearchRequest asks the caller to run a debounced command search and
// hand the results back via ApplySearchResults with the same Gen.
type SearchRequest struct {
	Term string
	Gen  uint64
}

// OnInput recomputes the popup state from the new buffer. Returns a
// SearchRequest when the command list needs (re)fetching, nil
// otherwise.
func (e *Engine) OnInput(buffer string) *SearchRequest {
	// A picked command only survives while the buffer still starts
	// with its invocation.
	if e.picked != nil && !strings.HasPrefix(buffer, "/"+e.picked.Name) {
		e.picked = nil
	}

	p := ParseBuffer(buffer)
	if e.dismissedKey != "" && e.dismissedKey != stateKeyFor(p) {
		e.dismissedKey = ""
	}

	switch p.Mode {
	case ModeCommandList:
		prevTerm := e.term
		prevMode := e.mode
		e.mode = ModeCommandList
		e.term = p.Term
		e.rest = ""
		e.options = nil
		if prevMode == ModeCommandList && prevTerm == p.Term {
			return nil
		}
		e.searchGen++
		return &SearchRequest{Term: p.Term, Gen: e.searchGen}

	case ModeOptionList:
		cmd, ok := e.lookup(p.CommandName)
		if !ok {
			e.reset()
			return nil
		}
		opts := unusedOptions(cmd, p.UsedKeys)
		if e.mode != ModeOptionList || !sameOptions(e.options, opts) {
			e.cursor = 0
		}
		e.mode = ModeOptionList
		e.term = ""
		e.rest = p.Rest
		e.options = opts
		e.commands = nil
		return nil

	default:
		e.reset()
		return nil
	}
}

// ApplySearchResults installs ranked command candidates. Results
// tagged with an older generation are stale and dropped.
func (e *Engine) ApplySearchResults(gen uint64, cmds []Command) {
	if gen != e.searchGen || e.mode != ModeCommandList {
		return
	}
	for _, cmd := range cmds {
		e.known[cmd.Name] = cmd
	}
	e.commands = e.rank(cmds)
	e.cursor = 0
}

// =============================================================================
// NAVIGATION
// =============================================================================

// MoveDown moves the highlight down one row, clamped to the list end.
func (e *Engine) MoveDown() {
	if n := len(e.Candidates()); e.cursor < n-1 {
		e.cursor++
	}
}

// MoveUp moves the highlight up one row, clamped to the list start.
func (e *Engine) MoveUp() {
	if e.cursor > 0 {
		e.cursor--
	}
}

// Cancel closes the popup without committing. It stays closed until
// the buffer shape changes.
func (e *Engine) Cancel() {
	if e.mode == ModeNone {
		return
	}
	e.dismissedKey = e.stateKey()
}

// =============================================================================
// COMMIT
// =============================================================================

// Commit applies the highlighted candidate to the buffer. Returns
// false when the popup is closed or empty.
func (e *Engine) Commit(buffer string) (*CommitResult, bool) {
	if !e.Open() {
		return nil, false
	}

	switch e.mode {
	case ModeCommandList:
		if e.cursor >= len(e.commands) {
			return nil, false
		}
		cmd := e.commands[e.cursor]
		e.picked = &cmd
		e.known[cmd.Name] = cmd
		newBuffer := "/" + cmd.Name + " "
		return &CommitResult{
			NewBuffer: newBuffer,
			CaretPos:  len(newBuffer),
			Picked:    &Picked{Name: cmd.Name, AppID: cmd.AppID},
		}, true

	case ModeOptionList:
		if e.cursor >= len(e.options) {
			return nil, false
		}
		opt := e.options[e.cursor]
		newBuffer := ReplaceTailWord(buffer, opt.Key+": ")
		return &CommitResult{
			NewBuffer: newBuffer,
			CaretPos:  len(newBuffer),
		}, true
	}
	return nil, false
}

// =============================================================================
// INTERNALS
// =============================================================================

func (e *Engine) reset() {
	e.mode = ModeNone
	e.term = ""
	e.rest = ""
	e.commands = nil
	e.options = nil
	e.cursor = 0
}

// lookup resolves a typed name against the picked command first, then
// every command seen in search results this session.
func (e *Engine) lookup(name string) (Command, bool) {
	if e.picked != nil && e.picked.Name == name {
		return *e.picked, true
	}
	cmd, ok := e.known[name]
	return cmd, ok
}

// rank orders command candidates by match score (descending), then
// alphabetically.
func (e *Engine) rank(cmds []Command) []Command {
	ranked := make([]Command, len(cmds))
	copy(ranked, cmds)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := e.score(ranked[i].Name), e.score(ranked[j].Name)
		if si != sj {
			return si > sj
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

// score calculates a match score for ranking. Higher score = better
// match; locally familiar commands get a usage boost.
func (e *Engine) score(name string) int {
	value := strings.ToLower(name)
	partial := strings.ToLower(e.term)

	score := 100
	if value == partial {
		return score + 100 + e.usageBoost(name)
	}
	if strings.HasPrefix(value, partial) {
		score += 50
		score += 20 - len(value)
	}
	score -= len(value) / 2
	return score + e.usageBoost(name)
}

// usageBoost converts local use counts into a capped score bump so a
// heavily used command cannot outrank an exact match.
func (e *Engine) usageBoost(name string) int {
	if e.UsageFn == nil {
		return 0
	}
	boost := e.UsageFn(name)
	if boost > 25 {
		boost = 25
	}
	if boost < 0 {
		boost = 0
	}
	return boost
}

func (e *Engine) stateKey() string {
	return e.mode.String() + "\x00" + e.term + "\x00" + e.rest
}

func stateKeyFor(p Parse) string {
	return p.Mode.String() + "\x00" + p.Term + "\x00" + p.Rest
}

// unusedOptions filters a command's declared options down to the keys
// not already typed.
func unusedOptions(cmd Command, usedKeys []string) []Option {
	used := make(map[string]bool, len(usedKeys))
	for _, k := range usedKeys {
		used[k] = true
	}
	var out []Option
	for _, opt := range cmd.Options {
		if !used[opt.Key] {
			out = append(out, opt)
		}
	}
	return out
}

func sameOptions(a, b []Option) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key {
			return false
		}
	}
	return true
}
