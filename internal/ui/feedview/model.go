// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedview provides the live message feed component for the TUI.
package feedview

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/parleychat/parley-tui/internal/autocomplete"
	"github.com/parleychat/parley-tui/internal/compose"
	"github.com/parleychat/parley-tui/internal/feed"
	"github.com/parleychat/parley-tui/internal/gateway"
	"github.com/parleychat/parley-tui/internal/history"
	"github.com/parleychat/parley-tui/internal/ui/styles"
)

// =============================================================================
// FEED STATE
// =============================================================================

// State represents the current state of the feed view.
type State int

const (
	StateLoading State = iota // First page in flight
	StateReady                // Feed live
	StateFailed               // First page failed; retry on Enter
)

// =============================================================================
// FEED MODEL
// =============================================================================

// Config wires the feed view to its collaborators.
type Config struct {
	ConversationID string
	Title          string

	Theme      *styles.Theme
	Store      *feed.Store
	Dispatcher *compose.Dispatcher
	Searcher   autocomplete.Searcher
	History    *history.Store
	Sub        *gateway.Subscription

	// GroupWindowMillis merges consecutive same-sender entries closer
	// together than this into one visual group. Zero means 60s.
	GroupWindowMillis int64

	// TopThresholdRows is the near-top band that triggers backfill.
	TopThresholdRows int

	// Debounce is the keystroke-to-search delay for the popup.
	Debounce time.Duration

	// ReplyTo / ReplyToSenderID preload a reply target for the compose
	// box, if the view was opened from a reply action.
	ReplyTo         string
	ReplyToSenderID string
}

// Model is the Bubble Tea model for the feed view.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Conversation
	conversationID string
	title          string

	// Timeline
	store       *feed.Store
	groupWindow int64

	// Scroll anchoring
	anchor        *Anchor
	contentHeight int

	// Autocomplete
	engine        *autocomplete.Engine
	searcher      autocomplete.Searcher
	debounce      time.Duration
	pendingSearch *autocomplete.SearchRequest

	// Compose
	dispatcher      *compose.Dispatcher
	sending         bool
	replyTo         string
	replyToSenderID string

	// Assistant thinking indicator
	thinking      bool
	thinkingStart time.Time

	// Local state
	history *history.Store

	// Push events
	sub *gateway.Subscription

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Key bindings
	keyMap KeyMap

	// Markdown rendering, rebuilt on resize
	mdRenderer *glamour.TermRenderer
	mdWidth    int

	// Error surface
	lastError error
}

// New creates a feed view for one conversation.
func New(cfg Config) Model {
	theme := cfg.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}

	groupWindow := cfg.GroupWindowMillis
	if groupWindow <= 0 {
		groupWindow = feed.DefaultGroupWindow
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = autocomplete.DefaultDebounce
	}

	input := textinput.New()
	input.Placeholder = "Message, or / for commands"
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.TextStyle = theme.InputText
	input.PlaceholderStyle = theme.InputPlaceholder
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	engine := autocomplete.NewEngine()
	if cfg.History != nil {
		engine.UsageFn = cfg.History.CommandUses
	}

	return Model{
		state:           StateLoading,
		theme:           theme,
		conversationID:  cfg.ConversationID,
		title:           cfg.Title,
		store:           cfg.Store,
		groupWindow:     groupWindow,
		anchor:          NewAnchor(cfg.TopThresholdRows),
		engine:          engine,
		searcher:        cfg.Searcher,
		debounce:        debounce,
		dispatcher:      cfg.Dispatcher,
		replyTo:         cfg.ReplyTo,
		replyToSenderID: cfg.ReplyToSenderID,
		history:         cfg.History,
		sub:             cfg.Sub,
		viewport:        viewport.New(0, 0),
		input:           input,
		spinner:         sp,
		keyMap:          DefaultKeyMap(),
	}
}

// Init starts the first history fetch and the push-event pump.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.loadInitialCmd()}
	if m.sub != nil {
		cmds = append(cmds, waitForEventCmd(m.sub))
	}
	return tea.Batch(cmds...)
}

// ConversationID returns the conversation this view renders.
func (m Model) ConversationID() string {
	return m.conversationID
}

// State returns the view state.
func (m Model) State() State {
	return m.state
}

// Thinking reports whether the assistant indicator is showing.
func (m Model) Thinking() bool {
	return m.thinking
}

// PopupOpen reports whether the completion popup is showing; the root
// program uses this to decide who owns the Escape key.
func (m Model) PopupOpen() bool {
	return m.engine.Open()
}

// SetSize resizes the view. Layout reserves rows for the header, the
// input area, and the status bar.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	chrome := 4 // header + input border + input + status bar
	vpHeight := height - chrome
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 4

	if m.state == StateReady {
		m.refreshContent(m.viewport.AtBottom())
	}
}
