// parley TUI - A terminal client for the Parley chat service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleychat/parley-tui/internal/api"
	"github.com/parleychat/parley-tui/internal/autocomplete"
	"github.com/parleychat/parley-tui/internal/compose"
	"github.com/parleychat/parley-tui/internal/config"
	"github.com/parleychat/parley-tui/internal/feed"
	"github.com/parleychat/parley-tui/internal/gateway"
	"github.com/parleychat/parley-tui/internal/history"
	"github.com/parleychat/parley-tui/internal/ui/convlist"
	"github.com/parleychat/parley-tui/internal/ui/feedview"
	"github.com/parleychat/parley-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for messages pushed from outside the
// Bubble Tea loop (gateway callbacks, config reloads).
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	conversation := flag.String("conversation", "", "open this conversation directly")
	flag.Parse()

	if *showVersion {
		fmt.Printf("parley %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	runTUI(cfg, *conversation)
}

// runTUI wires the clients together and starts the program.
func runTUI(cfg *config.Config, startConversation string) {
	theme := styles.NewTheme(cfg.UI.Theme)

	apiClient := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL: cfg.Service.BaseURL,
		Token:   cfg.Service.Token,
		Timeout: cfg.Service.Timeout(),
	})

	gw := gateway.NewClient(&gateway.ClientConfig{
		URL:   cfg.Service.GatewayURL,
		Token: cfg.Service.Token,
	})
	gw.SetOrderChangedFunc(func(ids []string) {
		sendToProgram(convlist.OrderChangedMsg{ConversationIDs: ids})
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gw.Start(ctx)
	defer gw.Close()

	// Local history is an affordance, not a requirement; run without it
	// when the database cannot be opened.
	hist, err := history.Open(history.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: local history unavailable: %v\n", err)
		hist = nil
	}
	defer hist.Close()

	m := newRootModel(theme, cfg, apiClient, gw, hist, startConversation)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// Hot reload: pushed into the loop like any other message; invalid
	// files never reach the callback.
	if path, err := config.ConfigPath(); err == nil {
		if watcher, err := config.Watch(path, 0, func(next *config.Config) {
			sendToProgram(configReloadedMsg{cfg: next})
		}); err == nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running parley: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// State represents the current application state.
type State int

const (
	StateList State = iota // Conversation list
	StateFeed              // Live feed for one conversation
)

// configReloadedMsg carries a validated config from the file watcher.
type configReloadedMsg struct {
	cfg *config.Config
}

// rootModel is the main Bubble Tea model for the application.
type rootModel struct {
	state State

	theme *styles.Theme
	cfg   *config.Config

	width  int
	height int

	apiClient *api.Client
	gw        *gateway.Client
	hist      *history.Store

	list convlist.Model

	feed    feedview.Model
	feedSub *gateway.Subscription
	hasFeed bool

	// startConversation opens a feed immediately, skipping the list.
	startConversation string
}

func newRootModel(theme *styles.Theme, cfg *config.Config, apiClient *api.Client, gw *gateway.Client, hist *history.Store, startConversation string) *rootModel {
	return &rootModel{
		state:             StateList,
		theme:             theme,
		cfg:               cfg,
		apiClient:         apiClient,
		gw:                gw,
		hist:              hist,
		list:              convlist.New(theme, apiClient, hist),
		startConversation: startConversation,
	}
}

// Init loads the conversation list, and the requested feed when one
// was named on the command line.
func (m *rootModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.list.Init()}
	if m.startConversation != "" {
		if cmd := m.openConversation(m.startConversation, ""); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// openConversation builds a feed view for one conversation and
// switches to it.
func (m *rootModel) openConversation(id, title string) tea.Cmd {
	m.closeFeed()

	sub, err := m.gw.Subscribe(id)
	if err != nil {
		// Gateway shut down; the feed still works, just without pushes.
		sub = nil
	}
	m.feedSub = sub

	store := feed.NewStore(m.apiClient, feed.Config{
		InitialBatch:   m.cfg.Feed.InitialBatch,
		WidenedBatch:   m.cfg.Feed.WidenedBatch,
		BackfillBatch:  m.cfg.Feed.BackfillBatch,
		ExhaustedBelow: m.cfg.Feed.ExhaustedBelow,
	})

	searcher := autocomplete.NewRateLimitedSearcher(
		feedview.NewSearcher(m.apiClient, m.cfg.Autocomplete.SearchLimit),
		m.cfg.Autocomplete.SearchRatePerSec,
		m.cfg.Autocomplete.SearchBurst,
	)

	dispatcher := compose.NewDispatcher(m.apiClient, compose.Config{
		AssistantHandle:   m.cfg.Assistant.Handle,
		AssistantSenderID: m.cfg.Assistant.SenderID,
	})

	m.feed = feedview.New(feedview.Config{
		ConversationID:    id,
		Title:             title,
		Theme:             m.theme,
		Store:             store,
		Dispatcher:        dispatcher,
		Searcher:          searcher,
		History:           m.hist,
		Sub:               sub,
		GroupWindowMillis: m.cfg.Feed.GroupWindowMillis,
		TopThresholdRows:  m.cfg.Feed.TopThresholdRows,
		Debounce:          m.cfg.Autocomplete.Debounce(),
	})
	m.hasFeed = true
	m.state = StateFeed

	if m.width > 0 {
		m.feed.SetSize(m.width, m.height)
	}
	return m.feed.Init()
}

// closeFeed tears down the current feed subscription, if any.
func (m *rootModel) closeFeed() {
	if m.feedSub != nil {
		m.feedSub.Close()
		m.feedSub = nil
	}
	m.hasFeed = false
}

// Update handles messages and updates the model.
func (m *rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.list.SetSize(msg.Width/4, msg.Height-1)
		if m.hasFeed {
			m.feed.SetSize(msg.Width, msg.Height)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case configReloadedMsg:
		m.cfg = msg.cfg
		m.theme = styles.NewTheme(msg.cfg.UI.Theme)
		m.theme.SetSize(m.width, m.height)
		return m, nil

	case convlist.SelectedMsg:
		return m, m.openConversation(msg.Conversation.ID, msg.Conversation.Title)

	case convlist.LoadedMsg, convlist.OrderChangedMsg:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	if m.state == StateFeed && m.hasFeed {
		var cmd tea.Cmd
		m.feed, cmd = m.feed.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKeyPress routes keys by application state.
func (m *rootModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.closeFeed()
		return m, tea.Quit
	}

	switch m.state {
	case StateList:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case StateFeed:
		// Escape backs out to the list unless the completion popup is
		// open; the feed consumes it for dismissal in that case.
		if msg.String() == "esc" && !m.feedPopupOpen() {
			m.closeFeed()
			m.state = StateList
			return m, m.list.Init()
		}
		var cmd tea.Cmd
		m.feed, cmd = m.feed.Update(msg)
		return m, cmd
	}
	return m, nil
}

// feedPopupOpen reports whether the feed's completion popup would
// consume an Escape press.
func (m *rootModel) feedPopupOpen() bool {
	return m.hasFeed && m.feed.PopupOpen()
}

// View renders the current state.
func (m *rootModel) View() string {
	switch m.state {
	case StateFeed:
		if m.hasFeed {
			return m.feed.View()
		}
		return ""
	default:
		header := m.theme.Header.Width(m.width).Render(
			m.theme.HeaderTitle.Render("parley") + " " +
				m.theme.HeaderTopic.Render(Version))
		return header + "\n" + m.list.View()
	}
}
