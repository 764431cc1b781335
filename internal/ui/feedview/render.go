// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedview provides the live message feed component for the TUI.
//
// This file renders the timeline content: entry headers, grouped
// continuation bodies, command badges, attachments, and reply quotes.
package feedview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/parleychat/parley-tui/internal/feed"
	"github.com/parleychat/parley-tui/internal/ui/styles"
)

// =============================================================================
// TIMELINE RENDERING
// =============================================================================

// renderFeed renders every loaded entry, oldest first. Consecutive
// same-sender entries within the group window render without a repeated
// header.
func (m *Model) renderFeed() string {
	entries := m.store.Entries()

	var b strings.Builder
	b.WriteString(m.renderTopIndicator())

	for i := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderEntry(entries, i))
	}
	return b.String()
}

// renderTopIndicator renders the line above the oldest entry: a
// spinner while a backfill is in flight, a hint while older history
// exists, nothing once exhausted.
func (m *Model) renderTopIndicator() string {
	width := m.contentWidth()
	switch {
	case m.anchor.State() == AnchorBackfill:
		line := m.spinner.View() + " loading older entries"
		return m.theme.LoadingOlder.Width(width).Render(line) + "\n"
	case m.store.HasMore():
		return m.theme.LoadingOlder.Width(width).Render("· scroll up for older entries ·") + "\n"
	default:
		return ""
	}
}

// renderEntry renders one timeline item, with or without a header line
// depending on grouping.
func (m *Model) renderEntry(entries []feed.Entry, i int) string {
	e := entries[i]
	grouped := feed.GroupedWithin(entries, i, m.groupWindow)

	var b strings.Builder
	if !grouped {
		b.WriteString(m.renderHeader(e))
		b.WriteString("\n")
	}

	if e.ReplyTo != "" {
		b.WriteString(m.renderReplyQuote(entries, e.ReplyTo))
	}

	b.WriteString(m.renderBody(e, grouped))

	if len(e.Attachments) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderAttachments(e))
	}
	return b.String()
}

// renderHeader renders the sender line: colored name, clock, edited
// marker.
func (m *Model) renderHeader(e feed.Entry) string {
	name := m.theme.SenderName.
		Foreground(styles.SenderColor(e.SenderID)).
		Render(e.SenderID)

	parts := []string{name, m.theme.Timestamp.Render(formatClock(e))}
	if e.Edited {
		parts = append(parts, m.theme.EditedMark.Render("(edited)"))
	}
	return strings.Join(parts, " ")
}

// renderBody renders the entry body. Command invocations get a badge
// instead of markdown; grouped continuations are indented under the
// group's header.
func (m *Model) renderBody(e feed.Entry, grouped bool) string {
	if e.Kind == feed.KindCommand {
		badge := m.theme.CommandBadge.Render("cmd")
		body := m.theme.CommandText.Render(e.Body)
		line := badge + " " + body
		if grouped {
			return m.theme.GroupedBody.Render(line)
		}
		return line
	}

	body := m.renderMarkdown(e.Body)
	if grouped {
		return m.theme.GroupedBody.Render(body)
	}
	return m.theme.EntryBody.Render(body)
}

// renderMarkdown renders a message body through glamour, falling back
// to the raw text when rendering fails.
func (m *Model) renderMarkdown(body string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	r := m.markdownRenderer()
	if r == nil {
		return body
	}
	out, err := r.Render(body)
	if err != nil {
		return body
	}
	return strings.Trim(out, "\n")
}

// markdownRenderer returns a glamour renderer sized to the current
// width, rebuilt after resizes.
func (m *Model) markdownRenderer() *glamour.TermRenderer {
	width := m.contentWidth()
	if m.mdRenderer != nil && m.mdWidth == width {
		return m.mdRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil
	}
	m.mdRenderer = r
	m.mdWidth = width
	return r
}

// renderAttachments renders one line per attached file.
func (m *Model) renderAttachments(e feed.Entry) string {
	lines := make([]string, 0, len(e.Attachments))
	for _, att := range e.Attachments {
		label := fmt.Sprintf("[%s] %s (%s)", att.Kind, att.URL, formatSize(att.Size))
		lines = append(lines, m.theme.AttachmentTag.Render(label))
	}
	return strings.Join(lines, "\n")
}

// renderReplyQuote renders the first line of the replied-to entry, if
// it is loaded. Replies to entries outside the loaded window quote
// nothing rather than fetching.
func (m *Model) renderReplyQuote(entries []feed.Entry, replyTo string) string {
	for i := range entries {
		if entries[i].ID != replyTo {
			continue
		}
		line := entries[i].Body
		if idx := strings.IndexByte(line, '\n'); idx >= 0 {
			line = line[:idx]
		}
		line = runewidth.Truncate(line, maxInt(m.contentWidth()-8, 8), "…")
		quoted := entries[i].SenderID + ": " + line
		return m.theme.ReplyQuote.Render(quoted) + "\n"
	}
	return ""
}

// =============================================================================
// COMPLETION POPUP RENDERING
// =============================================================================

const popupMaxRows = 8

// renderPopup renders the command/option popup above the input area.
func (m *Model) renderPopup() string {
	if !m.engine.Open() {
		return ""
	}
	candidates := m.engine.Candidates()
	cursor := m.engine.Cursor()

	// Window the list around the highlight.
	start := 0
	if cursor >= popupMaxRows {
		start = cursor - popupMaxRows + 1
	}
	end := minInt(start+popupMaxRows, len(candidates))

	valueWidth := 0
	for _, c := range candidates[start:end] {
		if w := runewidth.StringWidth(c.Value); w > valueWidth {
			valueWidth = w
		}
	}

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		c := candidates[i]
		value := runewidth.FillRight(c.Value, valueWidth)
		style := m.theme.CompletionItem
		if i == cursor {
			style = m.theme.CompletionSelected
		}
		rows = append(rows, style.Render(value)+"  "+m.theme.CompletionDesc.Render(c.Description))
	}

	return m.theme.CompletionPopup.Render(strings.Join(rows, "\n"))
}

// =============================================================================
// HELPERS
// =============================================================================

// contentWidth is the usable entry width inside the viewport.
func (m *Model) contentWidth() int {
	if m.width <= 2 {
		return 78
	}
	return m.width - 2
}

// formatClock renders the entry time as a wall clock. Entries whose
// timestamp could not be parsed sort first and show a placeholder.
func formatClock(e feed.Entry) string {
	if !e.TimestampValid {
		return "--:--"
	}
	return time.UnixMilli(e.CreatedTimestamp).Local().Format("15:04")
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
