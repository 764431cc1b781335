// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedview provides the live message feed component for the TUI.
package feedview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full feed view: header, timeline viewport, optional
// thinking line and completion popup, input area, and status bar.
func (m Model) View() string {
	var sections []string

	sections = append(sections, m.renderViewHeader())

	switch m.state {
	case StateLoading:
		loading := m.spinner.View() + " loading conversation"
		sections = append(sections, lipgloss.Place(
			m.width, m.viewport.Height,
			lipgloss.Center, lipgloss.Center,
			m.theme.ThinkingText.Render(loading),
		))
	case StateFailed:
		body := m.theme.ErrorTitle.Render("could not load conversation") + "\n" +
			m.theme.ErrorMessage.Render(errText(m.lastError)) + "\n\n" +
			m.theme.ShortcutDesc.Render("press ") +
			m.theme.ShortcutKey.Render("Enter") +
			m.theme.ShortcutDesc.Render(" to retry")
		sections = append(sections, lipgloss.Place(
			m.width, m.viewport.Height,
			lipgloss.Center, lipgloss.Center,
			body,
		))
	default:
		sections = append(sections, m.viewport.View())
	}

	if m.thinking {
		sections = append(sections, m.spinner.View()+" "+m.theme.ThinkingText.Render("assistant is thinking"))
	}

	if popup := m.renderPopup(); popup != "" {
		sections = append(sections, popup)
	}

	sections = append(sections, m.theme.InputContainer.Width(m.width).Render(m.input.View()))
	sections = append(sections, m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderViewHeader renders the conversation title line.
func (m Model) renderViewHeader() string {
	title := m.title
	if title == "" {
		title = m.conversationID
	}
	return m.theme.Header.Width(m.width).Render(m.theme.HeaderTitle.Render(title))
}

// renderStatusBar renders the bottom line: the last error when one is
// pending, shortcut hints otherwise.
func (m Model) renderStatusBar() string {
	if m.lastError != nil && m.state == StateReady {
		return m.theme.StatusBar.Width(m.width).Render(
			m.theme.ErrorTitle.Render("error: ") + m.theme.ErrorMessage.Render(errText(m.lastError)),
		)
	}

	var hints []string
	for _, b := range m.keyMap.ShortHelp() {
		hints = append(hints,
			m.theme.ShortcutKey.Render(b.Help().Key)+" "+m.theme.ShortcutDesc.Render(b.Help().Desc))
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(hints, "  "))
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
