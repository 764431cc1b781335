// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the Parley TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Purple - Primary accent, selections, assistant entries
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, commands, mentions
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states, connected indicator
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors, failed sends, disconnect states
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// RoseDeep - Darker rose for error backgrounds
var RoseDeep = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#881337"}

// Amber - Warnings, reconnecting indicator, pending states
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// Surface - Main background
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// SurfaceDim - Slightly darker/lighter surface for headers/footers
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// Overlay - Borders, separators, subtle backgrounds
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels, less prominent text
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, timestamps, very subtle text
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse - Text on colored backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// FEED ENTRY COLORS
// =============================================================================

// Sender name colors cycle per sender so adjacent speakers stay
// distinguishable without per-user configuration.
var SenderPalette = []lipgloss.AdaptiveColor{
	{Light: "#0891B2", Dark: "#22D3EE"}, // cyan
	{Light: "#7C3AED", Dark: "#A78BFA"}, // purple
	{Light: "#059669", Dark: "#34D399"}, // emerald
	{Light: "#D97706", Dark: "#FBBF24"}, // amber
	{Light: "#DB2777", Dark: "#F472B6"}, // pink
	{Light: "#2563EB", Dark: "#60A5FA"}, // blue
}

// Command invocation badge - Amber tones, distinct from plain messages
var CommandBadgeBg = lipgloss.AdaptiveColor{Light: "#FEF3C7", Dark: "#78350F"}
var CommandBadgeFg = lipgloss.AdaptiveColor{Light: "#92400E", Dark: "#FEF3C7"}

// Unread divider in the conversation list
var UnreadAccent = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}

// Selection highlight
var SelectionBg = lipgloss.AdaptiveColor{Light: "#BFDBFE", Dark: "#1E3A5F"}

// SenderColor returns a stable color for a sender identifier.
func SenderColor(senderID string) lipgloss.AdaptiveColor {
	if senderID == "" {
		return SenderPalette[0]
	}
	var sum uint32
	for _, r := range senderID {
		sum = sum*31 + uint32(r)
	}
	return SenderPalette[int(sum)%len(SenderPalette)]
}
