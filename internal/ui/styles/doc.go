// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the Parley TUI.

This package defines the complete color palette and themed Lip Gloss
styles used throughout the application. All colors use AdaptiveColor
for automatic light/dark terminal detection.

# Color System (colors.go)

## Primary Accent Colors

  - Purple - Primary accent for selections and assistant entries
  - Cyan - Brand color for commands and mentions
  - Emerald - Success states and the connected indicator
  - Amber - Warnings, command badges, reconnecting indicator
  - Rose - Errors and failed sends

## Surface Colors

Layered surface system for depth:

	Surface    - Main background
	SurfaceDim - Subtle backgrounds (headers, status bars)
	Overlay    - Borders and separators

## Text Colors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - Timestamps and de-emphasized text
	TextInverse   - Text on colored backgrounds

Sender names cycle through SenderPalette, keyed on the sender ID, so
adjacent speakers in a feed stay visually distinct.

# Theme System (theme.go)

The Theme struct provides runtime color adaptation:

	theme := styles.NewTheme("auto")
	if theme.IsDark {
		// Dark terminal detected
	}

The preference argument ("dark", "light", "auto") comes from the user
configuration and overrides terminal background detection when set.

# Usage Example

	import "github.com/parleychat/parley-tui/internal/ui/styles"

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.Header.Render(title)
	name := theme.SenderName.Foreground(styles.SenderColor(id)).Render(sender)
*/
package styles
