// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package feedview provides the live message feed component for the TUI.

The feed view owns one conversation: its scrollback, its compose box,
the slash-command completion popup, and the assistant thinking
indicator. It is a standard Bubble Tea model driven by the root
program.

# Architecture

The view composes several collaborators and keeps no protocol logic of
its own:

  - feed.Store - ordered timeline, pagination cursors, push mutations
  - gateway.Subscription - pushed entry events for this conversation
  - autocomplete.Engine - popup state machine for / commands
  - compose.Dispatcher - routes submissions to send or dispatch
  - history.Store - local read markers and command usage counts

# Scroll Anchoring

Scrolling near the top of the loaded window triggers a backfill of
older entries. Because the fetched page is prepended, the viewport
offset is re-derived after the page lands so the entries the user was
looking at do not move (scroll.go). The Anchor state machine also
suppresses duplicate triggers while a fetch is in flight.

# Popup Key Interception

While the completion popup is open, Up/Down move the highlight,
Enter/Tab commit the highlighted candidate, and Escape dismisses the
popup. None of these reach the viewport or submit the compose buffer;
a Submit therefore never doubles as a commit.

# Failure Handling

Service failures are transient by design: a failed send keeps the
compose buffer, a failed backfill re-arms the trigger, and a failed
initial load offers a retry. Nothing is cached to disk except the
read markers and usage counters in the history store.
*/
package feedview
