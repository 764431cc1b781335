// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package autocomplete implements the slash-command popup for the
// compose box.
//
// The engine recognizes a two-level grammar in the live input buffer:
// "/partial" opens the command list, "/name rest..." opens the option
// list for a known command. Mode is recomputed synchronously on every
// keystroke; only the command search itself goes to the service, and
// that is debounced and generation-tagged so stale results never
// clobber a newer term.
//
// The engine is UI-toolkit agnostic. The compose view feeds it buffer
// changes and key presses and applies the buffer rewrites it returns.
package autocomplete
