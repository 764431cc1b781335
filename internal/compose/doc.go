// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package compose routes a submitted compose buffer to the right
// service call.
//
// A submission with a live command pick becomes a command dispatch;
// anything else is a plain message send, optionally followed by an
// assistant follow-up when the message addresses the assistant. The
// dispatcher itself holds no UI state - the view owns the buffer,
// reply target, and attachments, and clears them when a submission
// succeeds.
package compose
