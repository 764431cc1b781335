// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway maintains the websocket connection to the Parley
// push gateway.
//
// A Client owns one long-lived connection. Callers open a Subscription
// per conversation; pushed entry events for that conversation arrive on
// the subscription's channel until it is closed. The client reconnects
// on its own with bounded backoff and re-issues the subscribe frames
// for every live subscription, so a dropped connection costs at most a
// gap in events, never a dead feed.
//
// Conversation-list reorder events are not tied to any one
// subscription; they are delivered through the OrderChangedFunc
// callback instead.
package gateway
