// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Parley chat service.
//
// The client covers every request/response collaborator the feed view
// consumes: history pagination, message send/edit/delete, application
// command dispatch and search, and the assistant follow-up call. Push
// events arrive separately over the gateway (see internal/gateway).
//
// Errors are typed. Transport failures, timeouts, and auth failures all
// surface as *ClientError values checked with errors.Is against the
// sentinels; callers treat every kind as transient - state is left
// unchanged and the user re-triggers the action.
package api
