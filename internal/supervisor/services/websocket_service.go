// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package services

import (
	"context"
)

// ContextHub matches *websocket.Hub's RunWithContext method, keeping
// this package free of a websocket dependency.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketHubService wraps the websocket hub as a supervised service.
// RunWithContext already follows the suture.Service pattern, so the
// wrapper only adds a stable name for logging.
type WebSocketHubService struct {
	hub  ContextHub
	name string
}

// NewWebSocketHubService creates a hub service wrapper.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{
		hub:  hub,
		name: "websocket-hub",
	}
}

// Serve implements suture.Service by delegating to the hub loop. It
// returns ctx.Err() on normal shutdown.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	return w.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervisor logging.
func (w *WebSocketHubService) String() string {
	return w.name
}
