// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package websocket pushes live timeline and chatroom updates to
// connected consumers. The Hub owns the client set and broadcast
// ordering; the Bridge feeds it from store admissions.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/geochat-dev/geochat/internal/logging"
	"github.com/geochat-dev/geochat/internal/metrics"
	"github.com/geochat-dev/geochat/internal/models"
)

// Message types pushed to WebSocket consumers.
const (
	// MessageTypeEvent carries a single newly admitted event.
	MessageTypeEvent = "event"
	// MessageTypeChatrooms carries the full recomputed chatroom list.
	MessageTypeChatrooms = "chatrooms"
	// MessageTypeStats carries timeline statistics.
	MessageTypeStats = "stats"
	// MessageTypePing and MessageTypePong implement application-level
	// keepalive on top of the protocol ping.
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Message is a WebSocket frame payload.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// StatsData accompanies MessageTypeStats broadcasts.
type StatsData struct {
	TimelineLength int `json:"timeline_length"`
	ChatroomCount  int `json:"chatroom_count"`
}

// Hub maintains the set of active clients and broadcasts messages to
// them. Clients register and unregister through channels; a client whose
// send buffer fills is dropped rather than allowed to stall the rest.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub loop until the context is canceled, then
// closes all clients and returns ctx.Err(). Designed for suture
// supervision.
//
// Selection is priority-ordered: shutdown first, then client lifecycle,
// then broadcasts. Go's select picks randomly among ready channels, so
// the non-blocking pre-checks keep client state consistent before any
// message is processed.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// broadcastToClients sends a message to all connected clients in client
// id order. Sorting keeps delivery order reproducible across runs;
// clients with full buffers are removed.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.WithLabelValues(message.Type).Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSMessagesDropped.Inc()
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
		logging.Warn().Int("removed", len(toRemove)).Msg("dropped slow websocket clients")
	}
}

// shutdown closes all clients in id order and logs the reason.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		AnErr("reason", ctx.Err()).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// BroadcastEvent pushes a newly admitted event to all clients.
func (h *Hub) BroadcastEvent(ev *models.Event) {
	h.enqueue(Message{Type: MessageTypeEvent, Data: ev})
}

// BroadcastChatrooms pushes the recomputed chatroom list to all clients.
func (h *Hub) BroadcastChatrooms(rooms []models.Chatroom) {
	h.enqueue(Message{Type: MessageTypeChatrooms, Data: rooms})
}

// BroadcastStats pushes timeline statistics to all clients.
func (h *Hub) BroadcastStats(timelineLen, chatroomCount int) {
	h.enqueue(Message{
		Type: MessageTypeStats,
		Data: StatsData{TimelineLength: timelineLen, ChatroomCount: chatroomCount},
	})
}

func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("message_type", message.Type).Msg("broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
