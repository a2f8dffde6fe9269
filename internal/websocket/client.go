// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/geochat-dev/geochat/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // consumers only send small control frames
)

// clientIDCounter generates unique, monotonically increasing client ids
// so broadcasts can iterate clients in a stable order.
var clientIDCounter atomic.Uint64

// Client is the middleman between a websocket connection and the hub.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient creates a Client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, 256),
	}
}

// Start begins the read and write pumps. The client unregisters itself
// when either pump exits.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump pumps control messages from the connection to the hub.
// Consumers are read-mostly; the only inbound message handled is the
// application-level ping.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}

		if msg.Type == MessageTypePing {
			select {
			case c.send <- Message{Type: MessageTypePong}:
			default:
			}
		}
	}
}

// writePump pumps messages from the hub to the websocket connection and
// keeps the connection alive with protocol pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
