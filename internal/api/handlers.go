// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/geochat-dev/geochat/internal/chatroom"
	"github.com/geochat-dev/geochat/internal/config"
	"github.com/geochat-dev/geochat/internal/geohash"
	"github.com/geochat-dev/geochat/internal/logging"
	"github.com/geochat-dev/geochat/internal/metrics"
	"github.com/geochat-dev/geochat/internal/models"
	"github.com/geochat-dev/geochat/internal/store"
	"github.com/geochat-dev/geochat/internal/view"
	ws "github.com/geochat-dev/geochat/internal/websocket"
)

// Handler holds the dependencies for all HTTP endpoints.
type Handler struct {
	store     *store.Store
	hub       *ws.Hub
	cfg       *config.Config
	startTime time.Time
}

// NewHandler creates a Handler. cfg may be nil in tests; origin checks
// then fail open.
func NewHandler(st *store.Store, hub *ws.Hub, cfg *config.Config) *Handler {
	return &Handler{
		store:     st,
		hub:       hub,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// timelineResponse is the payload of GET /api/v1/timeline.
type timelineResponse struct {
	Count   int             `json:"count"`
	Geohash string          `json:"geohash,omitempty"`
	Events  []*models.Event `json:"events"`
}

// Timeline returns the event timeline in arrival order.
//
// Query parameters:
//   - geohash: restrict to events tagged with this chatroom
//   - order:   "arrival" (default) or "newest" (reversed arrival order)
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	selection := r.URL.Query().Get("geohash")
	if selection != "" && !geohash.Valid(selection) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"geohash contains characters outside the base-32 alphabet",
			map[string]interface{}{"geohash": selection})
		return
	}

	order := r.URL.Query().Get("order")
	if order == "" {
		order = "arrival"
	}
	if order != "arrival" && order != "newest" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"order must be arrival or newest",
			map[string]interface{}{"order": order})
		return
	}

	timeline := view.Filter(h.store.Timeline(), selection)
	if order == "newest" {
		timeline = view.Reversed(timeline)
	}

	respondSuccess(w, http.StatusOK, timelineResponse{
		Count:   len(timeline),
		Geohash: selection,
		Events:  timeline,
	})
}

// chatroomsResponse is the payload of GET /api/v1/chatrooms.
type chatroomsResponse struct {
	Count     int               `json:"count"`
	Chatrooms []models.Chatroom `json:"chatrooms"`
}

// Chatrooms returns the discovered chatrooms sorted by message count.
func (h *Handler) Chatrooms(w http.ResponseWriter, _ *http.Request) {
	rooms := chatroom.Aggregate(h.store.Timeline())
	respondSuccess(w, http.StatusOK, chatroomsResponse{
		Count:     len(rooms),
		Chatrooms: rooms,
	})
}

// geohashResponse is the payload of GET /api/v1/geohash/{hash}.
type geohashResponse struct {
	Geohash   string  `json:"geohash"`
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	MinLat    float64 `json:"min_lat"`
	MaxLat    float64 `json:"max_lat"`
	MinLng    float64 `json:"min_lng"`
	MaxLng    float64 `json:"max_lng"`
}

// GeohashInfo decodes a geohash string to its cell bounds and center.
func (h *Handler) GeohashInfo(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	box, err := geohash.DecodeBox(hash)
	if err != nil {
		metrics.RecordDecodeFailure()
		details := map[string]interface{}{"geohash": sanitizeLogValue(hash)}
		var charErr *geohash.InvalidCharError
		if errors.As(err, &charErr) {
			details["position"] = charErr.Position
		}
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), details)
		return
	}

	center := box.Center()
	respondSuccess(w, http.StatusOK, geohashResponse{
		Geohash:   hash,
		Label:     models.ChatroomLabel(hash),
		Latitude:  center.Lat,
		Longitude: center.Lng,
		MinLat:    box.MinLat,
		MaxLat:    box.MaxLat,
		MinLng:    box.MinLng,
		MaxLng:    box.MaxLng,
	})
}

// healthResponse is the payload of GET /api/v1/health.
type healthResponse struct {
	Status        string `json:"status"`
	Events        int    `json:"events"`
	Chatrooms     int    `json:"chatrooms"`
	Clients       int    `json:"clients"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Health reports liveness and basic counters.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Events:        h.store.Len(),
		Chatrooms:     len(chatroom.Aggregate(h.store.Timeline())),
		Clients:       h.hub.ClientCount(),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	})
}

// WebSocket upgrades the connection and registers the client with the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}

// checkWebSocketOrigin validates connection origins against the CORS
// allow list. Browser websockets always carry an Origin header; clients
// without one (curl, native apps) are allowed through.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	// Fail open without config, for tests and development.
	if h.cfg == nil {
		return true
	}

	for _, allowed := range h.cfg.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}
