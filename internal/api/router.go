// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package api provides HTTP routing using the Chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geochat-dev/geochat/internal/config"
)

// Router wires handlers and middleware into an http.Handler.
type Router struct {
	handler *Handler
	cfg     *config.Config
}

// NewRouter creates a Router around the given handler.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.corsOrigins(),
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health gets a permissive limit so monitoring can poll freely.
	r.With(httprate.LimitByIP(1000, time.Minute)).
		Get("/api/v1/health", router.handler.Health)

	// Data endpoints share the configured per-IP limit.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(router.rateLimit()))

		r.Get("/timeline", router.handler.Timeline)
		r.Get("/chatrooms", router.handler.Chatrooms)
		r.Get("/geohash/{hash}", router.handler.GeohashInfo)
		r.Get("/ws", router.handler.WebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (router *Router) corsOrigins() []string {
	if router.cfg == nil || len(router.cfg.Server.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return router.cfg.Server.CORSOrigins
}

func (router *Router) rateLimit() (int, time.Duration) {
	if router.cfg == nil {
		return 100, time.Minute
	}
	return router.cfg.Server.RateLimit, router.cfg.Server.RateLimitWindow
}
