// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package main is the entry point for the Geochat server.
//
// Geochat aggregates ephemeral Nostr events into geohash-addressed
// chatrooms and serves them over an HTTP API and websocket feed.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load via Koanf v2 (defaults, YAML, env)
//  2. Event store: in-memory deduplicating store with arrival-order timeline
//  3. WebSocket hub: real-time updates to connected clients
//  4. Relay ingestors: one supervised connection per configured relay
//  5. HTTP server: REST API, websocket upgrade, Prometheus metrics
//
// All long-running components run under a suture supervision tree, so a
// flapping relay connection restarts with backoff without taking down
// the HTTP surface.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - GEOCHAT_* environment variables
//   - Config file (config.yaml, or GEOCHAT_CONFIG)
//   - Built-in defaults
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the
// supervision tree is canceled, the HTTP server drains connections, and
// websocket clients are closed in order.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/geochat-dev/geochat/internal/api"
	"github.com/geochat-dev/geochat/internal/config"
	"github.com/geochat-dev/geochat/internal/logging"
	"github.com/geochat-dev/geochat/internal/relay"
	"github.com/geochat-dev/geochat/internal/store"
	"github.com/geochat-dev/geochat/internal/supervisor"
	"github.com/geochat-dev/geochat/internal/supervisor/services"
	ws "github.com/geochat-dev/geochat/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Int("relays", len(cfg.Relays.URLs)).
		Int("event_kind", cfg.Relays.EventKind).
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Msg("starting geochat")

	eventStore := store.New()
	defer func() {
		if err := eventStore.Close(); err != nil {
			logging.Error().Err(err).Msg("failed to close event store")
		}
	}()

	hub := ws.NewHub()

	handler := api.NewHandler(eventStore, hub, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Supervisor events log through the zerolog-backed slog adapter.
	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	for _, url := range cfg.Relays.URLs {
		tree.AddIngestService(relay.NewService(url, cfg.Relays.EventKind, eventStore))
	}
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(ws.NewBridge(hub, eventStore))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor tree stopped with error")
		os.Exit(1)
	}

	logging.Info().Msg("geochat stopped")
}
