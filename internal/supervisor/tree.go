// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package supervisor builds the suture supervision tree for Geochat.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	FailureDecay float64

	// FailureBackoff is the duration to wait when the threshold is exceeded.
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's documented defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// SupervisorTree manages the hierarchical supervisor structure.
//
// The tree has three layers:
//   - ingest: one relay connection service per configured relay
//   - messaging: websocket hub and the store-to-hub bridge
//   - api: the HTTP server
//
// The layering isolates failures: a flapping relay connection restarts
// inside the ingest layer without touching the HTTP server, and vice
// versa.
type SupervisorTree struct {
	root      *suture.Supervisor
	ingest    *suture.Supervisor
	messaging *suture.Supervisor
	api       *suture.Supervisor
	config    TreeConfig
}

// NewSupervisorTree creates the supervisor tree. Supervisor events are
// logged through the given slog logger via sutureslog.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) *SupervisorTree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	// sutureslog's Handler.MustHook has a pointer receiver.
	eventHook := (&sutureslog.Handler{Logger: logger}).MustHook()

	rootSpec := suture.Spec{
		EventHook:        eventHook,
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	// Children inherit the root's EventHook when added.
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("geochat", rootSpec)
	ingest := suture.New("ingest-layer", childSpec)
	messaging := suture.New("messaging-layer", childSpec)
	api := suture.New("api-layer", childSpec)

	root.Add(ingest)
	root.Add(messaging)
	root.Add(api)

	return &SupervisorTree{
		root:      root,
		ingest:    ingest,
		messaging: messaging,
		api:       api,
		config:    config,
	}
}

// Root returns the root supervisor for direct access if needed.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddIngestService adds a service to the ingest layer. Use this for
// relay connection services.
func (t *SupervisorTree) AddIngestService(svc suture.Service) suture.ServiceToken {
	return t.ingest.Add(svc)
}

// AddMessagingService adds a service to the messaging layer. Use this
// for the websocket hub and the store bridge.
func (t *SupervisorTree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.messaging.Add(svc)
}

// AddAPIService adds a service to the API layer. Use this for the HTTP
// server.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve starts the supervisor tree and blocks until the context is
// canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the tree in a background goroutine. The
// returned channel receives the error (or nil) when the supervisor
// stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that failed to stop within the
// shutdown timeout. Useful when debugging shutdown hangs.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// Remove removes a service from the tree by its token.
func (t *SupervisorTree) Remove(token suture.ServiceToken) error {
	return t.root.Remove(token)
}
