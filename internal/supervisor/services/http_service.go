// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package services wraps the application's long-running components as
// suture services.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer matches *http.Server's lifecycle methods, so the wrapper
// can be tested with a mock.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService wraps an HTTP server as a supervised service. It
// translates http.Server's blocking ListenAndServe pattern into
// suture's context-aware Serve pattern: the server runs in a goroutine,
// and context cancellation triggers a graceful Shutdown with its own
// timeout.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService creates an HTTP server service wrapper.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
}

// Serve implements suture.Service. Returns nil only if the server
// stopped on its own without error; http.ErrServerClosed is expected
// during shutdown and not treated as a failure.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// The original context is already canceled; shutdown needs its
		// own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}

		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer for supervisor logging.
func (h *HTTPServerService) String() string {
	return h.name
}
