// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockHTTPServer is a test double for the HTTPServer interface.
type mockHTTPServer struct {
	listenAndServeErr   error
	listenAndServeBlock bool
	shutdownErr         error
	shutdownCount       atomic.Int32
	stopCh              chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{stopCh: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	if m.listenAndServeErr != nil {
		return m.listenAndServeErr
	}
	if m.listenAndServeBlock {
		<-m.stopCh
		return http.ErrServerClosed
	}
	return nil
}

func (m *mockHTTPServer) Shutdown(_ context.Context) error {
	m.shutdownCount.Add(1)
	close(m.stopCh)
	return m.shutdownErr
}

func TestHTTPServerService_Interface(t *testing.T) {
	var _ suture.Service = (*HTTPServerService)(nil)
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := newMockHTTPServer()
	server.listenAndServeBlock = true
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	time.Sleep(20 * time.Millisecond)

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if got := server.shutdownCount.Load(); got != 1 {
		t.Errorf("Shutdown called %d times, want 1", got)
	}
}

func TestHTTPServerServiceStartFailure(t *testing.T) {
	server := newMockHTTPServer()
	server.listenAndServeErr = errors.New("address in use")
	svc := NewHTTPServerService(server, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenAndServeErr) {
		t.Errorf("Serve returned %v, want wrapped start error", err)
	}
}

func TestHTTPServerServiceShutdownFailure(t *testing.T) {
	server := newMockHTTPServer()
	server.listenAndServeBlock = true
	server.shutdownErr = errors.New("connections still draining")
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	time.Sleep(20 * time.Millisecond)

	cancel()

	select {
	case err := <-done:
		if err == nil || !errors.Is(err, server.shutdownErr) {
			t.Errorf("Serve returned %v, want wrapped shutdown error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestHTTPServerServiceDefaultTimeout(t *testing.T) {
	svc := NewHTTPServerService(newMockHTTPServer(), 0)
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("shutdownTimeout = %v, want default 10s", svc.shutdownTimeout)
	}
}

func TestHTTPServerServiceString(t *testing.T) {
	svc := NewHTTPServerService(newMockHTTPServer(), time.Second)
	if svc.String() != "http-server" {
		t.Errorf("String() = %q, want http-server", svc.String())
	}
}
