// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// blockingService counts starts and blocks until canceled.
type blockingService struct {
	starts atomic.Int32
}

func (s *blockingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return "blocking-service" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSupervisorTreeAppliesDefaults(t *testing.T) {
	tree := NewSupervisorTree(testLogger(), TreeConfig{})

	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("FailureThreshold = %v, want 5.0", tree.config.FailureThreshold)
	}
	if tree.config.FailureBackoff != 15*time.Second {
		t.Errorf("FailureBackoff = %v, want 15s", tree.config.FailureBackoff)
	}
	if tree.Root() == nil {
		t.Fatal("Root() returned nil")
	}
}

func TestSupervisorTreeRunsServicesInEachLayer(t *testing.T) {
	tree := NewSupervisorTree(testLogger(), DefaultTreeConfig())

	ingest := &blockingService{}
	messaging := &blockingService{}
	api := &blockingService{}
	tree.AddIngestService(ingest)
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for ingest.starts.Load() == 0 || messaging.starts.Load() == 0 || api.starts.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("services not started: ingest=%d messaging=%d api=%d",
				ingest.starts.Load(), messaging.starts.Load(), api.starts.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor tree did not stop after cancel")
	}
}

func TestSupervisorTreeStopsCleanly(t *testing.T) {
	tree := NewSupervisorTree(testLogger(), DefaultTreeConfig())
	tree.AddMessagingService(&blockingService{})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v", err)
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport error: %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services after shutdown: %v", report)
	}
}
