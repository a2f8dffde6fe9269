// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package relay ingests ephemeral events from Nostr relays.
//
// Each configured relay endpoint runs as its own supervised service:
// connect, subscribe with the configured kind filter, and admit every
// received event into the store. A dropped connection makes Serve return
// an error so the supervisor restarts the service with backoff; the
// restart policy lives entirely in the supervisor, not here.
//
// Relays re-announce events and overlap with each other, so most
// received events are duplicates. Deduplication is the store's job; this
// package only filters out records that are unusable on their face
// (wrong kind, missing id).
package relay

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"github.com/geochat-dev/geochat/internal/logging"
	"github.com/geochat-dev/geochat/internal/metrics"
	"github.com/geochat-dev/geochat/internal/models"
)

// Admitter is the store surface the ingestor needs.
// Satisfied by *store.Store.
type Admitter interface {
	Admit(ev *models.Event) bool
}

// Service ingests events from a single relay endpoint.
type Service struct {
	url   string
	kind  int
	store Admitter
}

// NewService creates an ingest service for one relay URL. kind is the
// numeric event kind to subscribe to (models.DefaultEventKind in the
// reference deployment).
func NewService(url string, kind int, store Admitter) *Service {
	return &Service{url: url, kind: kind, store: store}
}

// Serve implements suture.Service. It blocks until the context is
// canceled or the relay connection fails.
func (s *Service) Serve(ctx context.Context) error {
	conn, err := nostr.RelayConnect(ctx, s.url)
	if err != nil {
		return fmt.Errorf("connect to relay %s: %w", s.url, err)
	}
	defer conn.Close()

	metrics.RelayConnects.WithLabelValues(s.url).Inc()
	logging.Info().Str("relay", s.url).Int("kind", s.kind).Msg("relay connected")

	sub, err := conn.Subscribe(ctx, nostr.Filters{{Kinds: []int{s.kind}}})
	if err != nil {
		return fmt.Errorf("subscribe to relay %s: %w", s.url, err)
	}
	defer sub.Unsub()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("relay", s.url).Msg("relay ingest stopped")
			return ctx.Err()
		case ev, ok := <-sub.Events:
			if !ok {
				// Connection or subscription dropped; let the
				// supervisor reconnect us.
				return fmt.Errorf("relay %s: event stream closed", s.url)
			}
			s.ingest(ev)
		}
	}
}

// ingest converts and admits a single wire event. A malformed record is
// dropped with a counter bump; it never terminates the stream.
func (s *Service) ingest(ev *nostr.Event) {
	metrics.RelayEventsReceived.WithLabelValues(s.url).Inc()

	if ev == nil || ev.ID == "" {
		metrics.RelayEventsDropped.WithLabelValues(s.url, "missing_id").Inc()
		return
	}
	// The subscription filter already restricts the kind; re-check in
	// case a relay misbehaves.
	if ev.Kind != s.kind {
		metrics.RelayEventsDropped.WithLabelValues(s.url, "wrong_kind").Inc()
		return
	}

	admitted := s.store.Admit(Convert(ev))
	logging.Debug().
		Str("relay", s.url).
		Str("event_id", ev.ID).
		Bool("admitted", admitted).
		Msg("event received")
}

// String implements fmt.Stringer for supervisor logging.
func (s *Service) String() string {
	return "relay-ingest " + s.url
}
