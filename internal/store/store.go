// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package store holds the deduplicated, arrival-ordered event timeline.
//
// The Store is the only mutable shared state in Geochat. Admission is an
// atomic check-and-insert keyed by event id: the first record bearing an
// id wins, later submissions of the same id report non-admission without
// changing anything. Admitted events are immutable and never individually
// deleted; the timeline is append-only for the lifetime of the process.
//
// Every successful admission is published on an in-process Watermill
// channel before Admit returns, so a subscriber that snapshots the
// timeline after receiving the notification always observes the
// admission. Derived views (chatrooms, filters) are pure functions over
// such snapshots and need no locking of their own.
package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/geochat-dev/geochat/internal/logging"
	"github.com/geochat-dev/geochat/internal/metrics"
	"github.com/geochat-dev/geochat/internal/models"
)

// TopicAdmitted is the pub/sub topic carrying newly admitted events.
// Each message payload is the JSON-encoded event; the message UUID is
// the event id.
const TopicAdmitted = "events.admitted"

// MetadataSeq is the message metadata key holding the event's arrival
// sequence number (1-based, gapless). Subscribers that need strict
// arrival order can restore it from this even when deliveries
// interleave.
const MetadataSeq = "seq"

// subscriberBuffer is the per-subscriber output channel depth. A slow
// subscriber backpressures the publisher once the buffer fills.
const subscriberBuffer = 256

// Store is the deduplicating event keeper and timeline aggregator.
// All methods are safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*models.Event
	order []*models.Event

	// notifyMu serializes admission notifications. It is acquired while
	// mu is still held, so publish order always matches arrival order.
	notifyMu sync.Mutex

	pubsub *gochannel.GoChannel
}

// New creates an empty store with its own in-process pub/sub channel.
// The store owns the channel; Close releases it.
func New() *Store {
	return &Store{
		byID: make(map[string]*models.Event),
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: subscriberBuffer,
		}, logging.NewWatermillAdapter()),
	}
}

// Admit inserts the event if its id has not been seen before and reports
// whether the insert happened. Duplicate submission is a routine outcome,
// not an error: relays re-announce events constantly.
//
// On success, subscribers are notified before Admit returns. Events with
// an empty id are never admitted.
func (s *Store) Admit(ev *models.Event) bool {
	if ev == nil || ev.ID == "" {
		return false
	}

	s.mu.Lock()
	if _, exists := s.byID[ev.ID]; exists {
		s.mu.Unlock()
		metrics.RecordDuplicate()
		return false
	}
	s.byID[ev.ID] = ev
	s.order = append(s.order, ev)
	length := len(s.order)
	// Take the notify lock before releasing the state lock: a competing
	// Admit cannot publish its (later) admission first.
	s.notifyMu.Lock()
	s.mu.Unlock()

	metrics.RecordAdmission(length)
	s.notify(ev, uint64(length))
	s.notifyMu.Unlock()
	return true
}

// notify publishes the admitted event on TopicAdmitted, stamped with its
// arrival sequence number. Publish order matches arrival order (the
// caller holds notifyMu); consumers that must not reorder event frames
// additionally restore order from MetadataSeq, since concurrent
// deliveries to a subscriber may still interleave.
func (s *Store) notify(ev *models.Event, seq uint64) {
	data, err := ev.Marshal()
	if err != nil {
		logging.Error().Err(err).Str("event_id", ev.ID).Msg("failed to encode admitted event")
		return
	}
	msg := message.NewMessage(ev.ID, data)
	msg.Metadata.Set(MetadataSeq, strconv.FormatUint(seq, 10))
	if err := s.pubsub.Publish(TopicAdmitted, msg); err != nil {
		logging.Error().Err(err).Str("event_id", ev.ID).Msg("failed to publish admission")
	}
}

// Contains reports whether an event with the given id has been admitted.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok
}

// Get returns the admitted event with the given id.
func (s *Store) Get(id string) (*models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.byID[id]
	return ev, ok
}

// Len returns the number of admitted events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Timeline returns a snapshot of the full timeline in arrival order,
// oldest first. The returned slice is the caller's to keep; the events
// it points to are shared and must not be mutated.
func (s *Store) Timeline() []*models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]*models.Event, len(s.order))
	copy(snapshot, s.order)
	return snapshot
}

// Newest returns a display-only newest-first copy of the timeline. The
// stored order is never touched; a fresh reversed copy is built on every
// call.
func (s *Store) Newest() []*models.Event {
	snapshot := s.Timeline()
	for i, j := 0, len(snapshot)-1; i < j; i, j = i+1, j-1 {
		snapshot[i], snapshot[j] = snapshot[j], snapshot[i]
	}
	return snapshot
}

// Subscribe returns a channel of admission notifications. The
// subscription ends when ctx is canceled; a notification in flight at
// cancellation time is not delivered afterwards. Consumers must Ack
// every message they receive.
func (s *Store) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return s.pubsub.Subscribe(ctx, TopicAdmitted)
}

// Close shuts down the pub/sub channel. Admissions after Close still
// mutate the store but notify no one.
func (s *Store) Close() error {
	return s.pubsub.Close()
}
