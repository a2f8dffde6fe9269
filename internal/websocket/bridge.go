// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package websocket

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/geochat-dev/geochat/internal/chatroom"
	"github.com/geochat-dev/geochat/internal/logging"
	"github.com/geochat-dev/geochat/internal/metrics"
	"github.com/geochat-dev/geochat/internal/models"
	"github.com/geochat-dev/geochat/internal/store"
)

// TimelineSource is the store surface the bridge needs: admission
// notifications plus consistent snapshots. Satisfied by *store.Store.
type TimelineSource interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
	Timeline() []*models.Event
}

// Bridge subscribes to store admissions and republishes derived views to
// the hub: the admitted event itself, the recomputed chatroom list, and
// timeline stats. It recomputes from a fresh snapshot on every change;
// output therefore matches a from-scratch aggregation regardless of
// notification interleaving. Event frames are released in arrival order
// using the sequence number the store stamps on each notification.
type Bridge struct {
	hub    *Hub
	source TimelineSource
	seq    *eventSequencer
	name   string
}

// NewBridge creates a store-to-hub bridge.
func NewBridge(hub *Hub, source TimelineSource) *Bridge {
	return &Bridge{
		hub:    hub,
		source: source,
		seq:    newEventSequencer(),
		name:   "store-bridge-" + uuid.New().String()[:8],
	}
}

// Serve implements suture.Service. It consumes admission notifications
// until the context is canceled. Each notification is acked after the
// derived views have been handed to the hub.
func (b *Bridge) Serve(ctx context.Context) error {
	msgs, err := b.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to store: %w", err)
	}
	// A fresh subscription misses whatever was published while
	// unsubscribed; start sequencing from the first message seen.
	b.seq = newEventSequencer()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			b.handle(msg)
			msg.Ack()
		}
	}
}

func (b *Bridge) handle(msg *message.Message) {
	ev, err := models.UnmarshalEvent(msg.Payload)
	if err != nil {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("undecodable admission notification")
		return
	}

	// Snapshot after the notification: guaranteed to include the
	// admission that triggered it.
	timeline := b.source.Timeline()
	rooms := chatroom.Aggregate(timeline)
	metrics.RecordChatrooms(len(rooms))

	for _, ready := range b.release(msg, ev) {
		b.hub.BroadcastEvent(ready)
	}
	b.hub.BroadcastChatrooms(rooms)
	b.hub.BroadcastStats(len(timeline), len(rooms))
}

// release returns the events now broadcastable in arrival order. A
// notification without a usable sequence number bypasses ordering and
// is released on its own.
func (b *Bridge) release(msg *message.Message, ev *models.Event) []*models.Event {
	seq, err := strconv.ParseUint(msg.Metadata.Get(store.MetadataSeq), 10, 64)
	if err != nil {
		return []*models.Event{ev}
	}
	return b.seq.Add(seq, ev)
}

// String implements fmt.Stringer for supervisor logging.
func (b *Bridge) String() string {
	return b.name
}
