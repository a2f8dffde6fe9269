// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package websocket

import "github.com/geochat-dev/geochat/internal/models"

// maxPendingEvents bounds how many out-of-order events the sequencer
// holds back. Admission sequence numbers are gapless, so the buffer
// stays near-empty in practice; the cap only guards against a lost
// notification stalling the stream forever.
const maxPendingEvents = 1024

// eventSequencer restores arrival order for event broadcasts. The store
// stamps every admission notification with a 1-based gapless sequence
// number; deliveries may interleave, so events ahead of the next
// expected sequence are held until the gap fills. The first sequence
// seen primes the stream, so a consumer attaching mid-stream starts
// from wherever it joined.
//
// Not safe for concurrent use; the bridge calls it from its single
// consume loop.
type eventSequencer struct {
	started bool
	next    uint64
	pending map[uint64]*models.Event
}

func newEventSequencer() *eventSequencer {
	return &eventSequencer{pending: make(map[uint64]*models.Event)}
}

// Add registers an event by its arrival sequence and returns the events
// now releasable, in arrival order. When the pending buffer exceeds its
// cap, the stream skips forward to the lowest held sequence rather than
// stall.
func (q *eventSequencer) Add(seq uint64, ev *models.Event) []*models.Event {
	if !q.started {
		q.started = true
		q.next = seq
	}
	if seq < q.next {
		// A delivery that lost the race to prime the stream; emit it
		// late rather than swallow the frame.
		return []*models.Event{ev}
	}
	q.pending[seq] = ev

	if len(q.pending) > maxPendingEvents {
		lowest := seq
		for s := range q.pending {
			if s < lowest {
				lowest = s
			}
		}
		q.next = lowest
	}

	var ready []*models.Event
	for {
		next, ok := q.pending[q.next]
		if !ok {
			break
		}
		delete(q.pending, q.next)
		q.next++
		ready = append(ready, next)
	}
	return ready
}
