// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package metrics provides Prometheus metrics for Geochat, exposed at
// /metrics in Prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsAdmitted counts events admitted into the store.
	EventsAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geochat_events_admitted_total",
		Help: "Total events admitted into the timeline",
	})

	// EventsDuplicate counts admission attempts rejected as duplicates.
	// Duplicates are routine (relays re-announce events), not errors.
	EventsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geochat_events_duplicate_total",
		Help: "Total admission attempts rejected as duplicate ids",
	})

	// TimelineLength tracks the current number of timeline events.
	TimelineLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "geochat_timeline_length",
		Help: "Current number of events in the timeline",
	})

	// ChatroomsActive tracks the number of chatrooms with at least one
	// message.
	ChatroomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "geochat_chatrooms_active",
		Help: "Current number of chatrooms with a non-zero message count",
	})

	// GeohashDecodeFailures counts geohash strings that failed to decode.
	GeohashDecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geochat_geohash_decode_failures_total",
		Help: "Total geohash decode failures",
	})

	// RelayEventsReceived counts raw events received per relay, before
	// deduplication.
	RelayEventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geochat_relay_events_received_total",
		Help: "Total raw events received from relays",
	}, []string{"relay"})

	// RelayEventsDropped counts events dropped at conversion (wrong kind
	// or missing id).
	RelayEventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geochat_relay_events_dropped_total",
		Help: "Total relay events dropped before admission",
	}, []string{"relay", "reason"})

	// RelayConnects counts successful relay connections, including
	// supervisor restarts.
	RelayConnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geochat_relay_connects_total",
		Help: "Total successful relay connections",
	}, []string{"relay"})

	// WSConnections tracks active WebSocket consumers.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "geochat_websocket_connections_active",
		Help: "Active WebSocket connections",
	})

	// WSMessagesSent counts broadcast messages sent to consumers.
	WSMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geochat_websocket_messages_sent_total",
		Help: "Total WebSocket messages sent",
	}, []string{"type"})

	// WSMessagesDropped counts broadcasts dropped because a consumer's
	// send buffer was full.
	WSMessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geochat_websocket_messages_dropped_total",
		Help: "Total WebSocket messages dropped due to full buffers",
	})
)

// RecordAdmission updates admission counters and the timeline gauge.
func RecordAdmission(timelineLen int) {
	EventsAdmitted.Inc()
	TimelineLength.Set(float64(timelineLen))
}

// RecordDuplicate increments the duplicate-admission counter.
func RecordDuplicate() {
	EventsDuplicate.Inc()
}

// RecordDecodeFailure increments the geohash decode failure counter.
func RecordDecodeFailure() {
	GeohashDecodeFailures.Inc()
}

// RecordChatrooms updates the active-chatroom gauge.
func RecordChatrooms(count int) {
	ChatroomsActive.Set(float64(count))
}
