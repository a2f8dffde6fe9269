// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package view provides pure projections over timeline snapshots.
// Nothing here holds state or locks; callers pass a consistent snapshot
// and get a derived sequence back.
package view

import (
	"github.com/geochat-dev/geochat/internal/models"
)

// Filter returns the subsequence of timeline events whose first "g" tag
// equals selection, preserving relative order. An empty selection is the
// identity projection: the input is returned unchanged.
func Filter(timeline []*models.Event, selection string) []*models.Event {
	if selection == "" {
		return timeline
	}
	filtered := make([]*models.Event, 0, len(timeline))
	for _, ev := range timeline {
		if ev.Geohash() == selection {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

// Reversed returns a newest-first copy of the timeline for display. The
// input is never mutated; the copy is rebuilt on every call.
func Reversed(timeline []*models.Event) []*models.Event {
	reversed := make([]*models.Event, len(timeline))
	for i, ev := range timeline {
		reversed[len(timeline)-1-i] = ev
	}
	return reversed
}
