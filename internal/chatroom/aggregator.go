// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package chatroom derives the chatroom list from a timeline snapshot.
//
// A chatroom exists for every geohash carried by at least one timeline
// event; its message count is the number of events whose first "g" tag
// equals that geohash. The aggregation is recomputed in full on every
// timeline change and is deterministic for a given snapshot, however
// many times it runs.
package chatroom

import (
	"sort"

	"github.com/geochat-dev/geochat/internal/geohash"
	"github.com/geochat-dev/geochat/internal/models"
)

// Aggregate scans the timeline once and returns chatrooms sorted by
// descending message count. Ties keep first-encountered order (the order
// a room's geohash first appears in the scan). Events without a "g" tag,
// or whose geohash falls outside the base-32 alphabet, contribute to no
// room; such events stay in the timeline but have no chatroom
// membership. Rooms never appear with a zero count.
func Aggregate(timeline []*models.Event) []models.Chatroom {
	counts := make(map[string]int)
	var order []string

	for _, ev := range timeline {
		gh := ev.Geohash()
		if gh == "" {
			continue
		}
		if !geohash.Valid(gh) {
			continue
		}
		if _, seen := counts[gh]; !seen {
			order = append(order, gh)
		}
		counts[gh]++
	}

	rooms := make([]models.Chatroom, 0, len(order))
	for _, gh := range order {
		rooms = append(rooms, models.Chatroom{
			Geohash:      gh,
			Label:        models.ChatroomLabel(gh),
			MessageCount: counts[gh],
		})
	}

	// Stable sort preserves first-encountered order among equal counts.
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].MessageCount > rooms[j].MessageCount
	})

	return rooms
}
