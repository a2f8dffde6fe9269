// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package models

// Chatroom is a derived grouping of timeline events sharing a geohash.
// Chatrooms are never created or destroyed directly; they exist exactly
// while at least one admitted event carries their geohash, and are
// recomputed in full whenever the timeline changes.
type Chatroom struct {
	Geohash      string `json:"geohash"`
	Label        string `json:"label"`
	MessageCount int    `json:"message_count"`
}

// ChatroomLabel derives the display label for a geohash.
func ChatroomLabel(geohash string) string {
	return "#" + geohash
}
