// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package relay

import (
	"github.com/nbd-wtf/go-nostr"

	"github.com/geochat-dev/geochat/internal/models"
)

// Convert maps a wire-format Nostr event to the internal event model.
// Tags are copied so the result does not alias the library's buffers.
func Convert(ev *nostr.Event) *models.Event {
	tags := make([][]string, 0, len(ev.Tags))
	for _, tag := range ev.Tags {
		copied := make([]string, len(tag))
		copy(copied, tag)
		tags = append(tags, copied)
	}

	return &models.Event{
		ID:        ev.ID,
		Author:    ev.PubKey,
		CreatedAt: int64(ev.CreatedAt),
		Kind:      ev.Kind,
		Content:   ev.Content,
		Tags:      tags,
	}
}
