// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// DefaultEventKind is the Nostr kind for ephemeral geochat messages.
// The actual kind is configurable; this is only the reference default.
const DefaultEventKind = 20000

// Tag names read by Geochat. Any other tag is carried but ignored.
const (
	// TagGeohash carries the sender's geohash ("g" per the geochat convention).
	TagGeohash = "g"
	// TagNickname carries the sender's display name.
	TagNickname = "n"
)

// nicknameFallbackLen is how many pubkey characters stand in for a
// missing nickname.
const nicknameFallbackLen = 8

// timestampPlaceholder is shown when an event carries an unusable
// created_at value.
const timestampPlaceholder = "--:--"

// Event is a Nostr event record as admitted into the store.
//
// Events are immutable once admitted: the store hands out pointers to
// shared instances, so callers must never mutate a returned Event.
// CreatedAt is source-assigned and not validated for monotonicity or
// freshness; arrival order, not CreatedAt, determines timeline position.
type Event struct {
	ID        string     `json:"id"`
	Author    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Content   string     `json:"content"`
	Tags      [][]string `json:"tags"`
}

// TagValue returns the value of the first tag with the given name.
// Duplicate tag names are routine in Nostr events; only the first
// occurrence is significant, so a valueless first tag makes the name
// absent even when a later duplicate carries a value. Returns false
// when the tag is absent or its first occurrence has no value.
func (e *Event) TagValue(name string) (string, bool) {
	for _, tag := range e.Tags {
		if len(tag) == 0 || tag[0] != name {
			continue
		}
		if len(tag) < 2 {
			return "", false
		}
		return tag[1], true
	}
	return "", false
}

// Geohash returns the event's geohash tag value, or empty when the event
// carries no "g" tag (such events belong to no chatroom).
func (e *Event) Geohash() string {
	v, _ := e.TagValue(TagGeohash)
	return v
}

// Nickname returns the event's display name: the "n" tag when present,
// otherwise a truncated author pubkey.
func (e *Event) Nickname() string {
	if v, ok := e.TagValue(TagNickname); ok && v != "" {
		return v
	}
	if len(e.Author) > nicknameFallbackLen {
		return e.Author[:nicknameFallbackLen]
	}
	return e.Author
}

// Time returns the event's created_at as a time.Time. The zero time is
// returned for non-positive timestamps; callers wanting a display string
// should use DisplayTime instead.
func (e *Event) Time() time.Time {
	if e.CreatedAt <= 0 {
		return time.Time{}
	}
	return time.Unix(e.CreatedAt, 0).UTC()
}

// DisplayTime formats the event timestamp for presentation, falling back
// to a placeholder when the source supplied an unusable created_at.
// A bad timestamp never affects admission, ordering, or counts.
func (e *Event) DisplayTime() string {
	if e.CreatedAt <= 0 {
		return timestampPlaceholder
	}
	return e.Time().Format("15:04")
}

// Marshal encodes the event as JSON.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent decodes an event from JSON.
func UnmarshalEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
