// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package models

import (
	"testing"
)

func TestTagValueFirstOccurrenceWins(t *testing.T) {
	e := &Event{
		ID: "ev1",
		Tags: [][]string{
			{"e", "referenced-event"},
			{"g", "u4pruy"},
			{"g", "ezs42"},
			{"n", "alice"},
		},
	}

	got, ok := e.TagValue("g")
	if !ok {
		t.Fatal("expected g tag to be found")
	}
	if got != "u4pruy" {
		t.Errorf("TagValue(g) = %q, want first occurrence %q", got, "u4pruy")
	}
}

func TestTagValueValuelessFirstOccurrenceShadowsLater(t *testing.T) {
	// Only the first occurrence of a name is significant: a bare ["g"]
	// makes the geohash absent even though a later ["g","u4"] exists.
	e := &Event{
		ID:   "ev2",
		Tags: [][]string{{"g"}, {"g", "u4"}},
	}

	if v, ok := e.TagValue("g"); ok {
		t.Errorf("TagValue(g) = %q, want not found", v)
	}
	if e.Geohash() != "" {
		t.Errorf("Geohash() = %q, want empty", e.Geohash())
	}
}

func TestTagValueMissingOrMalformed(t *testing.T) {
	tests := []struct {
		name string
		tags [][]string
	}{
		{"no tags", nil},
		{"empty tags", [][]string{}},
		{"name without value", [][]string{{"g"}}},
		{"other names only", [][]string{{"e", "x"}, {"p", "y"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Event{ID: "ev", Tags: tt.tags}
			if v, ok := e.TagValue("g"); ok {
				t.Errorf("TagValue(g) = %q, want not found", v)
			}
			if e.Geohash() != "" {
				t.Errorf("Geohash() = %q, want empty", e.Geohash())
			}
		})
	}
}

func TestNicknameFallback(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		expect string
	}{
		{
			name:   "nickname tag present",
			event:  Event{Author: "deadbeefcafe0123456789", Tags: [][]string{{"n", "bob"}}},
			expect: "bob",
		},
		{
			name:   "no nickname tag truncates pubkey",
			event:  Event{Author: "deadbeefcafe0123456789"},
			expect: "deadbeef",
		},
		{
			name:   "empty nickname value truncates pubkey",
			event:  Event{Author: "deadbeefcafe0123456789", Tags: [][]string{{"n", ""}}},
			expect: "deadbeef",
		},
		{
			name:   "short pubkey used whole",
			event:  Event{Author: "abc"},
			expect: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Nickname(); got != tt.expect {
				t.Errorf("Nickname() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestDisplayTimePlaceholder(t *testing.T) {
	for _, ts := range []int64{0, -1} {
		e := &Event{CreatedAt: ts}
		if got := e.DisplayTime(); got != "--:--" {
			t.Errorf("DisplayTime() with created_at=%d = %q, want placeholder", ts, got)
		}
	}

	// 2024-01-15T10:30:00Z
	e := &Event{CreatedAt: 1705314600}
	if got := e.DisplayTime(); got != "10:30" {
		t.Errorf("DisplayTime() = %q, want %q", got, "10:30")
	}
}

func TestEventMarshalRoundTrip(t *testing.T) {
	e := &Event{
		ID:        "a1b2c3",
		Author:    "pubkey1",
		CreatedAt: 1700000000,
		Kind:      20000,
		Content:   "hello from u4",
		Tags:      [][]string{{"g", "u4"}, {"n", "alice"}},
	}

	data, err := e.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	decoded, err := UnmarshalEvent(data)
	if err != nil {
		t.Fatalf("UnmarshalEvent failed: %v", err)
	}

	if decoded.ID != e.ID || decoded.Author != e.Author || decoded.Content != e.Content {
		t.Errorf("round trip mismatch: got %+v", decoded)
	}
	if decoded.Geohash() != "u4" {
		t.Errorf("Geohash() after round trip = %q, want %q", decoded.Geohash(), "u4")
	}
}

func TestChatroomLabel(t *testing.T) {
	if got := ChatroomLabel("u4pruy"); got != "#u4pruy" {
		t.Errorf("ChatroomLabel = %q, want %q", got, "#u4pruy")
	}
}
