// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package chatroom

import (
	"reflect"
	"testing"

	"github.com/geochat-dev/geochat/internal/models"
)

func eventWithGeohash(id, geohash string) *models.Event {
	ev := &models.Event{ID: id, Author: "pk-" + id, Content: "m"}
	if geohash != "" {
		ev.Tags = [][]string{{"g", geohash}}
	}
	return ev
}

func TestAggregateCountsAndOrder(t *testing.T) {
	timeline := []*models.Event{
		eventWithGeohash("a", "u4"),
		eventWithGeohash("b", "u4"),
		eventWithGeohash("c", "u5"),
	}

	rooms := Aggregate(timeline)

	want := []models.Chatroom{
		{Geohash: "u4", Label: "#u4", MessageCount: 2},
		{Geohash: "u5", Label: "#u5", MessageCount: 1},
	}
	if !reflect.DeepEqual(rooms, want) {
		t.Errorf("Aggregate = %+v, want %+v", rooms, want)
	}
}

func TestAggregateTiesKeepFirstEncounteredOrder(t *testing.T) {
	timeline := []*models.Event{
		eventWithGeohash("a", "gc"),
		eventWithGeohash("b", "ez"),
		eventWithGeohash("c", "9q"),
		eventWithGeohash("d", "ez"),
		eventWithGeohash("e", "gc"),
		eventWithGeohash("f", "9q"),
	}

	rooms := Aggregate(timeline)

	// All counts equal; order must match first appearance in the scan.
	wantOrder := []string{"gc", "ez", "9q"}
	if len(rooms) != len(wantOrder) {
		t.Fatalf("room count = %d, want %d", len(rooms), len(wantOrder))
	}
	for i, gh := range wantOrder {
		if rooms[i].Geohash != gh {
			t.Errorf("rooms[%d] = %s, want %s", i, rooms[i].Geohash, gh)
		}
		if rooms[i].MessageCount != 2 {
			t.Errorf("rooms[%d].MessageCount = %d, want 2", i, rooms[i].MessageCount)
		}
	}
}

func TestAggregateSkipsUntaggedEvents(t *testing.T) {
	timeline := []*models.Event{
		eventWithGeohash("a", "u4"),
		eventWithGeohash("b", ""),
		{ID: "c", Tags: [][]string{{"n", "alice"}}},
	}

	rooms := Aggregate(timeline)

	if len(rooms) != 1 {
		t.Fatalf("room count = %d, want 1", len(rooms))
	}
	if rooms[0].Geohash != "u4" || rooms[0].MessageCount != 1 {
		t.Errorf("rooms[0] = %+v, want u4 with count 1", rooms[0])
	}
}

func TestAggregateExcludesInvalidGeohashes(t *testing.T) {
	timeline := []*models.Event{
		eventWithGeohash("a", "ALICE"), // uppercase is outside the alphabet
		eventWithGeohash("b", "u4"),
		eventWithGeohash("c", "u4a"), // 'a' is outside the alphabet
	}

	rooms := Aggregate(timeline)

	// The undecodable geohashes open no room; their events simply have
	// no chatroom membership.
	if len(rooms) != 1 {
		t.Fatalf("room count = %d, want 1: %+v", len(rooms), rooms)
	}
	if rooms[0].Geohash != "u4" || rooms[0].MessageCount != 1 {
		t.Errorf("rooms[0] = %+v, want u4 with count 1", rooms[0])
	}
}

func TestAggregateFirstTagWins(t *testing.T) {
	ev := &models.Event{ID: "a", Tags: [][]string{{"g", "u4"}, {"g", "u5"}}}

	rooms := Aggregate([]*models.Event{ev})

	if len(rooms) != 1 || rooms[0].Geohash != "u4" {
		t.Errorf("Aggregate = %+v, want single room u4", rooms)
	}
}

func TestAggregateEmptyTimeline(t *testing.T) {
	if rooms := Aggregate(nil); len(rooms) != 0 {
		t.Errorf("Aggregate(nil) = %+v, want empty", rooms)
	}
}

func TestAggregateDeterministic(t *testing.T) {
	timeline := []*models.Event{
		eventWithGeohash("a", "u4"),
		eventWithGeohash("b", "u5"),
		eventWithGeohash("c", "u4"),
		eventWithGeohash("d", "ez"),
	}

	first := Aggregate(timeline)
	for i := 0; i < 10; i++ {
		if got := Aggregate(timeline); !reflect.DeepEqual(got, first) {
			t.Fatalf("Aggregate not deterministic on run %d: %+v != %+v", i, got, first)
		}
	}
}
