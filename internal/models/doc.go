// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package models defines the canonical data types shared across Geochat:
// the immutable Event record admitted into the store, and the derived
// Chatroom entry produced by the aggregator.
//
// Events follow the Nostr wire shape (NIP-01): an id, author pubkey,
// unix-seconds timestamp, numeric kind, free-form content, and an ordered
// list of tags. Geochat reads two tags:
//
//   - "g": geohash of the sender's location, keying chatroom membership
//   - "n": display nickname, falling back to a truncated pubkey
//
// Tag lookup honors only the first occurrence of a tag name; later
// duplicates are ignored.
package models
