// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

// Package geohash decodes base-32 geohash strings into coordinates.
//
// A geohash encodes a rectangular region on the sphere; each additional
// character narrows the region by five bits, alternating longitude and
// latitude starting with longitude. Decoding is a pure function: the same
// input always yields the same point or the same failure.
//
// Decode returns the region center, matching the convention of the
// reference geohash scheme. The empty string decodes to (0, 0), the
// center of the whole sphere, without special-casing.
package geohash

import (
	"fmt"
	"strings"
)

// Alphabet is the fixed 32-symbol geohash alphabet. Lookup is
// case-sensitive; uppercase characters are invalid.
const Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// Point is a decoded coordinate pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Box is the rectangular region a geohash denotes.
type Box struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lng: (b.MinLng + b.MaxLng) / 2,
	}
}

// InvalidCharError reports a character outside the geohash alphabet.
// The decode produces no partial result.
type InvalidCharError struct {
	Char     byte
	Position int
}

func (e *InvalidCharError) Error() string {
	return fmt.Sprintf("geohash: invalid character %q at position %d", e.Char, e.Position)
}

// Decode converts a geohash to the center point of its region.
//
// The running midpoints start at (0, 0) with error half-widths of 90
// (latitude) and 180 (longitude). Each character contributes five bits,
// most significant first; every bit halves the half-width of the axis
// whose turn it is (longitude first, alternating across character
// boundaries) and moves that axis's midpoint up or down by the halved
// width. Precision is bounded only by input length.
func Decode(hash string) (Point, error) {
	box, err := DecodeBox(hash)
	if err != nil {
		return Point{}, err
	}
	return box.Center(), nil
}

// DecodeBox converts a geohash to the full rectangular region it denotes.
// The map widget uses the box extents; Decode derives its center.
func DecodeBox(hash string) (Box, error) {
	latErr, lngErr := 90.0, 180.0
	lat, lng := 0.0, 0.0
	isLng := true

	for i := 0; i < len(hash); i++ {
		idx := strings.IndexByte(Alphabet, hash[i])
		if idx < 0 {
			return Box{}, &InvalidCharError{Char: hash[i], Position: i}
		}
		for bit := 4; bit >= 0; bit-- {
			if isLng {
				lngErr /= 2
				if idx&(1<<bit) != 0 {
					lng += lngErr
				} else {
					lng -= lngErr
				}
			} else {
				latErr /= 2
				if idx&(1<<bit) != 0 {
					lat += latErr
				} else {
					lat -= latErr
				}
			}
			isLng = !isLng
		}
	}

	return Box{
		MinLat: lat - latErr,
		MaxLat: lat + latErr,
		MinLng: lng - lngErr,
		MaxLng: lng + lngErr,
	}, nil
}

// Valid reports whether every character of hash is in the alphabet.
func Valid(hash string) bool {
	for i := 0; i < len(hash); i++ {
		if strings.IndexByte(Alphabet, hash[i]) < 0 {
			return false
		}
	}
	return true
}
