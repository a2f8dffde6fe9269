// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package models

import "time"

// APIResponse is the standardized wrapper used by all HTTP endpoints.
//
// Success:
//
//	{"status": "success", "data": {...}, "metadata": {"timestamp": "..."}}
//
// Error:
//
//	{"status": "error", "error": {"code": "...", "message": "..."}, "metadata": {...}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata for observability.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is the structured error payload inside an APIResponse.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
