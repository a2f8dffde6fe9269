// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/geochat-dev/geochat/internal/logging"
	"github.com/geochat-dev/geochat/internal/models"
)

// sanitizeLogValue removes control characters from strings to prevent
// log injection through attacker-controlled input.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a simple ETag from data using FNV-1a hash.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondSuccess wraps data in the standard success envelope.
func respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	logging.Warn().
		Str("code", sanitizeLogValue(code)).
		Str("message", sanitizeLogValue(message)).
		Int("status", status).
		Msg("API error")

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
