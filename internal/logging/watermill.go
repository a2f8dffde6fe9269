// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillAdapter implements watermill.LoggerAdapter on top of zerolog,
// so the in-process pub/sub logs through the same backend as everything
// else.
type WatermillAdapter struct {
	logger zerolog.Logger
}

// NewWatermillAdapter creates an adapter wrapping the global logger.
func NewWatermillAdapter() watermill.LoggerAdapter {
	return &WatermillAdapter{logger: Logger()}
}

// Error logs an error-level message.
func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.emit(a.logger.Error().Err(err), msg, fields)
}

// Info logs an info-level message.
func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.emit(a.logger.Info(), msg, fields)
}

// Debug logs a debug-level message.
func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.emit(a.logger.Debug(), msg, fields)
}

// Trace logs a trace-level message.
func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.emit(a.logger.Trace(), msg, fields)
}

// With returns a logger that always carries the given fields.
func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := a.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &WatermillAdapter{logger: ctx.Logger()}
}

func (a *WatermillAdapter) emit(event *zerolog.Event, msg string, fields watermill.LogFields) {
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}
