// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the singleton validator instance. The validator
// caches struct metadata, so sharing one instance is both safe and
// cheaper than constructing per call.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the configuration against its struct tags and returns
// a single error naming every failed field.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeFieldError(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	// Namespace includes the root struct name ("Config.Server.Port");
	// drop the root for readability.
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
