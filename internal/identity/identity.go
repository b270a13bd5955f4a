// Package identity generates the identifiers used across the application.
package identity

import (
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/oklog/ulid/v2"
)

// NewUUID returns a new entity identifier. The result is short, URL-safe and
// never contains a path separator.
func NewUUID() string {
	return shortuuid.New()
}

// NewRunID returns a lexicographically sortable identifier for an export run.
func NewRunID() string {
	return ulid.Make().String()
}

// NewRequestID returns a random request identifier.
func NewRequestID() string {
	return uuid.NewString()
}
