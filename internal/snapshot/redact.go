package snapshot

import (
	"strings"
	"time"

	"github.com/jrigden/muckamuck/internal/model"
)

// Document is the public, redacted form of an entity. Every value is a string.
type Document map[string]string

// field is one whitelisted (name, accessor) pair of an export table.
type field[T any] struct {
	name     string
	required bool
	value    func(T) string
}

// userFields is the complete public surface of a User. The login email and
// password hash are deliberately absent; "email" is the public address.
var userFields = []field[model.User]{
	{name: "bio", value: func(u model.User) string { return u.Bio }},
	{name: "created_date", required: true, value: func(u model.User) string { return formatTime(u.CreatedDate) }},
	{name: "email", value: func(u model.User) string { return u.PublicEmail }},
	{name: "facebook", value: func(u model.User) string { return u.Facebook }},
	{name: "google", value: func(u model.User) string { return u.Google }},
	{name: "name", value: func(u model.User) string { return u.Name }},
	{name: "twitter", value: func(u model.User) string { return u.Twitter }},
	{name: "uuid", required: true, value: func(u model.User) string { return u.UUID }},
}

// siteFields embeds only the owner's UUID, never the owner record.
var siteFields = []field[model.Site]{
	{name: "created_date", required: true, value: func(s model.Site) string { return formatTime(s.CreatedDate) }},
	{name: "description", value: func(s model.Site) string { return s.Description }},
	{name: "domain", required: true, value: func(s model.Site) string { return s.Domain }},
	{name: "language", required: true, value: func(s model.Site) string { return s.Language }},
	{name: "owner", required: true, value: func(s model.Site) string { return s.OwnerUUID }},
	{name: "subscription_level", required: true, value: func(s model.Site) string { return s.SubscriptionLevel }},
	{name: "title", required: true, value: func(s model.Site) string { return s.Title }},
	{name: "uuid", required: true, value: func(s model.Site) string { return s.UUID }},
}

// RedactUser returns the public fields of u.
func RedactUser(u model.User) (Document, error) {
	return redact(u, userFields)
}

// RedactSite returns the public fields of s.
func RedactSite(s model.Site) (Document, error) {
	return redact(s, siteFields)
}

// Redact dispatches on the concrete entity type. Pointers are dereferenced so
// the document is always built from a value copy.
func Redact(e model.Entity) (Document, error) {
	switch v := e.(type) {
	case model.User:
		return RedactUser(v)
	case *model.User:
		if v == nil {
			return nil, encodingErrorf("nil user")
		}
		return RedactUser(*v)
	case model.Site:
		return RedactSite(v)
	case *model.Site:
		if v == nil {
			return nil, encodingErrorf("nil site")
		}
		return RedactSite(*v)
	default:
		return nil, encodingErrorf("unsupported entity type %T", e)
	}
}

// redact builds the document from fields. Invalid UTF-8 is replaced with
// U+FFFD here, so the encoder never has to escape it and a decoded snapshot
// re-encodes to the same bytes.
func redact[T any](v T, fields []field[T]) (Document, error) {
	doc := make(Document, len(fields))
	for _, f := range fields {
		value := strings.ToValidUTF8(f.value(v), "\uFFFD")
		if f.required && value == "" {
			return nil, encodingErrorf("missing required field %q", f.name)
		}
		doc[f.name] = value
	}
	return doc, nil
}

// formatTime renders t as ISO-8601 in UTC. The zero time renders as "" so
// the required-field check catches it.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
