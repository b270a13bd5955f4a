// Package model defines domain entities for the application.
package model

// Kind identifies an entity type. It doubles as the directory name used for
// the entity's snapshots.
type Kind string

const (
	KindUser Kind = "user"
	KindSite Kind = "site"
)

// IsValid reports whether k is a known entity kind.
func (k Kind) IsValid() bool {
	return k == KindUser || k == KindSite
}

// Entity is a persisted record that can be addressed by kind and UUID.
// User and Site implement it with value receivers so callers can pass
// copies around freely.
type Entity interface {
	Kind() Kind
	ID() string
}
