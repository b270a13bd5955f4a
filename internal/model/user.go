package model

import (
	"errors"
	"time"
)

// ErrNoCredential is returned when checking a password for a user that has none set.
var ErrNoCredential = errors.New("user has no password set")

// CredentialHasher turns plain text passwords into opaque hashes and back.
type CredentialHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// User is an account holder. Email and Password are private and never leave
// the store; everything else is public profile data.
type User struct {
	UUID        string    `json:"uuid"`
	Email       string    `json:"-"`
	Password    string    `json:"-"`
	PublicEmail string    `json:"public_email"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	Twitter     string    `json:"twitter"`
	Facebook    string    `json:"facebook"`
	Google      string    `json:"google"`
	CustomerID  string    `json:"-"`
	CreatedDate time.Time `json:"created_date"`
}

// Kind implements Entity.
func (u User) Kind() Kind { return KindUser }

// ID implements Entity.
func (u User) ID() string { return u.UUID }

// SetPassword hashes password with h and stores the result.
func (u *User) SetPassword(h CredentialHasher, password string) error {
	hash, err := h.Hash(password)
	if err != nil {
		return err
	}
	u.Password = hash
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(h CredentialHasher, password string) (bool, error) {
	if u.Password == "" {
		return false, ErrNoCredential
	}
	return h.Verify(password, u.Password)
}
