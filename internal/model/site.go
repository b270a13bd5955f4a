package model

import "time"

// Site defaults applied at creation.
const (
	DefaultLanguage          = "en-us"
	DefaultSubscriptionLevel = "free"
)

// Site is a website owned by exactly one User. OwnerUUID is set at creation
// and never changes afterwards.
type Site struct {
	UUID              string    `json:"uuid"`
	Domain            string    `json:"domain"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Language          string    `json:"language"`
	SubscriptionLevel string    `json:"subscription_level"`
	OwnerUUID         string    `json:"owner"`
	CreatedDate       time.Time `json:"created_date"`
}

// Kind implements Entity.
func (s Site) Kind() Kind { return KindSite }

// ID implements Entity.
func (s Site) ID() string { return s.UUID }

// ApplyDefaults fills in the language and subscription level when unset.
func (s *Site) ApplyDefaults() {
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.SubscriptionLevel == "" {
		s.SubscriptionLevel = DefaultSubscriptionLevel
	}
}
