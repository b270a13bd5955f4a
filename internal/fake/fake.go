// Package fake generates plausible users and sites for seeding and tests.
package fake

import (
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jrigden/muckamuck/internal/identity"
	"github.com/jrigden/muckamuck/internal/model"
)

// Provider produces unsaved entities. Generated entities have no UUID or
// creation date; the store assigns those.
type Provider interface {
	GenerateUser() model.User
	GenerateSite(owner model.User) model.Site
}

// Faker is a Provider backed by gofakeit.
type Faker struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

var _ Provider = (*Faker)(nil)

// New creates a Faker. A zero seed picks a random one; any other seed gives
// a reproducible sequence.
func New(seed uint64) *Faker {
	return &Faker{faker: gofakeit.New(seed)}
}

// GenerateUser returns a user with a fake private and public email, name, bio
// and social handles. The password is left empty.
func (f *Faker) GenerateUser() model.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	return model.User{
		Email:       f.faker.Email(),
		PublicEmail: f.faker.Email(),
		Name:        f.faker.Name(),
		Bio:         f.faker.HackerPhrase(),
		Twitter:     identity.NewUUID(),
		Facebook:    identity.NewUUID(),
		Google:      identity.NewUUID(),
	}
}

// GenerateSite returns a site owned by owner.
func (f *Faker) GenerateSite(owner model.User) model.Site {
	f.mu.Lock()
	defer f.mu.Unlock()

	return model.Site{
		Domain:            f.faker.DomainName(),
		Title:             f.faker.Company(),
		Description:       f.faker.Phrase(),
		Language:          model.DefaultLanguage,
		SubscriptionLevel: model.DefaultSubscriptionLevel,
		OwnerUUID:         owner.UUID,
	}
}

// GeneratePassword returns a random plain text password.
func (f *Faker) GeneratePassword() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.faker.Password(true, true, true, true, false, 16)
}
