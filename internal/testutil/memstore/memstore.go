// Package memstore is an in-memory entity store for tests.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jrigden/muckamuck/internal/identity"
	"github.com/jrigden/muckamuck/internal/model"
	"github.com/jrigden/muckamuck/internal/repository"
)

// Store keeps users and sites in maps and enforces the same constraints as
// the PostgreSQL schema: unique email, unique domain, existing owner.
type Store struct {
	mu    sync.Mutex
	users map[string]model.User
	sites map[string]model.Site
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users: make(map[string]model.User),
		sites: make(map[string]model.Site),
	}
}

func (m *Store) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	m.users[user.UUID] = *user
	return nil
}

func (m *Store) GetUserByUUID(ctx context.Context, uuid string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uuid]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (m *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *Store) UpdateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.users[user.UUID]
	if !ok {
		return repository.ErrUserNotFound
	}
	updated := *user
	updated.CreatedDate = prev.CreatedDate
	m.users[user.UUID] = updated
	return nil
}

func (m *Store) ListUserUUIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uuids := make([]string, 0, len(m.users))
	for id := range m.users {
		uuids = append(uuids, id)
	}
	sort.Strings(uuids)
	return uuids, nil
}

func (m *Store) CreateSite(ctx context.Context, site *model.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[site.OwnerUUID]; !ok {
		return repository.ErrOwnerNotFound
	}
	for _, s := range m.sites {
		if s.Domain == site.Domain {
			return repository.ErrDomainExists
		}
	}
	m.sites[site.UUID] = *site
	return nil
}

func (m *Store) GetSiteByUUID(ctx context.Context, uuid string) (*model.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[uuid]
	if !ok {
		return nil, repository.ErrSiteNotFound
	}
	return &s, nil
}

func (m *Store) UpdateSite(ctx context.Context, site *model.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.sites[site.UUID]
	if !ok {
		return repository.ErrSiteNotFound
	}
	for id, s := range m.sites {
		if id != site.UUID && s.Domain == site.Domain {
			return repository.ErrDomainExists
		}
	}
	updated := *site
	updated.OwnerUUID = prev.OwnerUUID
	updated.CreatedDate = prev.CreatedDate
	m.sites[site.UUID] = updated
	return nil
}

func (m *Store) ListSiteUUIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uuids := make([]string, 0, len(m.sites))
	for id := range m.sites {
		uuids = append(uuids, id)
	}
	sort.Strings(uuids)
	return uuids, nil
}

func (m *Store) ListSitesByOwner(ctx context.Context, ownerUUID string) ([]*model.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sites []*model.Site
	for _, s := range m.sites {
		if s.OwnerUUID == ownerUUID {
			s := s
			sites = append(sites, &s)
		}
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].UUID < sites[j].UUID })
	return sites, nil
}

// Get loads a user or site by kind and UUID and returns it by value.
func (m *Store) Get(ctx context.Context, kind model.Kind, uuid string) (model.Entity, error) {
	switch kind {
	case model.KindUser:
		user, err := m.GetUserByUUID(ctx, uuid)
		if err != nil {
			return nil, err
		}
		return *user, nil
	case model.KindSite:
		site, err := m.GetSiteByUUID(ctx, uuid)
		if err != nil {
			return nil, err
		}
		return *site, nil
	default:
		return nil, fmt.Errorf("%w: %q", repository.ErrUnknownKind, kind)
	}
}

// Save updates an existing entity or creates a new one, assigning a UUID and
// creation date when missing. Pointer inputs get both written back.
func (m *Store) Save(ctx context.Context, e model.Entity) (string, error) {
	switch v := e.(type) {
	case *model.User:
		return m.saveUser(ctx, v)
	case model.User:
		return m.saveUser(ctx, &v)
	case *model.Site:
		return m.saveSite(ctx, v)
	case model.Site:
		return m.saveSite(ctx, &v)
	default:
		return "", fmt.Errorf("%w: %T", repository.ErrUnsupportedEntity, e)
	}
}

func (m *Store) saveUser(ctx context.Context, user *model.User) (string, error) {
	if user == nil {
		return "", fmt.Errorf("%w: nil user", repository.ErrUnsupportedEntity)
	}
	if user.UUID != "" {
		err := m.UpdateUser(ctx, user)
		if err == nil {
			return user.UUID, nil
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return "", err
		}
	} else {
		user.UUID = identity.NewUUID()
	}
	if user.CreatedDate.IsZero() {
		user.CreatedDate = repository.Now()
	}
	if err := m.CreateUser(ctx, user); err != nil {
		return "", err
	}
	return user.UUID, nil
}

func (m *Store) saveSite(ctx context.Context, site *model.Site) (string, error) {
	if site == nil {
		return "", fmt.Errorf("%w: nil site", repository.ErrUnsupportedEntity)
	}
	if site.UUID != "" {
		err := m.UpdateSite(ctx, site)
		if err == nil {
			return site.UUID, nil
		}
		if !errors.Is(err, repository.ErrSiteNotFound) {
			return "", err
		}
	} else {
		site.UUID = identity.NewUUID()
	}
	site.ApplyDefaults()
	if site.CreatedDate.IsZero() {
		site.CreatedDate = repository.Now()
	}
	if err := m.CreateSite(ctx, site); err != nil {
		return "", err
	}
	return site.UUID, nil
}

// DeleteUser removes a user without checking for owned sites, to simulate a
// dangling owner reference.
func (m *Store) DeleteUser(uuid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, uuid)
}
