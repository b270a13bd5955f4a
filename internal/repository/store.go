package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrigden/muckamuck/internal/identity"
	"github.com/jrigden/muckamuck/internal/model"
)

var (
	ErrUnknownKind       = errors.New("unknown entity kind")
	ErrUnsupportedEntity = errors.New("unsupported entity type")
)

// Get loads an entity of the given kind. User and Site are returned by value.
func (r *Repository) Get(ctx context.Context, kind model.Kind, uuid string) (model.Entity, error) {
	switch kind {
	case model.KindUser:
		user, err := r.GetUserByUUID(ctx, uuid)
		if err != nil {
			return nil, err
		}
		return *user, nil
	case model.KindSite:
		site, err := r.GetSiteByUUID(ctx, uuid)
		if err != nil {
			return nil, err
		}
		return *site, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Save inserts or updates an entity and returns its UUID. An entity without a
// UUID gets a fresh one; pointer inputs have the UUID and creation date written
// back. Updating a site never changes its owner.
func (r *Repository) Save(ctx context.Context, e model.Entity) (string, error) {
	switch v := e.(type) {
	case *model.User:
		return r.saveUser(ctx, v)
	case model.User:
		return r.saveUser(ctx, &v)
	case *model.Site:
		return r.saveSite(ctx, v)
	case model.Site:
		return r.saveSite(ctx, &v)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedEntity, e)
	}
}

func (r *Repository) saveUser(ctx context.Context, user *model.User) (string, error) {
	if user == nil {
		return "", fmt.Errorf("%w: nil user", ErrUnsupportedEntity)
	}
	if user.UUID != "" {
		err := r.UpdateUser(ctx, user)
		if err == nil {
			return user.UUID, nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return "", err
		}
	} else {
		user.UUID = identity.NewUUID()
	}

	if user.CreatedDate.IsZero() {
		user.CreatedDate = Now()
	}
	if err := r.CreateUser(ctx, user); err != nil {
		return "", err
	}
	return user.UUID, nil
}

func (r *Repository) saveSite(ctx context.Context, site *model.Site) (string, error) {
	if site == nil {
		return "", fmt.Errorf("%w: nil site", ErrUnsupportedEntity)
	}
	if site.UUID != "" {
		err := r.UpdateSite(ctx, site)
		if err == nil {
			return site.UUID, nil
		}
		if !errors.Is(err, ErrSiteNotFound) {
			return "", err
		}
	} else {
		site.UUID = identity.NewUUID()
	}

	site.ApplyDefaults()
	if site.CreatedDate.IsZero() {
		site.CreatedDate = Now()
	}
	if err := r.CreateSite(ctx, site); err != nil {
		return "", err
	}
	return site.UUID, nil
}

// Now returns the current time at the precision PostgreSQL stores, so a
// value read back compares equal to the one written.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
