// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrigden/muckamuck/internal/model"
	"github.com/jrigden/muckamuck/internal/snapshot"
)

// Service errors.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidDomain      = errors.New("invalid domain")
	ErrTitleRequired      = errors.New("title is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrSiteNotFound       = errors.New("site not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrDomainExists       = errors.New("domain already exists")
	ErrUnknownKind        = errors.New("unknown entity kind")

	// ErrOwnerNotFound matches snapshot.ErrReference with errors.Is.
	ErrOwnerNotFound = fmt.Errorf("%w: site owner not found", snapshot.ErrReference)
)

// Store is the entity store the services work against.
// *repository.Repository implements it.
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUUID(ctx context.Context, uuid string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	ListUserUUIDs(ctx context.Context) ([]string, error)

	CreateSite(ctx context.Context, site *model.Site) error
	GetSiteByUUID(ctx context.Context, uuid string) (*model.Site, error)
	UpdateSite(ctx context.Context, site *model.Site) error
	ListSiteUUIDs(ctx context.Context) ([]string, error)
	ListSitesByOwner(ctx context.Context, ownerUUID string) ([]*model.Site, error)

	// Get returns the entity by value. Save creates or updates it and
	// returns its UUID.
	Get(ctx context.Context, kind model.Kind, uuid string) (model.Entity, error)
	Save(ctx context.Context, e model.Entity) (string, error)
}
