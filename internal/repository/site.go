package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jrigden/muckamuck/internal/model"
)

// Common errors for site repository operations.
var (
	ErrSiteNotFound  = errors.New("site not found")
	ErrDomainExists  = errors.New("domain already exists")
	ErrOwnerNotFound = errors.New("site owner not found")
)

const siteColumns = `uuid, domain, title, description, language,
	subscription_level, owner_uuid, created_date`

// CreateSite inserts a new site. The owner must already exist.
func (r *Repository) CreateSite(ctx context.Context, site *model.Site) error {
	query := `
		INSERT INTO sites (` + siteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		site.UUID,
		site.Domain,
		site.Title,
		site.Description,
		site.Language,
		site.SubscriptionLevel,
		site.OwnerUUID,
		site.CreatedDate,
	)

	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrDomainExists
		case isForeignKeyViolation(err):
			return ErrOwnerNotFound
		}
		return fmt.Errorf("failed to create site: %w", err)
	}

	return nil
}

// GetSiteByUUID retrieves a site by its UUID.
func (r *Repository) GetSiteByUUID(ctx context.Context, uuid string) (*model.Site, error) {
	query := `SELECT ` + siteColumns + ` FROM sites WHERE uuid = $1`

	site, err := scanSite(r.pool.QueryRow(ctx, query, uuid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSiteNotFound
		}
		return nil, fmt.Errorf("failed to get site by UUID: %w", err)
	}

	return site, nil
}

// GetSiteByDomain retrieves a site by its domain.
func (r *Repository) GetSiteByDomain(ctx context.Context, domain string) (*model.Site, error) {
	query := `SELECT ` + siteColumns + ` FROM sites WHERE domain = $1`

	site, err := scanSite(r.pool.QueryRow(ctx, query, domain))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSiteNotFound
		}
		return nil, fmt.Errorf("failed to get site by domain: %w", err)
	}

	return site, nil
}

// UpdateSite replaces the mutable fields of an existing site.
// The owner and created_date are fixed at creation and never updated.
func (r *Repository) UpdateSite(ctx context.Context, site *model.Site) error {
	query := `
		UPDATE sites SET
			domain = $2,
			title = $3,
			description = $4,
			language = $5,
			subscription_level = $6
		WHERE uuid = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		site.UUID,
		site.Domain,
		site.Title,
		site.Description,
		site.Language,
		site.SubscriptionLevel,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDomainExists
		}
		return fmt.Errorf("failed to update site: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSiteNotFound
	}

	return nil
}

// ListSiteUUIDs returns every site UUID in creation order.
func (r *Repository) ListSiteUUIDs(ctx context.Context) ([]string, error) {
	return r.listUUIDs(ctx, `SELECT uuid FROM sites ORDER BY created_date, uuid`)
}

// ListSitesByOwner returns the sites owned by a user, oldest first.
func (r *Repository) ListSitesByOwner(ctx context.Context, ownerUUID string) ([]*model.Site, error) {
	query := `SELECT ` + siteColumns + ` FROM sites WHERE owner_uuid = $1 ORDER BY created_date, uuid`

	rows, err := r.pool.Query(ctx, query, ownerUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []*model.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sites: %w", err)
	}

	return sites, nil
}

func scanSite(row pgx.Row) (*model.Site, error) {
	var site model.Site
	err := row.Scan(
		&site.UUID,
		&site.Domain,
		&site.Title,
		&site.Description,
		&site.Language,
		&site.SubscriptionLevel,
		&site.OwnerUUID,
		&site.CreatedDate,
	)
	if err != nil {
		return nil, err
	}
	site.CreatedDate = site.CreatedDate.UTC()
	return &site, nil
}
