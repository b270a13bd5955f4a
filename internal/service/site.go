package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jrigden/muckamuck/internal/metrics"
	"github.com/jrigden/muckamuck/internal/model"
	"github.com/jrigden/muckamuck/internal/repository"
)

const maxDomainLength = 253

// SiteService handles site business logic.
type SiteService struct {
	store   Store
	metrics metrics.Recorder
}

// NewSiteService creates a new SiteService.
func NewSiteService(store Store, recorder metrics.Recorder) *SiteService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SiteService{store: store, metrics: recorder}
}

// CreateSiteInput defines input for creating a site.
type CreateSiteInput struct {
	Domain            string
	Title             string
	Description       string
	Language          string
	SubscriptionLevel string
	OwnerUUID         string
}

// CreateSite saves a new site owned by an existing user. The store assigns
// the UUID and creation date and fills in the default language and
// subscription level.
func (s *SiteService) CreateSite(ctx context.Context, input CreateSiteInput) (*model.Site, error) {
	domain, err := normalizeDomain(input.Domain)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.OwnerUUID == "" {
		return nil, ErrOwnerNotFound
	}

	if _, err := s.store.GetUserByUUID(ctx, input.OwnerUUID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}

	site := &model.Site{
		Domain:            domain,
		Title:             title,
		Description:       input.Description,
		Language:          strings.ToLower(strings.TrimSpace(input.Language)),
		SubscriptionLevel: strings.TrimSpace(input.SubscriptionLevel),
		OwnerUUID:         input.OwnerUUID,
	}

	if _, err := s.store.Save(ctx, site); err != nil {
		switch {
		case errors.Is(err, repository.ErrDomainExists):
			return nil, ErrDomainExists
		case errors.Is(err, repository.ErrOwnerNotFound):
			// Owner was removed between the check and the insert.
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to create site: %w", err)
	}

	s.metrics.IncEntityCreated(string(model.KindSite))
	return site, nil
}

// GetSite retrieves a site by UUID.
func (s *SiteService) GetSite(ctx context.Context, uuid string) (*model.Site, error) {
	site, err := s.store.GetSiteByUUID(ctx, uuid)
	if err != nil {
		if errors.Is(err, repository.ErrSiteNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return site, nil
}

// ListSitesByOwner returns the sites a user owns.
func (s *SiteService) ListSitesByOwner(ctx context.Context, ownerUUID string) ([]*model.Site, error) {
	sites, err := s.store.ListSitesByOwner(ctx, ownerUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	return sites, nil
}

// UpdateSiteInput defines input for updating a site. Nil fields are left
// unchanged. There is no owner field: ownership is fixed at creation.
type UpdateSiteInput struct {
	UUID              string
	Domain            *string
	Title             *string
	Description       *string
	Language          *string
	SubscriptionLevel *string
}

// UpdateSite changes the mutable fields of a site.
func (s *SiteService) UpdateSite(ctx context.Context, input UpdateSiteInput) (*model.Site, error) {
	site, err := s.GetSite(ctx, input.UUID)
	if err != nil {
		return nil, err
	}

	if input.Domain != nil {
		domain, err := normalizeDomain(*input.Domain)
		if err != nil {
			return nil, err
		}
		site.Domain = domain
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		site.Title = title
	}
	if input.Description != nil {
		site.Description = *input.Description
	}
	if input.Language != nil {
		site.Language = strings.ToLower(strings.TrimSpace(*input.Language))
	}
	if input.SubscriptionLevel != nil {
		site.SubscriptionLevel = strings.TrimSpace(*input.SubscriptionLevel)
	}
	site.ApplyDefaults()

	if err := s.store.UpdateSite(ctx, site); err != nil {
		switch {
		case errors.Is(err, repository.ErrSiteNotFound):
			return nil, ErrSiteNotFound
		case errors.Is(err, repository.ErrDomainExists):
			return nil, ErrDomainExists
		}
		return nil, fmt.Errorf("failed to update site: %w", err)
	}

	s.metrics.IncEntityUpdated(string(model.KindSite))
	return site, nil
}

// normalizeDomain lowercases a bare host name and rejects anything that is
// not one.
func normalizeDomain(domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" || len(domain) > maxDomainLength {
		return "", ErrInvalidDomain
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || len(label) > 63 {
			return "", ErrInvalidDomain
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return "", ErrInvalidDomain
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
				return "", ErrInvalidDomain
			}
		}
	}
	return domain, nil
}
