package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jrigden/muckamuck/internal/model"
	"github.com/jrigden/muckamuck/internal/snapshot"
	"github.com/jrigden/muckamuck/internal/testutil/memstore"
)

func newTestSiteEnv(t *testing.T) (*SiteService, *UserService, *memstore.Store, *model.User) {
	t.Helper()
	users, store, _ := newTestUserService()
	owner, err := users.CreateUser(context.Background(), CreateUserInput{Email: "owner@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	return NewSiteService(store, nil), users, store, owner
}

func TestCreateSite_Defaults(t *testing.T) {
	t.Parallel()
	svc, _, _, owner := newTestSiteEnv(t)

	site, err := svc.CreateSite(context.Background(), CreateSiteInput{
		Domain:    "Example.COM",
		Title:     " My Site ",
		OwnerUUID: owner.UUID,
	})
	if err != nil {
		t.Fatalf("CreateSite failed: %v", err)
	}

	if site.UUID == "" || site.CreatedDate.IsZero() {
		t.Errorf("UUID and CreatedDate should be assigned: %+v", site)
	}
	if site.Domain != "example.com" || site.Title != "My Site" {
		t.Errorf("unexpected normalization: %+v", site)
	}
	if site.Language != model.DefaultLanguage || site.SubscriptionLevel != model.DefaultSubscriptionLevel {
		t.Errorf("defaults not applied: %+v", site)
	}
	if site.OwnerUUID != owner.UUID {
		t.Errorf("OwnerUUID = %q, want %q", site.OwnerUUID, owner.UUID)
	}
}

func TestCreateSite_MissingOwner(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestSiteEnv(t)

	for _, owner := range []string{"", "ghost"} {
		_, err := svc.CreateSite(context.Background(), CreateSiteInput{
			Domain:    "orphan.example.com",
			Title:     "Orphan",
			OwnerUUID: owner,
		})
		if !errors.Is(err, ErrOwnerNotFound) {
			t.Errorf("owner %q: expected ErrOwnerNotFound, got %v", owner, err)
		}
		if !errors.Is(err, snapshot.ErrReference) {
			t.Errorf("owner %q: expected a reference error, got %v", owner, err)
		}
	}
}

func TestCreateSite_DuplicateDomain(t *testing.T) {
	t.Parallel()
	svc, _, _, owner := newTestSiteEnv(t)
	ctx := context.Background()

	input := CreateSiteInput{Domain: "dup.example.com", Title: "One", OwnerUUID: owner.UUID}
	if _, err := svc.CreateSite(ctx, input); err != nil {
		t.Fatalf("CreateSite failed: %v", err)
	}
	input.Title = "Two"
	if _, err := svc.CreateSite(ctx, input); !errors.Is(err, ErrDomainExists) {
		t.Errorf("expected ErrDomainExists, got %v", err)
	}
}

func TestCreateSite_Validation(t *testing.T) {
	t.Parallel()
	svc, _, _, owner := newTestSiteEnv(t)

	tests := []struct {
		name    string
		domain  string
		title   string
		wantErr error
	}{
		{"empty domain", "", "T", ErrInvalidDomain},
		{"path in domain", "example.com/blog", "T", ErrInvalidDomain},
		{"scheme", "https://example.com", "T", ErrInvalidDomain},
		{"empty label", "example..com", "T", ErrInvalidDomain},
		{"leading hyphen", "-example.com", "T", ErrInvalidDomain},
		{"blank title", "ok.example.com", "   ", ErrTitleRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSite(context.Background(), CreateSiteInput{
				Domain:    tt.domain,
				Title:     tt.title,
				OwnerUUID: owner.UUID,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateSite error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateSite_OwnerImmutable(t *testing.T) {
	t.Parallel()
	svc, users, store, owner := newTestSiteEnv(t)
	ctx := context.Background()

	other, err := users.CreateUser(ctx, CreateUserInput{Email: "other@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	site, err := svc.CreateSite(ctx, CreateSiteInput{Domain: "keep.example.com", Title: "Keep", OwnerUUID: owner.UUID})
	if err != nil {
		t.Fatalf("CreateSite failed: %v", err)
	}

	title := "Renamed"
	lang := ""
	updated, err := svc.UpdateSite(ctx, UpdateSiteInput{UUID: site.UUID, Title: &title, Language: &lang})
	if err != nil {
		t.Fatalf("UpdateSite failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", updated.Title)
	}
	if updated.Language != model.DefaultLanguage {
		t.Errorf("clearing language should restore the default, got %q", updated.Language)
	}

	// Even a caller that mutates the struct directly cannot move the site.
	moved := *updated
	moved.OwnerUUID = other.UUID
	if err := store.UpdateSite(ctx, &moved); err != nil {
		t.Fatalf("store.UpdateSite failed: %v", err)
	}
	got, err := svc.GetSite(ctx, site.UUID)
	if err != nil {
		t.Fatalf("GetSite failed: %v", err)
	}
	if got.OwnerUUID != owner.UUID {
		t.Errorf("owner changed to %q", got.OwnerUUID)
	}

	sites, err := svc.ListSitesByOwner(ctx, owner.UUID)
	if err != nil {
		t.Fatalf("ListSitesByOwner failed: %v", err)
	}
	if len(sites) != 1 {
		t.Errorf("expected 1 site for owner, got %d", len(sites))
	}
}

func TestUpdateSite_NotFound(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestSiteEnv(t)

	title := "x"
	if _, err := svc.UpdateSite(context.Background(), UpdateSiteInput{UUID: "missing", Title: &title}); !errors.Is(err, ErrSiteNotFound) {
		t.Errorf("expected ErrSiteNotFound, got %v", err)
	}
}
