package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jrigden/muckamuck/internal/model"
)

type pageEntity struct{}

func (pageEntity) Kind() model.Kind { return "page" }
func (pageEntity) ID() string       { return "p1" }

func TestSave_UnsupportedEntity(t *testing.T) {
	t.Parallel()

	repo := &Repository{}
	if _, err := repo.Save(context.Background(), pageEntity{}); !errors.Is(err, ErrUnsupportedEntity) {
		t.Errorf("expected ErrUnsupportedEntity, got %v", err)
	}

	var nilUser *model.User
	if _, err := repo.Save(context.Background(), nilUser); !errors.Is(err, ErrUnsupportedEntity) {
		t.Errorf("expected ErrUnsupportedEntity for nil user, got %v", err)
	}
}

func TestGet_UnknownKind(t *testing.T) {
	t.Parallel()

	repo := &Repository{}
	if _, err := repo.Get(context.Background(), model.Kind("page"), "p1"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestNow_MicrosecondPrecision(t *testing.T) {
	t.Parallel()

	now := Now()
	if now.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", now.Location())
	}
	if now.Nanosecond()%1000 != 0 {
		t.Errorf("expected microsecond precision, got %d ns", now.Nanosecond())
	}
}

func TestPgErrorCode_NonPostgres(t *testing.T) {
	t.Parallel()

	err := errors.New("23505 unique")
	if isUniqueViolation(err) {
		t.Error("plain errors must not be treated as unique violations")
	}
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	if !isUniqueViolation(wrapped) {
		t.Error("wrapped 23505 should be a unique violation")
	}
	if isForeignKeyViolation(wrapped) {
		t.Error("23505 is not a foreign key violation")
	}
	if isForeignKeyViolation(nil) {
		t.Error("nil is not a foreign key violation")
	}
}
