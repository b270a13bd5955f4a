package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jrigden/muckamuck/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `uuid, email, password, public_email, name, bio,
	twitter, facebook, google, customer_id, created_date`

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		user.UUID,
		user.Email,
		user.Password,
		user.PublicEmail,
		user.Name,
		user.Bio,
		user.Twitter,
		user.Facebook,
		user.Google,
		user.CustomerID,
		user.CreatedDate,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByUUID retrieves a user by their UUID.
func (r *Repository) GetUserByUUID(ctx context.Context, uuid string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uuid = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, uuid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by UUID: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by their private email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// UpdateUser replaces the mutable fields of an existing user.
// UUID and created_date are never changed.
func (r *Repository) UpdateUser(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			email = $2,
			password = $3,
			public_email = $4,
			name = $5,
			bio = $6,
			twitter = $7,
			facebook = $8,
			google = $9,
			customer_id = $10
		WHERE uuid = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		user.UUID,
		user.Email,
		user.Password,
		user.PublicEmail,
		user.Name,
		user.Bio,
		user.Twitter,
		user.Facebook,
		user.Google,
		user.CustomerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ListUserUUIDs returns every user UUID in creation order.
func (r *Repository) ListUserUUIDs(ctx context.Context) ([]string, error) {
	return r.listUUIDs(ctx, `SELECT uuid FROM users ORDER BY created_date, uuid`)
}

func (r *Repository) listUUIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uuids: %w", err)
	}

	uuids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan uuids: %w", err)
	}

	return uuids, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.UUID,
		&user.Email,
		&user.Password,
		&user.PublicEmail,
		&user.Name,
		&user.Bio,
		&user.Twitter,
		&user.Facebook,
		&user.Google,
		&user.CustomerID,
		&user.CreatedDate,
	)
	if err != nil {
		return nil, err
	}
	user.CreatedDate = user.CreatedDate.UTC()
	return &user, nil
}
