package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jrigden/muckamuck/internal/metrics"
	"github.com/jrigden/muckamuck/internal/model"
	"github.com/jrigden/muckamuck/internal/repository"
)

// UserService handles user business logic.
type UserService struct {
	store   Store
	hasher  model.CredentialHasher
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(store Store, hasher model.CredentialHasher, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		hasher:  hasher,
		metrics: recorder,
	}
}

// CreateUserInput defines input for creating a user.
type CreateUserInput struct {
	Email       string
	Password    string
	PublicEmail string
	Name        string
	Bio         string
	Twitter     string
	Facebook    string
	Google      string
	CustomerID  string
}

// CreateUser validates the input, hashes the password and saves a new user.
// The store assigns the UUID and creation date.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if input.Password == "" {
		return nil, ErrPasswordRequired
	}
	if input.PublicEmail != "" {
		if _, err := mail.ParseAddress(input.PublicEmail); err != nil {
			return nil, ErrInvalidEmail
		}
	}

	user := &model.User{
		Email:       email,
		PublicEmail: input.PublicEmail,
		Name:        strings.TrimSpace(input.Name),
		Bio:         input.Bio,
		Twitter:     input.Twitter,
		Facebook:    input.Facebook,
		Google:      input.Google,
		CustomerID:  input.CustomerID,
	}
	if err := user.SetPassword(s.hasher, input.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.store.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncEntityCreated(string(model.KindUser))
	return user, nil
}

// GetUser retrieves a user by UUID.
func (s *UserService) GetUser(ctx context.Context, uuid string) (*model.User, error) {
	user, err := s.store.GetUserByUUID(ctx, uuid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfileInput defines input for updating a user's public profile.
// Nil fields are left unchanged.
type UpdateProfileInput struct {
	UUID        string
	PublicEmail *string
	Name        *string
	Bio         *string
	Twitter     *string
	Facebook    *string
	Google      *string
}

// UpdateProfile changes the public profile fields of a user.
func (s *UserService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*model.User, error) {
	user, err := s.GetUser(ctx, input.UUID)
	if err != nil {
		return nil, err
	}

	if input.PublicEmail != nil {
		if *input.PublicEmail != "" {
			if _, err := mail.ParseAddress(*input.PublicEmail); err != nil {
				return nil, ErrInvalidEmail
			}
		}
		user.PublicEmail = *input.PublicEmail
	}
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Twitter != nil {
		user.Twitter = *input.Twitter
	}
	if input.Facebook != nil {
		user.Facebook = *input.Facebook
	}
	if input.Google != nil {
		user.Google = *input.Google
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.metrics.IncEntityUpdated(string(model.KindUser))
	return user, nil
}

// ChangePassword replaces a user's password.
func (s *UserService) ChangePassword(ctx context.Context, uuid, password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	user, err := s.GetUser(ctx, uuid)
	if err != nil {
		return err
	}
	if err := user.SetPassword(s.hasher, password); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	s.metrics.IncEntityUpdated(string(model.KindUser))
	return nil
}

// VerifyPassword returns the user with the given email if password matches.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) VerifyPassword(ctx context.Context, email, password string) (*model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := user.CheckPassword(s.hasher, password)
	if err != nil {
		if errors.Is(err, model.ErrNoCredential) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
