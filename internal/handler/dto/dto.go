// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/jrigden/muckamuck/internal/model"
	"github.com/jrigden/muckamuck/internal/service"
	"github.com/jrigden/muckamuck/internal/snapshot"
)

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PublicEmail string `json:"public_email,omitempty"`
	Name        string `json:"name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Facebook    string `json:"facebook,omitempty"`
	Google      string `json:"google,omitempty"`
}

// UpdateUserRequest represents the request body for updating a user profile.
type UpdateUserRequest struct {
	PublicEmail *string `json:"public_email,omitempty"`
	Name        *string `json:"name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Twitter     *string `json:"twitter,omitempty"`
	Facebook    *string `json:"facebook,omitempty"`
	Google      *string `json:"google,omitempty"`
}

// ChangePasswordRequest represents the request body for changing a password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// CreateSiteRequest represents the request body for creating a site.
type CreateSiteRequest struct {
	Domain            string `json:"domain"`
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	Language          string `json:"language,omitempty"`
	SubscriptionLevel string `json:"subscription_level,omitempty"`
	Owner             string `json:"owner"`
}

// UpdateSiteRequest represents the request body for updating a site.
// Ownership cannot be changed.
type UpdateSiteRequest struct {
	Domain            *string `json:"domain,omitempty"`
	Title             *string `json:"title,omitempty"`
	Description       *string `json:"description,omitempty"`
	Language          *string `json:"language,omitempty"`
	SubscriptionLevel *string `json:"subscription_level,omitempty"`
}

// CreatedResponse is returned after an entity is created.
type CreatedResponse struct {
	UUID        string    `json:"uuid"`
	Kind        string    `json:"kind"`
	CreatedDate time.Time `json:"created_date"`
}

// SnapshotResponse describes a written snapshot.
type SnapshotResponse struct {
	Kind    string `json:"kind"`
	UUID    string `json:"uuid"`
	Path    string `json:"path"`
	Size    int    `json:"size"`
	Changed bool   `json:"changed"`
}

// ExportResponse summarises an export of every entity.
type ExportResponse struct {
	RunID      string `json:"run_id"`
	Users      int    `json:"users"`
	Sites      int    `json:"sites"`
	Changed    int    `json:"changed"`
	DurationMs int64  `json:"duration_ms"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Stage string `json:"stage,omitempty"`
}

// ToCreatedResponse converts a stored entity to a CreatedResponse.
func ToCreatedResponse(kind model.Kind, uuid string, created time.Time) *CreatedResponse {
	return &CreatedResponse{UUID: uuid, Kind: string(kind), CreatedDate: created}
}

// ToSnapshotResponse converts a writer result to a SnapshotResponse.
func ToSnapshotResponse(res *snapshot.Result) *SnapshotResponse {
	return &SnapshotResponse{
		Kind:    string(res.Kind),
		UUID:    res.UUID,
		Path:    res.Path,
		Size:    res.Size,
		Changed: res.Changed,
	}
}

// ToExportResponse converts an export summary to an ExportResponse.
func ToExportResponse(s *service.ExportSummary) *ExportResponse {
	return &ExportResponse{
		RunID:      s.RunID,
		Users:      s.Users,
		Sites:      s.Sites,
		Changed:    s.Changed,
		DurationMs: s.Duration.Milliseconds(),
	}
}
