package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jrigden/muckamuck/internal/handler/dto"
	"github.com/jrigden/muckamuck/internal/model"
	"github.com/jrigden/muckamuck/internal/service"
	"github.com/jrigden/muckamuck/internal/snapshot"
)

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	users  *service.UserService
	sites  *service.SiteService
	export *service.ExportService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, sites *service.SiteService, export *service.ExportService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		sites:  sites,
		export: export,
		logger: logger,
	}
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.CreateUser(r.Context(), service.CreateUserInput{
		Email:       req.Email,
		Password:    req.Password,
		PublicEmail: req.PublicEmail,
		Name:        req.Name,
		Bio:         req.Bio,
		Twitter:     req.Twitter,
		Facebook:    req.Facebook,
		Google:      req.Google,
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("user_created", "uuid", user.UUID)

	writeJSON(w, http.StatusCreated, dto.ToCreatedResponse(model.KindUser, user.UUID, user.CreatedDate))
}

// Get handles GET /api/v1/users/{uuid}. The response is the same redacted
// document the snapshot contains.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	doc, err := snapshot.RedactUser(*user)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Update handles PATCH /api/v1/users/{uuid}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), service.UpdateProfileInput{
		UUID:        chi.URLParam(r, "uuid"),
		PublicEmail: req.PublicEmail,
		Name:        req.Name,
		Bio:         req.Bio,
		Twitter:     req.Twitter,
		Facebook:    req.Facebook,
		Google:      req.Google,
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	doc, err := snapshot.RedactUser(*user)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ChangePassword handles PUT /api/v1/users/{uuid}/password. The current
// password must match before the new one is stored.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	verified, err := h.users.VerifyPassword(r.Context(), user.Email, req.CurrentPassword)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	if verified.UUID != user.UUID {
		handleServiceError(h.logger, w, service.ErrInvalidCredentials)
		return
	}

	if err := h.users.ChangePassword(r.Context(), user.UUID, req.NewPassword); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("user_password_changed", "uuid", user.UUID)

	w.WriteHeader(http.StatusNoContent)
}

// ListSites handles GET /api/v1/users/{uuid}/sites.
func (h *UserHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	sites, err := h.sites.ListSitesByOwner(r.Context(), user.UUID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	docs := make([]snapshot.Document, 0, len(sites))
	for _, site := range sites {
		doc, err := snapshot.RedactSite(*site)
		if err != nil {
			handleServiceError(h.logger, w, err)
			return
		}
		docs = append(docs, doc)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": docs})
}

// Snapshot handles POST /api/v1/users/{uuid}/snapshot.
func (h *UserHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	res, err := h.export.ExportUser(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("user_snapshot_written", "uuid", res.UUID, "changed", res.Changed)

	writeJSON(w, http.StatusOK, dto.ToSnapshotResponse(res))
}
