package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jrigden/muckamuck/internal/handler/dto"
	"github.com/jrigden/muckamuck/internal/service"
	"github.com/jrigden/muckamuck/internal/snapshot"
)

// handleServiceError maps service and snapshot errors to HTTP responses.
func handleServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrSiteNotFound):
		writeError(w, http.StatusNotFound, "SITE_NOT_FOUND", "Site not found")
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email already exists")
	case errors.Is(err, service.ErrDomainExists):
		writeError(w, http.StatusConflict, "DOMAIN_TAKEN", "Domain already exists")
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
	case errors.Is(err, service.ErrInvalidDomain):
		writeError(w, http.StatusBadRequest, "INVALID_DOMAIN", "Invalid domain")
	case errors.Is(err, service.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, "TITLE_REQUIRED", "Title is required")
	case errors.Is(err, service.ErrPasswordRequired):
		writeError(w, http.StatusBadRequest, "PASSWORD_REQUIRED", "Password is required")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, snapshot.ErrReference):
		writeSnapshotError(w, http.StatusUnprocessableEntity, "OWNER_NOT_FOUND", "Site owner not found", err)
	case errors.Is(err, snapshot.ErrEncoding):
		writeSnapshotError(w, http.StatusUnprocessableEntity, "ENCODING_ERROR", "Entity cannot be exported", err)
	case errors.Is(err, snapshot.ErrPathConflict):
		logger.Error("snapshot_path_conflict", "error", err)
		writeSnapshotError(w, http.StatusConflict, "PATH_CONFLICT", "Snapshot path is occupied", err)
	case errors.Is(err, snapshot.ErrIO):
		logger.Error("snapshot_io_error", "error", err)
		writeSnapshotError(w, http.StatusServiceUnavailable, "IO_ERROR", "Snapshot could not be written", err)
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

func writeSnapshotError(w http.ResponseWriter, status int, code, message string, err error) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
		Stage: string(snapshot.StageOf(err)),
	})
}
