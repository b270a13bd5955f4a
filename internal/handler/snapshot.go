package handler

import (
	"log/slog"
	"net/http"

	"github.com/jrigden/muckamuck/internal/handler/dto"
	"github.com/jrigden/muckamuck/internal/service"
)

// SnapshotHandler exports every entity on demand.
type SnapshotHandler struct {
	export *service.ExportService
	logger *slog.Logger
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(export *service.ExportService, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{export: export, logger: logger}
}

// ExportAll handles POST /api/v1/snapshots.
func (h *SnapshotHandler) ExportAll(w http.ResponseWriter, r *http.Request) {
	summary, err := h.export.ExportAll(r.Context())
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToExportResponse(summary))
}
