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

// SiteHandler handles HTTP requests for site operations.
type SiteHandler struct {
	sites  *service.SiteService
	export *service.ExportService
	logger *slog.Logger
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(sites *service.SiteService, export *service.ExportService, logger *slog.Logger) *SiteHandler {
	return &SiteHandler{
		sites:  sites,
		export: export,
		logger: logger,
	}
}

// Create handles POST /api/v1/sites.
func (h *SiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSiteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	site, err := h.sites.CreateSite(r.Context(), service.CreateSiteInput{
		Domain:            req.Domain,
		Title:             req.Title,
		Description:       req.Description,
		Language:          req.Language,
		SubscriptionLevel: req.SubscriptionLevel,
		OwnerUUID:         req.Owner,
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("site_created",
		"uuid", site.UUID,
		"domain", site.Domain,
		"owner", site.OwnerUUID,
	)

	writeJSON(w, http.StatusCreated, dto.ToCreatedResponse(model.KindSite, site.UUID, site.CreatedDate))
}

// Get handles GET /api/v1/sites/{uuid}.
func (h *SiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	site, err := h.sites.GetSite(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	doc, err := snapshot.RedactSite(*site)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Update handles PATCH /api/v1/sites/{uuid}.
func (h *SiteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSiteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	site, err := h.sites.UpdateSite(r.Context(), service.UpdateSiteInput{
		UUID:              chi.URLParam(r, "uuid"),
		Domain:            req.Domain,
		Title:             req.Title,
		Description:       req.Description,
		Language:          req.Language,
		SubscriptionLevel: req.SubscriptionLevel,
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	doc, err := snapshot.RedactSite(*site)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Snapshot handles POST /api/v1/sites/{uuid}/snapshot.
func (h *SiteHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	res, err := h.export.ExportSite(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("site_snapshot_written", "uuid", res.UUID, "changed", res.Changed)

	writeJSON(w, http.StatusOK, dto.ToSnapshotResponse(res))
}
