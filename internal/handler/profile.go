package handler

import (
	"log/slog"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/service"
)

// ProfileHandler serves the caller's profile.
type ProfileHandler struct {
	svc    *service.ProfileService
	logger *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

// Get handles GET /rest/v1/profile. A missing profile is not an error.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ProfileResponse{Profile: p})
}

// Upsert handles PUT /rest/v1/profile.
func (h *ProfileHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req dto.UpsertProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	p, err := h.svc.Upsert(r.Context(), model.ProfileFields{Name: req.Name, AvatarURL: req.AvatarURL})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ProfileResponse{Profile: p})
}
