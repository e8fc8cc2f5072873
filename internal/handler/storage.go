package handler

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/service"
)

// StorageHandler uploads and serves avatar objects.
type StorageHandler struct {
	svc    *service.AvatarService
	logger *slog.Logger
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(svc *service.AvatarService, logger *slog.Logger) *StorageHandler {
	return &StorageHandler{svc: svc, logger: logger}
}

// UploadAvatar handles POST /storage/v1/avatars. The body is the raw image
// and Content-Type names its media type.
func (h *StorageHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	// One byte past the limit is enough to tell an oversized body apart.
	data, err := io.ReadAll(io.LimitReader(r.Body, model.MaxAvatarBytes+1))
	if err != nil {
		handleServiceError(w, r, h.logger, model.ErrInvalidRequestBody)
		return
	}

	url, err := h.svc.Upload(r.Context(), data, r.Header.Get("Content-Type"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.AvatarResponse{URL: url})
}

// ServeAvatar handles GET /storage/v1/object/public/avatars/*.
func (h *StorageHandler) ServeAvatar(w http.ResponseWriter, r *http.Request) {
	data, info, err := h.svc.Open(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", info.ContentType)
	// Keys are never reused, so the content behind a URL never changes.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, info.Name, info.ModTime, bytes.NewReader(data))
}
