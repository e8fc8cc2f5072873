package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/service"
)

// TaskHandler handles HTTP requests for task operations.
type TaskHandler struct {
	svc             *service.TaskService
	defaultPageSize int
	logger          *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc *service.TaskService, defaultPageSize int, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		svc:             svc,
		defaultPageSize: defaultPageSize,
		logger:          logger,
	}
}

// List handles GET /rest/v1/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := model.ParseTaskQuery(r.URL.Query(), h.defaultPageSize)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	page, err := h.svc.List(r.Context(), q)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskListResponse(page))
}

// Counts handles GET /rest/v1/tasks/counts.
func (h *TaskHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Counts(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// Create handles POST /rest/v1/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	task, err := h.svc.Create(r.Context(), req.ToNewTask())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// Get handles GET /rest/v1/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Update handles PATCH /rest/v1/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	task, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req.ToPatch())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Toggle handles POST /rest/v1/tasks/{id}/toggle.
func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /rest/v1/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
