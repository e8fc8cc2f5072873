// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/middleware"
	"github.com/taskdeck/taskdeck/internal/model"
)

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "ROUTE_NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes the error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: dto.ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: w.Header().Get(middleware.RequestIDHeader),
	}})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errPayloadTooLarge
		}
		return model.ErrInvalidRequestBody
	}
	return nil
}

var errPayloadTooLarge = errors.New("request body too large")

// StatusFor maps an error to its HTTP status by kind.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrAvatarTooLarge), errors.Is(err, errPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError maps service errors to HTTP responses. Server-side
// failures are logged; their detail never reaches the client.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusFor(err)

	if errors.Is(err, errPayloadTooLarge) {
		writeError(w, status, "PAYLOAD_TOO_LARGE", "request body too large")
		return
	}

	var coded *model.Error
	if status >= http.StatusInternalServerError || !errors.As(err, &coded) {
		logger.ErrorContext(r.Context(), "internal_error",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		if errors.As(err, &coded) {
			writeError(w, status, coded.Code, coded.Message)
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", "an internal error occurred")
		return
	}
	writeError(w, status, coded.Code, coded.Message)
}
