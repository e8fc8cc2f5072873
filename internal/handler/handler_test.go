package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/model"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrTitleRequired, http.StatusBadRequest},
		{model.ErrAvatarTooLarge, http.StatusRequestEntityTooLarge},
		{model.ErrAvatarContentType, http.StatusBadRequest},
		{model.ErrSessionExpired, http.StatusUnauthorized},
		{model.ErrOwnerMismatch, http.StatusForbidden},
		{fmt.Errorf("get: %w", model.ErrTaskNotFound), http.StatusNotFound},
		{model.ErrEmailTaken, http.StatusConflict},
		{fmt.Errorf("%w: dial tcp: refused", model.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHandleServiceError_HidesInternalDetail(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"plain error", errors.New("pq: relation tasks does not exist"), http.StatusInternalServerError, "INTERNAL"},
		{"transient", fmt.Errorf("%w: redis down", model.ErrStoreUnavailable), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"validation", model.ErrSearchTooLong, http.StatusBadRequest, "SEARCH_TOO_LONG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), logger, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
			}
			if body.Error.Message == tt.err.Error() && tt.wantStatus >= 500 {
				t.Errorf("internal detail leaked: %q", body.Error.Message)
			}
		})
	}
}
