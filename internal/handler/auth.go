package handler

import (
	"log/slog"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/middleware"
	"github.com/taskdeck/taskdeck/internal/model"
)

// AuthHandler exposes the identity provider.
type AuthHandler struct {
	provider *auth.Provider
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(provider *auth.Provider, recorder metrics.Recorder, logger *slog.Logger) *AuthHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthHandler{provider: provider, metrics: recorder, logger: logger}
}

// SignUp handles POST /auth/v1/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	session, err := h.provider.SignUp(r.Context(), model.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		h.metrics.IncAuthAttempt("signup", "failure")
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.metrics.IncAuthAttempt("signup", "success")
	h.logger.InfoContext(r.Context(), "user_signed_up", "user_id", session.User.UserID)
	writeJSON(w, http.StatusCreated, session)
}

// SignIn handles POST /auth/v1/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	session, err := h.provider.SignIn(r.Context(), model.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		h.metrics.IncAuthAttempt("signin", "failure")
		if model.Code(err) == model.ErrInvalidCredentials.Code {
			h.logger.WarnContext(r.Context(), "auth_failed",
				"reason", "invalid_credentials",
				"request_id", middleware.GetRequestID(r.Context()),
			)
		}
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.metrics.IncAuthAttempt("signin", "success")
	h.logger.InfoContext(r.Context(), "user_signed_in", "user_id", session.User.UserID)
	writeJSON(w, http.StatusOK, session)
}

// Refresh handles POST /auth/v1/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	session, err := h.provider.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.metrics.IncAuthAttempt("refresh", "failure")
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.metrics.IncAuthAttempt("refresh", "success")
	writeJSON(w, http.StatusOK, session)
}

// SignOut handles POST /auth/v1/signout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.provider.SignOut(r.Context(), auth.SessionIDFromContext(r.Context())); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user_signed_out", "user_id", auth.UserIDFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// User handles GET /auth/v1/user.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		handleServiceError(w, r, h.logger, model.ErrNoSession)
		return
	}
	writeJSON(w, http.StatusOK, dto.UserResponse{User: id})
}
