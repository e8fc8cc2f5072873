package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/model"
)

// Authenticator resolves an access token to an identity and session ID.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.Identity, string, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
}

// Auth returns a middleware that authenticates requests with a bearer
// access token and injects the identity into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeModelError(w, http.StatusUnauthorized, model.ErrNoSession)
				return
			}

			id, sessionID, err := cfg.Authenticator.Authenticate(r.Context(), token)
			if err != nil {
				var coded *model.Error
				switch {
				case errors.Is(err, model.ErrAuthentication) && errors.As(err, &coded):
					logAuthFailure(cfg.Logger, r, strings.ToLower(coded.Code))
					writeModelError(w, http.StatusUnauthorized, coded)
				default:
					cfg.Logger.Error("authentication backend error",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					writeModelError(w, http.StatusServiceUnavailable, model.ErrStoreUnavailable)
				}
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), id, sessionID)
			recordIdentity(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("auth_failed",
		slog.String("reason", reason),
		slog.String("ip", getClientIP(r)),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

func writeModelError(w http.ResponseWriter, status int, e *model.Error) {
	writeError(w, status, e.Code, e.Message)
}
