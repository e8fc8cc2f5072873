package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
)

// Recoverer turns a handler panic into a 500 INTERNAL envelope and a
// panic_recovered log event. If the handler already started its response
// the status line cannot change, so only the log is written.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				attrs := []slog.Attr{
					slog.String("event", "panic_recovered"),
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("method", r.Method),
					slog.String("route", routePattern(r)),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				}
				if userID := recordedUserID(r.Context()); userID != "" {
					attrs = append(attrs, slog.String("user_id", userID))
				}
				logger.LogAttrs(r.Context(), slog.LevelError, "panic recovered", attrs...)

				if rw, ok := w.(*responseWriter); ok && rw.wroteHeader {
					return
				}
				writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}

// recordedUserID returns the caller Auth recorded for an enclosing Logger.
func recordedUserID(ctx context.Context) string {
	if h, ok := ctx.Value(identityHolderKey).(*identityHolder); ok {
		return h.userID
	}
	return ""
}
