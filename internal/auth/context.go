// Package auth implements the identity provider: password hashing, access
// and refresh tokens, sessions and the request identity context.
package auth

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	identityContextKey contextKey = "identity"
	sessionContextKey  contextKey = "session_id"
)

// ContextWithIdentity adds the authenticated identity and its session ID to
// the context.
func ContextWithIdentity(ctx context.Context, id *model.Identity, sessionID string) context.Context {
	ctx = context.WithValue(ctx, identityContextKey, id)
	return context.WithValue(ctx, sessionContextKey, sessionID)
}

// IdentityFromContext retrieves the identity from the context.
// Returns nil if not present.
func IdentityFromContext(ctx context.Context) *model.Identity {
	id, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok {
		return nil
	}
	return id
}

// UserIDFromContext is a convenience function to get user ID from context.
// Returns empty string if not authenticated.
func UserIDFromContext(ctx context.Context) string {
	id := IdentityFromContext(ctx)
	if id == nil {
		return ""
	}
	return id.UserID
}

// SessionIDFromContext returns the session ID the request authenticated
// with, or empty string.
func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionContextKey).(string)
	return sid
}
