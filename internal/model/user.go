package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Password bounds.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// Lookup errors for the identity provider's own tables. They never reach
// API callers directly.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
)

// User is an identity known to the identity provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller as seen by the data layer.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Session is an issued credential pair for one identity.
type Session struct {
	ID           string    `json:"-"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         Identity  `json:"user"`
}

// Expired reports whether the access token has expired at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionRecord is the persisted side of a session.
type SessionRecord struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	RefreshHash string     `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the session can still be refreshed at now.
func (r *SessionRecord) Active(now time.Time) bool {
	return r.RevokedAt == nil && now.Before(r.ExpiresAt)
}

// AuthEvent is a session change notification.
type AuthEvent string

const (
	AuthEventSignedIn       AuthEvent = "SIGNED_IN"
	AuthEventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	AuthEventSignedOut      AuthEvent = "SIGNED_OUT"
)

// Credentials is an email/password pair.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize lower-cases the email and validates both fields.
func (c Credentials) Normalize() (Credentials, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return Credentials{}, ErrInvalidEmail
	}
	n := utf8.RuneCountInString(c.Password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return Credentials{}, ErrWeakPassword
	}
	return Credentials{Email: email, Password: c.Password}, nil
}
