package model

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Profile limits.
const (
	MaxNameLength      = 100
	MaxAvatarURLLength = 2048
)

// Profile is the single per-user profile row.
type Profile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      *string   `json:"name"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileFields are the replaceable profile columns. Nil means null.
type ProfileFields struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

// Normalize trims both fields, maps blanks to nil and validates them.
func (f ProfileFields) Normalize() (ProfileFields, error) {
	var out ProfileFields
	if f.Name != nil {
		name := strings.TrimSpace(*f.Name)
		if utf8.RuneCountInString(name) > MaxNameLength {
			return ProfileFields{}, ErrNameTooLong
		}
		if name != "" {
			out.Name = &name
		}
	}
	if f.AvatarURL != nil {
		raw := strings.TrimSpace(*f.AvatarURL)
		if raw != "" {
			if err := validateAvatarURL(raw); err != nil {
				return ProfileFields{}, err
			}
			out.AvatarURL = &raw
		}
	}
	return out, nil
}

func validateAvatarURL(raw string) error {
	if len(raw) > MaxAvatarURLLength {
		return ErrInvalidAvatarURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidAvatarURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidAvatarURL
	}
	if u.Host == "" {
		return ErrInvalidAvatarURL
	}
	return nil
}
