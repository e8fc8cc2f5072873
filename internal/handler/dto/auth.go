package dto

import "github.com/taskdeck/taskdeck/internal/model"

// CredentialsRequest is the body of sign-up and sign-in.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of a token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse wraps the current identity.
type UserResponse struct {
	User *model.Identity `json:"user"`
}
