package dto

import "github.com/taskdeck/taskdeck/internal/model"

// ProfileResponse wraps a profile that may be absent.
type ProfileResponse struct {
	Profile *model.Profile `json:"profile"`
}

// UpsertProfileRequest replaces both profile fields. Omitted fields become
// null.
type UpsertProfileRequest struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

// AvatarResponse is returned by an avatar upload.
type AvatarResponse struct {
	URL string `json:"url"`
}
