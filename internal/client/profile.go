package client

import (
	"context"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/model"
)

// GetProfile returns the caller's profile, or nil, nil when none exists.
func (c *Client) GetProfile(ctx context.Context) (*model.Profile, error) {
	var resp dto.ProfileResponse
	err := c.do(ctx, request{
		op:     model.OpGetProfile,
		method: http.MethodGet,
		path:   "/rest/v1/profile",
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

// UpsertProfile creates the caller's profile or replaces both fields.
func (c *Client) UpsertProfile(ctx context.Context, fields model.ProfileFields) error {
	fields, err := fields.Normalize()
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		op:     model.OpUpsertProfile,
		method: http.MethodPut,
		path:   "/rest/v1/profile",
		body:   dto.UpsertProfileRequest{Name: fields.Name, AvatarURL: fields.AvatarURL},
		auth:   true,
	}, nil)
}

// UploadAvatar stores an avatar image and returns its public URL. Type and
// size are checked before anything is sent. The profile is not changed;
// pass the URL to UpsertProfile.
func (c *Client) UploadAvatar(ctx context.Context, data []byte, contentType string) (string, error) {
	mediaType, err := model.ValidateAvatar(contentType, int64(len(data)))
	if err != nil {
		return "", err
	}

	var resp dto.AvatarResponse
	err = c.do(ctx, request{
		op:          model.OpUploadAvatar,
		method:      http.MethodPost,
		path:        "/storage/v1/avatars",
		rawBody:     data,
		contentType: mediaType,
		auth:        true,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}
