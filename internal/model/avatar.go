package model

import (
	"mime"
	"strings"
)

// MaxAvatarBytes is the upload size limit for avatars.
const MaxAvatarBytes = 5 << 20

var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/avif": "avif",
	"image/bmp":  "bmp",
	"image/heic": "heic",
	"image/tiff": "tiff",
}

// ValidateAvatar checks the declared content type and size of an avatar and
// returns the normalized media type.
func ValidateAvatar(contentType string, size int64) (string, error) {
	mediaType, err := AvatarMediaType(contentType)
	if err != nil {
		return "", err
	}
	if size <= 0 {
		return "", ErrAvatarEmpty
	}
	if size > MaxAvatarBytes {
		return "", ErrAvatarTooLarge
	}
	return mediaType, nil
}

// AvatarMediaType parses contentType and accepts raster image types only.
// SVG is rejected since it can carry script.
func AvatarMediaType(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", ErrAvatarContentType
	}
	mediaType = strings.ToLower(mediaType)
	if !strings.HasPrefix(mediaType, "image/") || mediaType == "image/svg+xml" {
		return "", ErrAvatarContentType
	}
	return mediaType, nil
}

// AvatarExtension returns the file extension used for a media type.
func AvatarExtension(mediaType string) string {
	if ext, ok := avatarExtensions[mediaType]; ok {
		return ext
	}
	sub := strings.TrimPrefix(mediaType, "image/")
	if i := strings.IndexAny(sub, "+;"); i >= 0 {
		sub = sub[:i]
	}
	if sub == "" {
		return "img"
	}
	return sub
}
