package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	nanoid "github.com/jaevor/go-nanoid"

	"github.com/taskdeck/taskdeck/internal/access"
	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/storage"
)

// AvatarPublicPath is the URL path under which avatar objects are served.
const AvatarPublicPath = "/storage/v1/object/public/avatars/"

const avatarSuffixLength = 12

// AvatarService stores avatar images and returns their public URLs.
type AvatarService struct {
	guard   *access.Guard
	store   storage.ObjectStore
	baseURL string
	newID   func() string
	now     func() time.Time
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewAvatarService creates an AvatarService. baseURL is the public origin
// of the API.
func NewAvatarService(guard *access.Guard, store storage.ObjectStore, baseURL string, recorder metrics.Recorder, logger *slog.Logger) (*AvatarService, error) {
	newID, err := nanoid.Standard(avatarSuffixLength)
	if err != nil {
		return nil, fmt.Errorf("init nanoid: %w", err)
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvatarService{
		guard:   guard,
		store:   store,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		newID:   newID,
		now:     time.Now,
		metrics: recorder,
		logger:  logger,
	}, nil
}

// Upload validates and stores an avatar for the caller and returns its
// public URL. The object key is derived from the caller, never from input.
func (s *AvatarService) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	caller, err := s.guard.Caller(ctx)
	if err != nil {
		return "", err
	}

	mediaType, err := model.ValidateAvatar(contentType, int64(len(data)))
	if err != nil {
		s.metrics.IncAvatarUpload("rejected")
		return "", err
	}

	key := s.objectKey(caller.UserID, mediaType)
	if _, err := s.store.Put(ctx, key, data, mediaType); err != nil {
		s.metrics.IncAvatarUpload("failed")
		if !errors.Is(err, model.ErrTransient) {
			err = fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
		}
		return "", err
	}

	s.metrics.IncAvatarUpload("ok")
	s.logger.InfoContext(ctx, "avatar_uploaded", "user_id", caller.UserID, "key", key, "bytes", len(data))
	return s.PublicURL(key), nil
}

// Open returns a stored avatar for public serving.
func (s *AvatarService) Open(ctx context.Context, key string) ([]byte, *storage.ObjectInfo, error) {
	if !validObjectKey(key) {
		return nil, nil, model.ErrObjectNotFound
	}
	return s.store.Get(ctx, key)
}

// PublicURL returns the public URL of an object key.
func (s *AvatarService) PublicURL(key string) string {
	return s.baseURL + AvatarPublicPath + key
}

// objectKey builds <user_id>/<unix-millis>-<nanoid>.<ext>.
func (s *AvatarService) objectKey(userID, mediaType string) string {
	return fmt.Sprintf("%s/%d-%s.%s", userID, s.now().UnixMilli(), s.newID(), model.AvatarExtension(mediaType))
}

// validObjectKey rejects keys that could escape the bucket namespace.
func validObjectKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
