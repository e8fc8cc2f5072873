package service

import (
	"context"
	"log/slog"

	"github.com/taskdeck/taskdeck/internal/access"
	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/model"
)

// ProfileService reads and upserts the caller's profile.
type ProfileService struct {
	guard   *access.Guard
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(guard *access.Guard, recorder metrics.Recorder, logger *slog.Logger) *ProfileService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{guard: guard, metrics: recorder, logger: logger}
}

// Get returns the caller's profile, or nil when none exists.
func (s *ProfileService) Get(ctx context.Context) (*model.Profile, error) {
	return s.guard.GetProfile(ctx)
}

// Upsert creates the caller's profile or replaces its fields.
func (s *ProfileService) Upsert(ctx context.Context, fields model.ProfileFields) (*model.Profile, error) {
	fields, err := fields.Normalize()
	if err != nil {
		return nil, err
	}

	p, err := s.guard.UpsertProfile(ctx, fields)
	if err != nil {
		return nil, err
	}

	s.metrics.IncProfileUpsert()
	s.logger.InfoContext(ctx, "profile_upserted", "user_id", p.UserID)
	return p, nil
}
