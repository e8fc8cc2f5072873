package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/model"
)

// CreateUser stores a new user. Emails are unique case-insensitively.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return model.ErrEmailTaken
		}
	}

	user.ID = uuid.NewString()
	user.CreatedAt = s.tick()
	c := *user
	s.users[user.ID] = &c
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, model.ErrUserNotFound
}

// CreateSession stores a session record.
func (s *Store) CreateSession(_ context.Context, rec *model.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *rec
	s.sessions[rec.ID] = &c
	return nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(_ context.Context, id string) (*model.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	c := *rec
	return &c, nil
}

// GetSessionByRefreshHash retrieves the session owning a refresh hash.
func (s *Store) GetSessionByRefreshHash(_ context.Context, hash string) (*model.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.sessions {
		if rec.RefreshHash == hash {
			c := *rec
			return &c, nil
		}
	}
	return nil, model.ErrSessionNotFound
}

// RotateSession swaps the refresh hash of an active session once.
func (s *Store) RotateSession(_ context.Context, id, oldHash, newHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok || rec.RefreshHash != oldHash || !rec.Active(s.now()) {
		return model.ErrSessionNotFound
	}
	rec.RefreshHash = newHash
	rec.ExpiresAt = expiresAt
	return nil
}

// RevokeSession marks a session revoked.
func (s *Store) RevokeSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return model.ErrSessionNotFound
	}
	if rec.RevokedAt == nil {
		now := s.now()
		rec.RevokedAt = &now
	}
	return nil
}
