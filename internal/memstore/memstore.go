// Package memstore is an in-memory implementation of the task, profile,
// user and session stores. It applies the same owner predicates as the
// Postgres row-level policies and is used by tests and local runs.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/model"
)

// Store holds all rows in maps guarded by one RWMutex. Rows are copied on
// the way in and out.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	last     time.Time
	tasks    map[string]*model.Task
	profiles map[string]*model.Profile // by user ID
	users    map[string]*model.User
	sessions map[string]*model.SessionRecord
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		tasks:    make(map[string]*model.Task),
		profiles: make(map[string]*model.Profile),
		users:    make(map[string]*model.User),
		sessions: make(map[string]*model.SessionRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// tick returns a timestamp strictly after every earlier one. Callers hold
// the write lock.
func (s *Store) tick() time.Time {
	t := s.now().UTC().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// ListTasks returns one page of the owner's tasks, newest first.
func (s *Store) ListTasks(_ context.Context, ownerID string, q model.TaskQuery) ([]*model.Task, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := q.Status().Status()
	search := strings.ToLower(q.Search())

	var matched []*model.Task
	for _, t := range s.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		if search != "" && !matchesSearch(t, search) {
			continue
		}
		matched = append(matched, t)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	total := len(matched)
	start := q.Offset()
	if start >= total {
		return []*model.Task{}, total, nil
	}
	end := min(start+q.PageSize(), total)

	page := make([]*model.Task, 0, end-start)
	for _, t := range matched[start:end] {
		page = append(page, copyTask(t))
	}
	return page, total, nil
}

func matchesSearch(t *model.Task, lowered string) bool {
	if strings.Contains(strings.ToLower(t.Title), lowered) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), lowered)
}

// CountTasksByStatus tallies the owner's tasks.
func (s *Store) CountTasksByStatus(_ context.Context, ownerID string) (model.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts model.StatusCounts
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			counts.Add(t.Status, 1)
		}
	}
	return counts, nil
}

// GetTask returns one of the owner's tasks.
func (s *Store) GetTask(_ context.Context, ownerID, id string) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, model.ErrTaskNotFound
	}
	return copyTask(t), nil
}

// InsertTask stores task for ownerID and fills in ID and timestamps.
func (s *Store) InsertTask(_ context.Context, ownerID string, task *model.Task) error {
	if task.OwnerID != ownerID {
		return model.ErrOwnerMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	task.ID = uuid.NewString()
	if task.Status == "" {
		task.Status = model.TaskStatusPending
	}
	task.CreatedAt = now
	task.UpdatedAt = now
	s.tasks[task.ID] = copyTask(task)
	return nil
}

// UpdateTask applies patch to one of the owner's tasks.
func (s *Store) UpdateTask(_ context.Context, ownerID, id string, patch model.TaskPatch) (*model.Task, error) {
	if patch.IsEmpty() {
		return nil, model.ErrEmptyPatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, model.ErrTaskNotFound
	}

	updated := patch.Apply(*t)
	updated.UpdatedAt = s.tick()
	s.tasks[id] = &updated
	return copyTask(&updated), nil
}

// DeleteTask removes one of the owner's tasks.
func (s *Store) DeleteTask(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return model.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

// GetProfile returns the owner's profile or nil.
func (s *Store) GetProfile(_ context.Context, ownerID string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[ownerID]
	if !ok {
		return nil, nil
	}
	return copyProfile(p), nil
}

// UpsertProfile inserts or replaces the owner's profile.
func (s *Store) UpsertProfile(_ context.Context, ownerID string, fields model.ProfileFields) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	p, ok := s.profiles[ownerID]
	if !ok {
		p = &model.Profile{
			ID:        uuid.NewString(),
			UserID:    ownerID,
			CreatedAt: now,
		}
		s.profiles[ownerID] = p
	}
	p.Name = copyString(fields.Name)
	p.AvatarURL = copyString(fields.AvatarURL)
	p.UpdatedAt = now
	return copyProfile(p), nil
}

func copyTask(t *model.Task) *model.Task {
	c := *t
	c.Description = copyString(t.Description)
	return &c
}

func copyProfile(p *model.Profile) *model.Profile {
	c := *p
	c.Name = copyString(p.Name)
	c.AvatarURL = copyString(p.AvatarURL)
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
