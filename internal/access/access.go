// Package access enforces owner scoping on every task and profile operation.
//
// Stores implement Backend with the owner passed explicitly. Services never
// see a Backend: they hold a *Guard, which resolves the owner from the
// request identity, refuses anonymous calls and drops any row the backend
// returns for a different owner.
package access

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/model"
)

// TaskBackend is an owner-explicit task store.
type TaskBackend interface {
	ListTasks(ctx context.Context, ownerID string, q model.TaskQuery) ([]*model.Task, int, error)
	CountTasksByStatus(ctx context.Context, ownerID string) (model.StatusCounts, error)
	GetTask(ctx context.Context, ownerID, id string) (*model.Task, error)
	InsertTask(ctx context.Context, ownerID string, task *model.Task) error
	UpdateTask(ctx context.Context, ownerID, id string, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) error
}

// ProfileBackend is an owner-explicit profile store. GetProfile returns
// nil, nil when the owner has no profile.
type ProfileBackend interface {
	GetProfile(ctx context.Context, ownerID string) (*model.Profile, error)
	UpsertProfile(ctx context.Context, ownerID string, fields model.ProfileFields) (*model.Profile, error)
}

// Backend is the full owner-explicit store.
type Backend interface {
	TaskBackend
	ProfileBackend
}

// Guard wraps a Backend and scopes every call to the caller.
type Guard struct {
	backend Backend
}

// New returns a Guard over backend.
func New(backend Backend) *Guard {
	return &Guard{backend: backend}
}

// Caller returns the identity of the request, or ErrNoSession.
func (g *Guard) Caller(ctx context.Context) (*model.Identity, error) {
	id := auth.IdentityFromContext(ctx)
	if id == nil || id.UserID == "" {
		return nil, model.ErrNoSession
	}
	return id, nil
}

// scoped runs fn with the caller's user ID. Every Guard method goes through
// it.
func scoped[T any](ctx context.Context, g *Guard, fn func(ownerID string) (T, error)) (T, error) {
	var zero T
	id, err := g.Caller(ctx)
	if err != nil {
		return zero, err
	}
	return fn(id.UserID)
}

// ListTasks returns the caller's page of tasks and the matching total.
func (g *Guard) ListTasks(ctx context.Context, q model.TaskQuery) ([]*model.Task, int, error) {
	type page struct {
		tasks []*model.Task
		total int
	}
	p, err := scoped(ctx, g, func(owner string) (page, error) {
		tasks, total, err := g.backend.ListTasks(ctx, owner, q)
		if err != nil {
			return page{}, err
		}
		owned := make([]*model.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.OwnerID == owner {
				owned = append(owned, t)
			}
		}
		return page{tasks: owned, total: total}, nil
	})
	return p.tasks, p.total, err
}

// CountTasks tallies the caller's tasks by status.
func (g *Guard) CountTasks(ctx context.Context) (model.StatusCounts, error) {
	return scoped(ctx, g, func(owner string) (model.StatusCounts, error) {
		return g.backend.CountTasksByStatus(ctx, owner)
	})
}

// GetTask returns one of the caller's tasks.
func (g *Guard) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return scoped(ctx, g, func(owner string) (*model.Task, error) {
		return ownedTask(owner)(g.backend.GetTask(ctx, owner, id))
	})
}

// InsertTask stores task for the caller. An empty OwnerID is filled in; any
// other owner is rejected with ErrOwnerMismatch.
func (g *Guard) InsertTask(ctx context.Context, task *model.Task) error {
	_, err := scoped(ctx, g, func(owner string) (struct{}, error) {
		if task.OwnerID == "" {
			task.OwnerID = owner
		}
		if task.OwnerID != owner {
			return struct{}{}, model.ErrOwnerMismatch
		}
		return struct{}{}, g.backend.InsertTask(ctx, owner, task)
	})
	return err
}

// UpdateTask patches one of the caller's tasks.
func (g *Guard) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	return scoped(ctx, g, func(owner string) (*model.Task, error) {
		return ownedTask(owner)(g.backend.UpdateTask(ctx, owner, id, patch))
	})
}

// DeleteTask removes one of the caller's tasks.
func (g *Guard) DeleteTask(ctx context.Context, id string) error {
	_, err := scoped(ctx, g, func(owner string) (struct{}, error) {
		return struct{}{}, g.backend.DeleteTask(ctx, owner, id)
	})
	return err
}

// GetProfile returns the caller's profile or nil.
func (g *Guard) GetProfile(ctx context.Context) (*model.Profile, error) {
	return scoped(ctx, g, func(owner string) (*model.Profile, error) {
		p, err := g.backend.GetProfile(ctx, owner)
		if err != nil || p == nil {
			return nil, err
		}
		if p.UserID != owner {
			return nil, nil
		}
		return p, nil
	})
}

// UpsertProfile creates or replaces the caller's profile.
func (g *Guard) UpsertProfile(ctx context.Context, fields model.ProfileFields) (*model.Profile, error) {
	return scoped(ctx, g, func(owner string) (*model.Profile, error) {
		p, err := g.backend.UpsertProfile(ctx, owner, fields)
		if err != nil {
			return nil, err
		}
		if p.UserID != owner {
			return nil, model.ErrOwnerMismatch
		}
		return p, nil
	})
}

// ownedTask hides a row returned for another owner behind ErrTaskNotFound.
func ownedTask(owner string) func(*model.Task, error) (*model.Task, error) {
	return func(t *model.Task, err error) (*model.Task, error) {
		if err != nil {
			return nil, err
		}
		if t == nil || t.OwnerID != owner {
			return nil, model.ErrTaskNotFound
		}
		return t, nil
	}
}
