// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/taskdeck/taskdeck/internal/access"
	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/model"
)

// CountsCache caches per-user status counts. A miss is any error.
type CountsCache interface {
	GetCounts(ctx context.Context, userID string) (model.StatusCounts, error)
	SetCounts(ctx context.Context, userID string, counts model.StatusCounts) error
	InvalidateCounts(ctx context.Context, userID string) error
}

// TaskService handles task business logic. Every store call goes through
// the access guard.
type TaskService struct {
	guard   *access.Guard
	counts  CountsCache
	sf      singleflight.Group
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewTaskService creates a TaskService. counts may be nil.
func NewTaskService(guard *access.Guard, counts CountsCache, recorder metrics.Recorder, logger *slog.Logger) *TaskService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		guard:   guard,
		counts:  counts,
		metrics: recorder,
		logger:  logger,
	}
}

// List returns one page of the caller's tasks, newest first. A page past
// the end is empty, not an error.
func (s *TaskService) List(ctx context.Context, q model.TaskQuery) (*model.TaskPage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	tasks, total, err := s.guard.ListTasks(ctx, q)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTaskList(time.Since(start))

	return &model.TaskPage{
		Tasks:    tasks,
		Total:    total,
		Page:     q.Page(),
		PageSize: q.PageSize(),
	}, nil
}

// Create stores a new task for the caller.
func (s *TaskService) Create(ctx context.Context, in model.NewTask) (*model.Task, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
	}
	if err := s.guard.InsertTask(ctx, task); err != nil {
		return nil, err
	}

	s.metrics.IncTaskMutation("create")
	s.invalidateCounts(ctx, task.OwnerID)
	s.logger.InfoContext(ctx, "task_created", "user_id", task.OwnerID, "task_id", task.ID)
	return task, nil
}

// Get returns one of the caller's tasks.
func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.guard.GetTask(ctx, id)
}

// Update applies a partial update. Setting a status the task already has
// is allowed and still advances updated_at.
func (s *TaskService) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	patch, err := patch.Normalize()
	if err != nil {
		return nil, err
	}

	task, err := s.guard.UpdateTask(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.metrics.IncTaskMutation("update")
	if patch.Status != nil {
		s.invalidateCounts(ctx, task.OwnerID)
	}
	return task, nil
}

// Toggle flips a task between pending and completed.
func (s *TaskService) Toggle(ctx context.Context, id string) (*model.Task, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := current.Status.Toggle()
	task, err := s.guard.UpdateTask(ctx, id, model.TaskPatch{Status: &next})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTaskMutation("toggle")
	s.invalidateCounts(ctx, task.OwnerID)
	return task, nil
}

// Delete removes one of the caller's tasks.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := s.guard.DeleteTask(ctx, id); err != nil {
		return err
	}

	s.metrics.IncTaskMutation("delete")
	if caller, err := s.guard.Caller(ctx); err == nil {
		s.invalidateCounts(ctx, caller.UserID)
		s.logger.InfoContext(ctx, "task_deleted", "user_id", caller.UserID, "task_id", id)
	}
	return nil
}

// Counts returns the caller's task tally by status. Results are cached per
// user and concurrent misses share one query.
func (s *TaskService) Counts(ctx context.Context) (model.StatusCounts, error) {
	caller, err := s.guard.Caller(ctx)
	if err != nil {
		return model.StatusCounts{}, err
	}

	if s.counts != nil {
		if counts, err := s.counts.GetCounts(ctx, caller.UserID); err == nil {
			s.metrics.IncCountsCache(true)
			return counts, nil
		}
		s.metrics.IncCountsCache(false)
	}

	v, err, _ := s.sf.Do(caller.UserID, func() (any, error) {
		return s.guard.CountTasks(ctx)
	})
	if err != nil {
		return model.StatusCounts{}, err
	}
	counts := v.(model.StatusCounts)

	if s.counts != nil {
		if err := s.counts.SetCounts(ctx, caller.UserID, counts); err != nil {
			s.logger.WarnContext(ctx, "counts_cache_set_failed", "user_id", caller.UserID, "reason", err.Error())
		}
	}
	return counts, nil
}

func (s *TaskService) invalidateCounts(ctx context.Context, userID string) {
	if s.counts == nil || userID == "" {
		return
	}
	if err := s.counts.InvalidateCounts(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "counts_cache_invalidate_failed", "user_id", userID, "reason", err.Error())
	}
}

// validateID rejects ids that cannot name a row. Malformed ids would
// otherwise surface as a database cast error.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.ErrInvalidID
	}
	return nil
}

// IsRetryable reports whether err is transient and op is safe to repeat.
func IsRetryable(op model.Operation, err error) bool {
	return errors.Is(err, model.ErrTransient) && model.Retryable(op)
}
