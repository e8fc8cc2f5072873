package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/model"
)

// ListTasks returns one page of the caller's tasks.
func (c *Client) ListTasks(ctx context.Context, q model.TaskQuery) (*model.TaskPage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var resp dto.TaskListResponse
	err := c.do(ctx, request{
		op:     model.OpListTasks,
		method: http.MethodGet,
		path:   "/rest/v1/tasks?" + q.Values().Encode(),
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.ToTaskPage(), nil
}

// TaskCounts returns the caller's task tally by status.
func (c *Client) TaskCounts(ctx context.Context) (model.StatusCounts, error) {
	var counts model.StatusCounts
	err := c.do(ctx, request{
		op:     model.OpCountTasks,
		method: http.MethodGet,
		path:   "/rest/v1/tasks/counts",
		auth:   true,
	}, &counts)
	return counts, err
}

// CreateTask creates a task and returns the stored row.
func (c *Client) CreateTask(ctx context.Context, in model.NewTask) (*model.Task, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	var task model.Task
	err = c.do(ctx, request{
		op:     model.OpCreateTask,
		method: http.MethodPost,
		path:   "/rest/v1/tasks",
		body:   dto.NewCreateTaskRequest(in),
		auth:   true,
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask returns one task.
func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	var task model.Task
	err := c.do(ctx, request{
		op:     model.OpGetTask,
		method: http.MethodGet,
		path:   taskPath(id),
		auth:   true,
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	_, err := c.UpdateTaskReturning(ctx, id, patch)
	return err
}

// UpdateTaskReturning applies a partial update and returns the stored row.
func (c *Client) UpdateTaskReturning(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	patch, err := patch.Normalize()
	if err != nil {
		return nil, err
	}

	var task model.Task
	err = c.do(ctx, request{
		op:     model.OpUpdateTask,
		method: http.MethodPatch,
		path:   taskPath(id),
		body:   dto.NewUpdateTaskRequest(patch),
		auth:   true,
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ToggleTask flips a task between pending and completed. It is not safe to
// repeat after a transient failure: the first call may have landed.
func (c *Client) ToggleTask(ctx context.Context, id string) (*model.Task, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	var task model.Task
	err := c.do(ctx, request{
		op:     model.OpToggleTask,
		method: http.MethodPost,
		path:   taskPath(id) + "/toggle",
		auth:   true,
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return c.do(ctx, request{
		op:     model.OpDeleteTask,
		method: http.MethodDelete,
		path:   taskPath(id),
		auth:   true,
	}, nil)
}

func taskPath(id string) string {
	return "/rest/v1/tasks/" + url.PathEscape(id)
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.ErrInvalidID
	}
	return nil
}
