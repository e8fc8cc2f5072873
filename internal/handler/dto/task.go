// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"bytes"
	"encoding/json"

	"github.com/taskdeck/taskdeck/internal/model"
)

// CreateTaskRequest represents the request body for creating a task.
type CreateTaskRequest struct {
	Title       string           `json:"title"`
	Description *string          `json:"description,omitempty"`
	Status      model.TaskStatus `json:"status,omitempty"`
}

// ToNewTask converts the request to model input.
func (r CreateTaskRequest) ToNewTask() model.NewTask {
	return model.NewTask{Title: r.Title, Description: r.Description, Status: r.Status}
}

// NewCreateTaskRequest builds the wire form of a model.NewTask.
func NewCreateTaskRequest(in model.NewTask) CreateTaskRequest {
	return CreateTaskRequest{Title: in.Title, Description: in.Description, Status: in.Status}
}

// UpdateTaskRequest represents the request body for a partial task update.
// An absent field is left unchanged; "description": null clears it.
type UpdateTaskRequest struct {
	Title       *string
	Description NullableString
	Status      *model.TaskStatus
}

// NullableString distinguishes an absent JSON field from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only called when the key is present.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

type updateTaskWire struct {
	Title       *string           `json:"title,omitempty"`
	Description NullableString    `json:"description"`
	Status      *model.TaskStatus `json:"status,omitempty"`
}

// UnmarshalJSON decodes the request body.
func (r *UpdateTaskRequest) UnmarshalJSON(data []byte) error {
	var w updateTaskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = UpdateTaskRequest{Title: w.Title, Description: w.Description, Status: w.Status}
	return nil
}

// MarshalJSON omits Description unless it is Set.
func (r UpdateTaskRequest) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 3)
	if r.Title != nil {
		m["title"] = *r.Title
	}
	if r.Description.Set {
		m["description"] = r.Description.Value
	}
	if r.Status != nil {
		m["status"] = *r.Status
	}
	return json.Marshal(m)
}

// ToPatch converts the request to a model patch.
func (r UpdateTaskRequest) ToPatch() model.TaskPatch {
	p := model.TaskPatch{Title: r.Title, Status: r.Status}
	if r.Description.Set {
		if r.Description.Value == nil {
			p.ClearDescription = true
		} else {
			p.Description = r.Description.Value
		}
	}
	return p
}

// NewUpdateTaskRequest builds the wire form of a model.TaskPatch.
func NewUpdateTaskRequest(p model.TaskPatch) UpdateTaskRequest {
	r := UpdateTaskRequest{Title: p.Title, Status: p.Status}
	switch {
	case p.ClearDescription:
		r.Description = NullableString{Set: true}
	case p.Description != nil:
		r.Description = NullableString{Set: true, Value: p.Description}
	}
	return r
}

// TaskListResponse is one page of tasks.
type TaskListResponse struct {
	Tasks     []*model.Task `json:"tasks"`
	Total     int           `json:"total"`
	Page      int           `json:"page"`
	PageSize  int           `json:"page_size"`
	PageCount int           `json:"page_count"`
}

// ToTaskListResponse converts a TaskPage. An empty page encodes as [].
func ToTaskListResponse(p *model.TaskPage) TaskListResponse {
	tasks := p.Tasks
	if tasks == nil {
		tasks = []*model.Task{}
	}
	return TaskListResponse{
		Tasks:     tasks,
		Total:     p.Total,
		Page:      p.Page,
		PageSize:  p.PageSize,
		PageCount: p.PageCount(),
	}
}

// ToTaskPage converts a list response back to the model page.
func (r TaskListResponse) ToTaskPage() *model.TaskPage {
	return &model.TaskPage{Tasks: r.Tasks, Total: r.Total, Page: r.Page, PageSize: r.PageSize}
}
