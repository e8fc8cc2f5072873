// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TaskStatus is the completion state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// Field limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// IsValid checks if the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// Toggle returns the opposite status.
func (s TaskStatus) Toggle() TaskStatus {
	if s == TaskStatusCompleted {
		return TaskStatusPending
	}
	return TaskStatusCompleted
}

// Task is a personal to-do item owned by exactly one identity.
type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask holds the caller-supplied fields for task creation.
type NewTask struct {
	Title       string
	Description *string
	Status      TaskStatus // empty means pending
}

// Normalize trims the fields, applies defaults and validates the result.
func (n NewTask) Normalize() (NewTask, error) {
	title, err := normalizeTitle(n.Title)
	if err != nil {
		return NewTask{}, err
	}
	desc, err := normalizeDescription(n.Description)
	if err != nil {
		return NewTask{}, err
	}
	status := n.Status
	if status == "" {
		status = TaskStatusPending
	}
	if !status.IsValid() {
		return NewTask{}, ErrInvalidStatus
	}
	return NewTask{Title: title, Description: desc, Status: status}, nil
}

// TaskPatch is a partial task update. Nil fields are left unchanged;
// ClearDescription sets the description to null.
type TaskPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Status           *TaskStatus
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && !p.ClearDescription && p.Status == nil
}

// Normalize validates the patch and trims supplied text fields.
func (p TaskPatch) Normalize() (TaskPatch, error) {
	if p.IsEmpty() {
		return TaskPatch{}, ErrEmptyPatch
	}
	out := TaskPatch{ClearDescription: p.ClearDescription}
	if p.Title != nil {
		title, err := normalizeTitle(*p.Title)
		if err != nil {
			return TaskPatch{}, err
		}
		out.Title = &title
	}
	if p.Description != nil && !p.ClearDescription {
		desc, err := normalizeDescription(p.Description)
		if err != nil {
			return TaskPatch{}, err
		}
		if desc == nil {
			out.ClearDescription = true
		} else {
			out.Description = desc
		}
	}
	if p.Status != nil {
		if !p.Status.IsValid() {
			return TaskPatch{}, ErrInvalidStatus
		}
		s := *p.Status
		out.Status = &s
	}
	return out, nil
}

// Apply returns a copy of t with the patch applied. Timestamps are untouched.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.ClearDescription {
		t.Description = nil
	} else if p.Description != nil {
		d := *p.Description
		t.Description = &d
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// normalizeDescription maps blank descriptions to nil.
func normalizeDescription(desc *string) (*string, error) {
	if desc == nil {
		return nil, nil
	}
	d := strings.TrimSpace(*desc)
	if d == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(d) > MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	return &d, nil
}

// StatusCounts is the per-status task tally for one owner.
type StatusCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// Add records n tasks with the given status.
func (c *StatusCounts) Add(status TaskStatus, n int) {
	switch status {
	case TaskStatusPending:
		c.Pending += n
	case TaskStatusCompleted:
		c.Completed += n
	}
	c.Total += n
}
