package model

import (
	"errors"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestNewTask_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   NewTask
		wantErr error
	}{
		{"empty title", NewTask{Title: ""}, ErrTitleRequired},
		{"whitespace title", NewTask{Title: "   \t"}, ErrTitleRequired},
		{"title too long", NewTask{Title: strings.Repeat("a", MaxTitleLength+1)}, ErrTitleTooLong},
		{"description too long", NewTask{Title: "ok", Description: strPtr(strings.Repeat("d", MaxDescriptionLength+1))}, ErrDescriptionTooLong},
		{"bad status", NewTask{Title: "ok", Status: "done"}, ErrInvalidStatus},
		{"valid", NewTask{Title: "Buy milk"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.input.Normalize()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("error %v should be a validation error", err)
			}
		})
	}
}

func TestNewTask_NormalizeDefaults(t *testing.T) {
	t.Parallel()

	got, err := NewTask{Title: "  Buy milk  ", Description: strPtr("   ")}.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.Title != "Buy milk" {
		t.Errorf("Title = %q, want %q", got.Title, "Buy milk")
	}
	if got.Description != nil {
		t.Errorf("Description = %q, want nil", *got.Description)
	}
	if got.Status != TaskStatusPending {
		t.Errorf("Status = %s, want pending", got.Status)
	}
}

func TestTaskPatch_Normalize(t *testing.T) {
	t.Parallel()

	if _, err := (TaskPatch{}).Normalize(); !errors.Is(err, ErrEmptyPatch) {
		t.Fatalf("empty patch error = %v, want ErrEmptyPatch", err)
	}

	bad := TaskStatus("archived")
	if _, err := (TaskPatch{Status: &bad}).Normalize(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("bad status error = %v, want ErrInvalidStatus", err)
	}

	if _, err := (TaskPatch{Title: strPtr(" ")}).Normalize(); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("blank title error = %v, want ErrTitleRequired", err)
	}

	p, err := TaskPatch{Description: strPtr("  ")}.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !p.ClearDescription || p.Description != nil {
		t.Errorf("blank description should clear, got %+v", p)
	}
}

func TestTaskPatch_Apply(t *testing.T) {
	t.Parallel()

	base := Task{ID: "t1", Title: "old", Description: strPtr("desc"), Status: TaskStatusPending}
	done := TaskStatusCompleted

	got := TaskPatch{Status: &done}.Apply(base)
	if got.Title != "old" || got.Description == nil || *got.Description != "desc" {
		t.Errorf("unsupplied fields changed: %+v", got)
	}
	if got.Status != TaskStatusCompleted {
		t.Errorf("Status = %s, want completed", got.Status)
	}

	got = TaskPatch{ClearDescription: true, Title: strPtr("new")}.Apply(base)
	if got.Description != nil {
		t.Errorf("Description should be cleared")
	}
	if got.Title != "new" {
		t.Errorf("Title = %q, want new", got.Title)
	}
	if base.Title != "old" {
		t.Errorf("Apply mutated its input")
	}
}

func TestTaskStatus_Toggle(t *testing.T) {
	t.Parallel()

	if TaskStatusPending.Toggle() != TaskStatusCompleted {
		t.Error("pending should toggle to completed")
	}
	if TaskStatusCompleted.Toggle() != TaskStatusPending {
		t.Error("completed should toggle to pending")
	}
}

func TestStatusCounts_Add(t *testing.T) {
	t.Parallel()

	var c StatusCounts
	c.Add(TaskStatusPending, 3)
	c.Add(TaskStatusCompleted, 2)
	if c != (StatusCounts{Total: 5, Pending: 3, Completed: 2}) {
		t.Errorf("counts = %+v", c)
	}
}
