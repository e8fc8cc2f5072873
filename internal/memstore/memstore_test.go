package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/model"
)

func seed(t *testing.T, s *Store, owner string, titles ...string) []*model.Task {
	t.Helper()
	var out []*model.Task
	for _, title := range titles {
		task := &model.Task{OwnerID: owner, Title: title, Status: model.TaskStatusPending}
		require.NoError(t, s.InsertTask(context.Background(), owner, task))
		out = append(out, task)
	}
	return out
}

func TestStore_ListPaginatesNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		seed(t, s, "alice", fmt.Sprintf("task %02d", i))
	}

	q := model.NewTaskQuery()
	page1, total, err := s.ListTasks(ctx, "alice", q)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	require.Len(t, page1, 10)
	assert.Equal(t, "task 24", page1[0].Title)

	page3, _, err := s.ListTasks(ctx, "alice", q.WithPage(3))
	require.NoError(t, err)
	require.Len(t, page3, 5)
	assert.Equal(t, "task 00", page3[4].Title)

	beyond, total, err := s.ListTasks(ctx, "alice", q.WithPage(9))
	require.NoError(t, err)
	assert.Empty(t, beyond)
	assert.Equal(t, 25, total)
}

func TestStore_ListIsOwnerScoped(t *testing.T) {
	s := New()
	ctx := context.Background()

	seed(t, s, "alice", "milk", "bread")
	seed(t, s, "bob", "milk")

	tasks, total, err := s.ListTasks(ctx, "bob", model.NewTaskQuery())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	for _, task := range tasks {
		assert.Equal(t, "bob", task.OwnerID)
	}
}

func TestStore_SearchAndFilter(t *testing.T) {
	s := New()
	ctx := context.Background()

	tasks := seed(t, s, "alice", "Buy MILK", "Groceries", "Walk dog")
	desc := "oat Milk"
	_, err := s.UpdateTask(ctx, "alice", tasks[1].ID, model.TaskPatch{Description: &desc})
	require.NoError(t, err)
	done := model.TaskStatusCompleted
	_, err = s.UpdateTask(ctx, "alice", tasks[2].ID, model.TaskPatch{Status: &done})
	require.NoError(t, err)

	found, total, err := s.ListTasks(ctx, "alice", model.NewTaskQuery().WithSearch("milk"))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, found, 2)

	completed, _, err := s.ListTasks(ctx, "alice", model.NewTaskQuery().WithStatus(model.FilterCompleted))
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "Walk dog", completed[0].Title)

	counts, err := s.CountTasksByStatus(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCounts{Total: 3, Pending: 2, Completed: 1}, counts)
}

func TestStore_UpdateAdvancesUpdatedAtWithFrozenClock(t *testing.T) {
	frozen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	task := seed(t, s, "alice", "t")[0]
	done := model.TaskStatusCompleted

	first, err := s.UpdateTask(ctx, "alice", task.ID, model.TaskPatch{Status: &done})
	require.NoError(t, err)
	second, err := s.UpdateTask(ctx, "alice", task.ID, model.TaskPatch{Status: &done})
	require.NoError(t, err)

	assert.True(t, first.UpdatedAt.After(task.UpdatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, task.CreatedAt, second.CreatedAt)
}

func TestStore_ForeignRowsAreNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()
	task := seed(t, s, "alice", "private")[0]

	title := "pwned"
	_, err := s.UpdateTask(ctx, "mallory", task.ID, model.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, "mallory", task.ID), model.ErrTaskNotFound)

	got, err := s.GetTask(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", got.Title)

	forged := &model.Task{OwnerID: "alice", Title: "forged"}
	assert.ErrorIs(t, s.InsertTask(ctx, "mallory", forged), model.ErrOwnerMismatch)
}

func TestStore_ReturnedRowsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	task := seed(t, s, "alice", "original")[0]

	got, err := s.GetTask(ctx, "alice", task.ID)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := s.GetTask(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Title)
}

func TestStore_UpsertProfileKeepsOneRow(t *testing.T) {
	s := New()
	ctx := context.Background()

	p, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, p)

	a, b := "Ada", "Ada L."
	first, err := s.UpsertProfile(ctx, "alice", model.ProfileFields{Name: &a})
	require.NoError(t, err)
	second, err := s.UpsertProfile(ctx, "alice", model.ProfileFields{Name: &b})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ada L.", *second.Name)
	assert.Nil(t, second.AvatarURL)
	assert.Len(t, s.profiles, 1)
}

func TestStore_Sessions(t *testing.T) {
	now := time.Now()
	s := New(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	user := &model.User{Email: "ada@example.com", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, user))
	assert.ErrorIs(t, s.CreateUser(ctx, &model.User{Email: "ADA@example.com"}), model.ErrEmailTaken)

	rec := &model.SessionRecord{ID: "s1", UserID: user.ID, RefreshHash: "h1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.CreateSession(ctx, rec))

	require.NoError(t, s.RotateSession(ctx, "s1", "h1", "h2", now.Add(2*time.Hour)))
	assert.ErrorIs(t, s.RotateSession(ctx, "s1", "h1", "h3", now.Add(2*time.Hour)), model.ErrSessionNotFound)

	require.NoError(t, s.RevokeSession(ctx, "s1"))
	got, err := s.GetSessionByRefreshHash(ctx, "h2")
	require.NoError(t, err)
	assert.False(t, got.Active(now))
}
