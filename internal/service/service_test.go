package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/taskdeck/taskdeck/internal/access"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/memstore"
	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func as(userID string) context.Context {
	return auth.ContextWithIdentity(context.Background(), &model.Identity{UserID: userID}, "sess-"+userID)
}

// fakeCounts is an in-process CountsCache.
type fakeCounts struct {
	mu          sync.Mutex
	entries     map[string]model.StatusCounts
	invalidated int
}

func newFakeCounts() *fakeCounts {
	return &fakeCounts{entries: make(map[string]model.StatusCounts)}
}

func (f *fakeCounts) GetCounts(_ context.Context, userID string) (model.StatusCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.entries[userID]
	if !ok {
		return model.StatusCounts{}, errors.New("miss")
	}
	return c, nil
}

func (f *fakeCounts) SetCounts(_ context.Context, userID string, c model.StatusCounts) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[userID] = c
	return nil
}

func (f *fakeCounts) InvalidateCounts(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, userID)
	f.invalidated++
	return nil
}

type fixture struct {
	store    *memstore.Store
	guard    *access.Guard
	counts   *fakeCounts
	recorder *metrics.InMemoryRecorder
	tasks    *TaskService
	profiles *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	guard := access.New(store)
	counts := newFakeCounts()
	recorder := metrics.NewInMemory()
	return &fixture{
		store:    store,
		guard:    guard,
		counts:   counts,
		recorder: recorder,
		tasks:    NewTaskService(guard, counts, recorder, discardLogger()),
		profiles: NewProfileService(guard, recorder, discardLogger()),
	}
}

func strPtr(s string) *string { return &s }
