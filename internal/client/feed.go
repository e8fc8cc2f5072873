package client

import (
	"context"
	"errors"
	"sync"

	"github.com/taskdeck/taskdeck/internal/model"
)

// ErrSuperseded is returned by TaskFeed.Load when a newer load started
// before this one finished. The published page is left untouched.
var ErrSuperseded = errors.New("task list load superseded by a newer query")

// TaskLister loads one page of tasks. *Client implements it.
type TaskLister interface {
	ListTasks(ctx context.Context, q model.TaskQuery) (*model.TaskPage, error)
}

// FeedState is the page a TaskFeed last published.
type FeedState struct {
	Query      model.TaskQuery
	Key        string
	Generation uint64
	Page       *model.TaskPage
}

// TaskFeed serializes list loads for one view. Each Load supersedes every
// earlier one: the earlier request is cancelled and, should it still
// complete, its result is discarded.
type TaskFeed struct {
	lister TaskLister

	mu        sync.Mutex
	gen       uint64
	cancel    context.CancelFunc
	published *FeedState
}

// NewTaskFeed returns a TaskFeed over lister.
func NewTaskFeed(lister TaskLister) *TaskFeed {
	return &TaskFeed{lister: lister}
}

// Load fetches q and publishes the result unless a newer Load has begun.
func (f *TaskFeed) Load(ctx context.Context, q model.TaskQuery) (*model.TaskPage, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f.mu.Lock()
	f.gen++
	gen := f.gen
	if f.cancel != nil {
		f.cancel()
	}
	f.cancel = cancel
	f.mu.Unlock()

	page, err := f.lister.ListTasks(ctx, q)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return nil, ErrSuperseded
	}
	f.cancel = nil
	if err != nil {
		return nil, err
	}
	f.published = &FeedState{Query: q, Key: q.Key(), Generation: gen, Page: page}
	return page, nil
}

// Current returns the last published state, or nil before the first
// successful load.
func (f *TaskFeed) Current() *FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.published == nil {
		return nil
	}
	s := *f.published
	return &s
}

// Cancel abandons any in-flight load. Its caller gets ErrSuperseded.
func (f *TaskFeed) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
