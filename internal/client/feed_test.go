package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/model"
)

// scriptedLister answers each query key from a channel so tests control
// completion order. When ignoreCancel is set it keeps waiting after its
// context is cancelled, like a server that already sent the response.
type scriptedLister struct {
	replies      map[string]chan *model.TaskPage
	started      chan string
	ignoreCancel bool
}

func newScriptedLister(keys ...string) *scriptedLister {
	l := &scriptedLister{
		replies: make(map[string]chan *model.TaskPage),
		started: make(chan string, len(keys)),
	}
	for _, k := range keys {
		l.replies[k] = make(chan *model.TaskPage, 1)
	}
	return l
}

func (l *scriptedLister) ListTasks(ctx context.Context, q model.TaskQuery) (*model.TaskPage, error) {
	l.started <- q.Key()
	reply := l.replies[q.Key()]
	if l.ignoreCancel {
		return <-reply, nil
	}
	select {
	case p := <-reply:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type loadResult struct {
	page *model.TaskPage
	err  error
}

func startLoad(feed *TaskFeed, l *scriptedLister, q model.TaskQuery) <-chan loadResult {
	out := make(chan loadResult, 1)
	go func() {
		p, err := feed.Load(context.Background(), q)
		out <- loadResult{p, err}
	}()
	<-l.started
	return out
}

func pageOf(total int) *model.TaskPage {
	return &model.TaskPage{Total: total, Page: 1, PageSize: model.DefaultPageSize}
}

func TestTaskFeed_LatestQueryWins(t *testing.T) {
	all := model.NewTaskQuery()
	done := all.WithStatus(model.FilterCompleted)

	l := newScriptedLister(all.Key(), done.Key())
	feed := NewTaskFeed(l)

	first := startLoad(feed, l, all)
	second := startLoad(feed, l, done)

	l.replies[done.Key()] <- pageOf(2)
	r := <-second
	require.NoError(t, r.err)
	assert.Equal(t, 2, r.page.Total)

	r = <-first
	assert.ErrorIs(t, r.err, ErrSuperseded)

	state := feed.Current()
	require.NotNil(t, state)
	assert.Equal(t, done.Key(), state.Key)
	assert.Equal(t, model.FilterCompleted, state.Query.Status())
	assert.Equal(t, 2, state.Page.Total)
}

func TestTaskFeed_StaleResponseIsDiscarded(t *testing.T) {
	all := model.NewTaskQuery()
	search := all.WithSearch("milk")

	l := newScriptedLister(all.Key(), search.Key())
	l.ignoreCancel = true
	feed := NewTaskFeed(l)

	first := startLoad(feed, l, all)
	second := startLoad(feed, l, search)

	l.replies[search.Key()] <- pageOf(1)
	require.NoError(t, (<-second).err)

	// The older response arrives last and must not overwrite the newer one.
	l.replies[all.Key()] <- pageOf(40)
	assert.ErrorIs(t, (<-first).err, ErrSuperseded)

	state := feed.Current()
	require.NotNil(t, state)
	assert.Equal(t, search.Key(), state.Key)
	assert.Equal(t, 1, state.Page.Total)
}

func TestTaskFeed_Cancel(t *testing.T) {
	q := model.NewTaskQuery()
	l := newScriptedLister(q.Key())
	feed := NewTaskFeed(l)

	res := startLoad(feed, l, q)
	feed.Cancel()

	select {
	case r := <-res:
		assert.ErrorIs(t, r.err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled load did not return")
	}
	assert.Nil(t, feed.Current())
}

func TestTaskFeed_ErrorKeepsPreviousPage(t *testing.T) {
	q := model.NewTaskQuery()
	feed := NewTaskFeed(listerFunc(func(ctx context.Context, q model.TaskQuery) (*model.TaskPage, error) {
		if q.Page() == 1 {
			return pageOf(3), nil
		}
		return nil, errors.New("boom")
	}))

	_, err := feed.Load(context.Background(), q)
	require.NoError(t, err)
	_, err = feed.Load(context.Background(), q.WithPage(2))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSuperseded)

	state := feed.Current()
	require.NotNil(t, state)
	assert.Equal(t, 1, state.Query.Page())
	assert.Equal(t, uint64(1), state.Generation)
}

type listerFunc func(ctx context.Context, q model.TaskQuery) (*model.TaskPage, error)

func (f listerFunc) ListTasks(ctx context.Context, q model.TaskQuery) (*model.TaskPage, error) {
	return f(ctx, q)
}
