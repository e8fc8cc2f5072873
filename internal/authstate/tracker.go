// Package authstate tracks whether the application has a signed-in user.
//
// A Tracker starts in Loading, resolves to SignedIn or SignedOut once the
// current session has been looked up, and then follows auth events. Callers
// that need a definite answer block on Wait instead of reading Loading as
// either outcome.
package authstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

var (
	ErrAlreadyStarted = errors.New("authstate: tracker already started")
	ErrNotStarted     = errors.New("authstate: tracker not started")
	ErrClosed         = errors.New("authstate: tracker closed")
)

// Status is the coarse authentication state.
type Status int

const (
	Loading Status = iota
	SignedOut
	SignedIn
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case SignedOut:
		return "signed_out"
	case SignedIn:
		return "signed_in"
	default:
		return "unknown"
	}
}

// State is one observed authentication state. Identity is set only when
// Status is SignedIn. Err is only ever set while Status is Loading: it is the
// latest failed session lookup, which is retried until the source answers
// or an auth event settles the state. A failed lookup never means SignedOut.
type State struct {
	Status   Status
	Identity *model.Identity
	Err      error
}

// Source is where sessions come from. *client.Client implements it.
type Source interface {
	CurrentSession(ctx context.Context) (*model.Identity, error)
	OnAuthChange(fn func(model.AuthEvent, *model.Session)) (unsubscribe func())
}

const (
	watchBuffer = 8

	defaultRetryMin = 250 * time.Millisecond
	defaultRetryMax = 10 * time.Second
)

// Tracker holds the authentication state for one application instance.
type Tracker struct {
	source   Source
	retryMin time.Duration
	retryMax time.Duration

	mu          sync.Mutex
	state       State
	started     bool
	closed      bool
	eventSeen   bool
	resolved    chan struct{}
	unsubscribe func()
	cancel      context.CancelFunc
	watchers    map[uint64]chan State
	nextWatch   uint64
}

// New returns a Tracker in the Loading state. Nothing happens until Start.
func New(source Source) *Tracker {
	return &Tracker{
		source:   source,
		retryMin: defaultRetryMin,
		retryMax: defaultRetryMax,
		state:    State{Status: Loading},
		resolved: make(chan struct{}),
		watchers: make(map[uint64]chan State),
	}
}

// Start subscribes to auth events and looks up the current session in the
// background. It may be called once; later calls return ErrAlreadyStarted.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.unsubscribe = t.source.OnAuthChange(t.handleEvent)

	go t.lookup(ctx)
	return nil
}

func (t *Tracker) lookup(ctx context.Context) {
	delay := t.retryMin
	for {
		id, err := t.source.CurrentSession(ctx)
		if t.settle(id, err) {
			return
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if t.settledElsewhere() {
			return
		}
		delay = min(delay*2, t.retryMax)
	}
}

func (t *Tracker) settledElsewhere() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed || t.eventSeen
}

// settle records one lookup result and reports whether lookups are over.
func (t *Tracker) settle(id *model.Identity, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	// An event that arrived during the lookup is newer than its result.
	if t.closed || t.eventSeen {
		return true
	}
	switch {
	case err != nil:
		t.setLocked(State{Status: Loading, Err: err})
		return false
	case id == nil:
		t.setLocked(State{Status: SignedOut})
	default:
		t.setLocked(State{Status: SignedIn, Identity: id})
	}
	return true
}

func (t *Tracker) handleEvent(event model.AuthEvent, s *model.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.eventSeen = true

	switch event {
	case model.AuthEventSignedIn, model.AuthEventTokenRefreshed:
		if s == nil {
			return
		}
		id := s.User
		t.setLocked(State{Status: SignedIn, Identity: &id})
	case model.AuthEventSignedOut:
		t.setLocked(State{Status: SignedOut})
	}
}

// setLocked publishes next. Callers hold t.mu.
func (t *Tracker) setLocked(next State) {
	if next.Status != Loading {
		select {
		case <-t.resolved:
		default:
			close(t.resolved)
		}
	}
	if sameState(t.state, next) {
		return
	}
	t.state = next
	for _, ch := range t.watchers {
		deliver(ch, next)
	}
}

// deliver never blocks: a slow watcher loses its oldest pending state but
// always receives the latest one.
func deliver(ch chan State, s State) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func sameState(a, b State) bool {
	if a.Status != b.Status || a.Err != b.Err {
		return false
	}
	if a.Identity == nil || b.Identity == nil {
		return a.Identity == b.Identity
	}
	return *a.Identity == *b.Identity
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyState(t.state)
}

func copyState(s State) State {
	if s.Identity != nil {
		id := *s.Identity
		s.Identity = &id
	}
	return s
}

// Wait blocks until the tracker has left Loading and returns the state at
// that moment. While lookups keep failing it keeps blocking; bound ctx and
// read Snapshot().Err, or Watch, to surface the failure.
func (t *Tracker) Wait(ctx context.Context) (State, error) {
	t.mu.Lock()
	started, closed := t.started, t.closed
	resolved := t.resolved
	t.mu.Unlock()

	if !started && !closed {
		return State{}, ErrNotStarted
	}
	select {
	case <-resolved:
		return t.Snapshot(), nil
	default:
	}
	if closed {
		return State{}, ErrClosed
	}

	select {
	case <-resolved:
		return t.Snapshot(), nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// Watch delivers every state change from now on. The channel is closed by
// stop or by Close.
func (t *Tracker) Watch() (<-chan State, func()) {
	ch := make(chan State, watchBuffer)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		close(ch)
		return ch, func() {}
	}
	id := t.nextWatch
	t.nextWatch++
	t.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if w, ok := t.watchers[id]; ok {
				delete(t.watchers, id)
				close(w)
			}
		})
	}
}

// Close unsubscribes from the source, abandons a pending lookup and closes
// every watch channel. The last state stays readable through Snapshot.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	unsubscribe, cancel := t.unsubscribe, t.cancel
	for id, ch := range t.watchers {
		delete(t.watchers, id)
		close(ch)
	}
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
}
