// Package client is the data-access SDK for the taskdeck API. It holds the
// current session, refreshes it when the access token expires and maps
// error responses back to the model error values.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/model"
)

// Client talks to one API origin on behalf of one user.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time

	mu        sync.RWMutex
	session   *model.Session
	listeners map[uint64]func(model.AuthEvent, *model.Session)
	nextID    uint64

	refreshMu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithClock replaces time.Now for session expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New returns a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
		listeners: make(map[uint64]func(model.AuthEvent, *model.Session)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a copy of the current session, or nil.
func (c *Client) Session() *model.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// SetSession installs a previously saved session without notifying
// listeners. Pass nil to forget it.
func (c *Client) SetSession(s *model.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.session = nil
		return
	}
	cp := *s
	c.session = &cp
}

// OnAuthChange registers fn for session changes and returns a function that
// unregisters it. fn runs on the goroutine that changed the session.
func (c *Client) OnAuthChange(fn func(model.AuthEvent, *model.Session)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// changeSession stores s and notifies listeners.
func (c *Client) changeSession(event model.AuthEvent, s *model.Session) {
	c.mu.Lock()
	c.session = s
	fns := make([]func(model.AuthEvent, *model.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		var cp *model.Session
		if s != nil {
			v := *s
			cp = &v
		}
		fn(event, cp)
	}
}

// accessToken returns a usable access token, refreshing an expired one.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	s := c.Session()
	if s == nil {
		return "", model.ErrNoSession
	}
	if !s.Expired(c.now()) {
		return s.AccessToken, nil
	}
	refreshed, err := c.refresh(ctx, s)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// request describes one API call.
type request struct {
	op          model.Operation
	method      string
	path        string
	body        any
	rawBody     []byte
	contentType string
	auth        bool
	token       string
}

// do sends req and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	contentType := req.contentType
	switch {
	case req.rawBody != nil:
		body = bytes.NewReader(req.rawBody)
	case req.body != nil:
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", req.op, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", req.op, err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	token := req.token
	if req.auth && token == "" {
		token, err = c.accessToken(ctx)
		if err != nil {
			return err
		}
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", req.op, ctxErr)
		}
		return &TransientError{Op: req.op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e dto.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		return decodeError(req.op, resp.StatusCode, e.Error.Code, e.Error.Message)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", req.op, ctxErr)
		}
		return &TransientError{Op: req.op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// isAuthFailure reports whether err means the session is no longer valid.
func isAuthFailure(err error) bool {
	return errors.Is(err, model.ErrAuthentication)
}
