package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/model"
)

// Operation names for the identity endpoints, used in errors.
const (
	opSignUp     model.Operation = "sign_up"
	opSignIn     model.Operation = "sign_in"
	opSignOut    model.Operation = "sign_out"
	opRefresh    model.Operation = "refresh_session"
	opGetSession model.Operation = "get_session"
)

// SignUp registers a new identity and signs it in. Malformed credentials
// are rejected before any request is sent.
func (c *Client) SignUp(ctx context.Context, creds model.Credentials) (*model.Session, error) {
	creds, err := creds.Normalize()
	if err != nil {
		return nil, err
	}
	return c.signIn(ctx, opSignUp, "/auth/v1/signup", creds)
}

// SignIn signs in with email and password.
func (c *Client) SignIn(ctx context.Context, creds model.Credentials) (*model.Session, error) {
	return c.signIn(ctx, opSignIn, "/auth/v1/signin", creds)
}

func (c *Client) signIn(ctx context.Context, op model.Operation, path string, creds model.Credentials) (*model.Session, error) {
	var s model.Session
	err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   path,
		body:   dto.CredentialsRequest{Email: creds.Email, Password: creds.Password},
	}, &s)
	if err != nil {
		return nil, err
	}

	c.changeSession(model.AuthEventSignedIn, &s)
	return c.Session(), nil
}

// RefreshSession exchanges the refresh token for a new session. When the
// server rejects the refresh token the local session is dropped and
// listeners see SIGNED_OUT.
func (c *Client) RefreshSession(ctx context.Context) (*model.Session, error) {
	return c.refresh(ctx, nil)
}

// refresh rotates the session. When seen is set and another caller already
// replaced it with a live session, that session is returned instead, so
// concurrent expiries spend the refresh token once.
func (c *Client) refresh(ctx context.Context, seen *model.Session) (*model.Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current := c.Session()
	if current == nil {
		return nil, model.ErrNoSession
	}
	if seen != nil && current.RefreshToken != seen.RefreshToken && !current.Expired(c.now()) {
		return current, nil
	}

	var s model.Session
	err := c.do(ctx, request{
		op:     opRefresh,
		method: http.MethodPost,
		path:   "/auth/v1/refresh",
		body:   dto.RefreshRequest{RefreshToken: current.RefreshToken},
	}, &s)
	if err != nil {
		if isAuthFailure(err) || errors.Is(err, model.ErrRefreshTokenMalformed) {
			c.changeSession(model.AuthEventSignedOut, nil)
		}
		return nil, err
	}

	c.changeSession(model.AuthEventTokenRefreshed, &s)
	return c.Session(), nil
}

// SignOut revokes the session on the server and forgets it locally. The
// local session is dropped even when the server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	s := c.Session()
	if s == nil {
		return nil
	}

	err := c.do(ctx, request{
		op:     opSignOut,
		method: http.MethodPost,
		path:   "/auth/v1/signout",
		token:  s.AccessToken,
	}, nil)

	c.changeSession(model.AuthEventSignedOut, nil)
	if err != nil && !isAuthFailure(err) {
		return err
	}
	return nil
}

// CurrentSession returns the signed-in identity, or nil when there is no
// valid session. An expired access token is refreshed first.
func (c *Client) CurrentSession(ctx context.Context) (*model.Identity, error) {
	if c.Session() == nil {
		return nil, nil
	}

	var resp dto.UserResponse
	err := c.do(ctx, request{
		op:     opGetSession,
		method: http.MethodGet,
		path:   "/auth/v1/user",
		auth:   true,
	}, &resp)
	if err != nil {
		if isAuthFailure(err) {
			if c.Session() != nil {
				c.changeSession(model.AuthEventSignedOut, nil)
			}
			return nil, nil
		}
		return nil, err
	}
	return resp.User, nil
}
