package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/model"
)

// UserStore persists identities.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// SessionStore persists sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *model.SessionRecord) error
	GetSession(ctx context.Context, id string) (*model.SessionRecord, error)
	GetSessionByRefreshHash(ctx context.Context, hash string) (*model.SessionRecord, error)
	RotateSession(ctx context.Context, id, oldHash, newHash string, expiresAt time.Time) error
	RevokeSession(ctx context.Context, id string) error
}

// Store is everything the provider persists.
type Store interface {
	UserStore
	SessionStore
}

// Revocations mirrors revoked session IDs so access tokens can be rejected
// before they expire.
type Revocations interface {
	MarkRevoked(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// Provider issues, refreshes, revokes and authenticates sessions.
type Provider struct {
	store       Store
	revocations Revocations
	tokens      *TokenManager
	hasher      *PasswordHasher
	refreshTTL  time.Duration
	now         func() time.Time
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithRevocations enables the revocation cache.
func WithRevocations(r Revocations) ProviderOption {
	return func(p *Provider) {
		p.revocations = r
	}
}

// NewProvider creates a Provider.
func NewProvider(store Store, tokens *TokenManager, hasher *PasswordHasher, refreshTTL time.Duration, opts ...ProviderOption) *Provider {
	p := &Provider{
		store:      store,
		tokens:     tokens,
		hasher:     hasher,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SignUp registers a user and opens a session.
func (p *Provider) SignUp(ctx context.Context, creds model.Credentials) (*model.Session, error) {
	creds, err := creds.Normalize()
	if err != nil {
		return nil, err
	}

	hash, err := p.hasher.Hash(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Email: creds.Email, PasswordHash: hash}
	if err := p.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return p.openSession(ctx, user)
}

// SignIn verifies a password and opens a session. Unknown emails and wrong
// passwords fail the same way.
func (p *Provider) SignIn(ctx context.Context, creds model.Credentials) (*model.Session, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	user, err := p.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			p.hasher.VerifyDummy(creds.Password)
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := p.hasher.Verify(creds.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, model.ErrInvalidCredentials
	}

	return p.openSession(ctx, user)
}

// Refresh redeems a refresh token for a new token pair. Each refresh token
// is single use.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	if err := ValidateRefreshFormat(refreshToken); err != nil {
		return nil, model.ErrRefreshTokenMalformed
	}

	oldHash := HashToken(refreshToken)
	rec, err := p.store.GetSessionByRefreshHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, model.ErrSessionExpired
		}
		return nil, err
	}
	if !rec.Active(p.now()) {
		return nil, model.ErrSessionExpired
	}

	user, err := p.store.GetUserByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrSessionExpired
		}
		return nil, err
	}

	next, err := GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := p.store.RotateSession(ctx, rec.ID, oldHash, next.Hash, p.now().Add(p.refreshTTL)); err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, model.ErrSessionExpired
		}
		return nil, err
	}

	return p.tokenPair(rec.ID, user, next.Plaintext)
}

// SignOut revokes a session. Access tokens already issued for it stop
// authenticating immediately.
func (p *Provider) SignOut(ctx context.Context, sessionID string) error {
	if err := p.store.RevokeSession(ctx, sessionID); err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if p.revocations != nil {
		if err := p.revocations.MarkRevoked(ctx, sessionID, p.tokens.TTL()); err != nil {
			return fmt.Errorf("mark session revoked: %w: %w", model.ErrStoreUnavailable, err)
		}
	}
	return nil
}

// Authenticate validates an access token and returns its identity and
// session ID.
func (p *Provider) Authenticate(ctx context.Context, accessToken string) (*model.Identity, string, error) {
	claims, err := p.tokens.Validate(accessToken)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil, "", model.ErrSessionExpired
		}
		return nil, "", model.ErrInvalidToken
	}

	revoked, err := p.isRevoked(ctx, claims.SessionID)
	if err != nil {
		return nil, "", err
	}
	if revoked {
		return nil, "", model.ErrSessionExpired
	}

	return &model.Identity{UserID: claims.Subject, Email: claims.Email}, claims.SessionID, nil
}

// isRevoked asks the cache first and falls back to the session row when the
// cache is absent or failing.
func (p *Provider) isRevoked(ctx context.Context, sessionID string) (bool, error) {
	if p.revocations != nil {
		revoked, err := p.revocations.IsRevoked(ctx, sessionID)
		if err == nil {
			return revoked, nil
		}
	}

	rec, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return true, nil
		}
		return false, err
	}
	return rec.RevokedAt != nil, nil
}

func (p *Provider) openSession(ctx context.Context, user *model.User) (*model.Session, error) {
	refresh, err := GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := p.now()
	rec := &model.SessionRecord{
		ID:          ulid.Make().String(),
		UserID:      user.ID,
		RefreshHash: refresh.Hash,
		CreatedAt:   now,
		ExpiresAt:   now.Add(p.refreshTTL),
	}
	if err := p.store.CreateSession(ctx, rec); err != nil {
		return nil, err
	}

	return p.tokenPair(rec.ID, user, refresh.Plaintext)
}

func (p *Provider) tokenPair(sessionID string, user *model.User, refreshToken string) (*model.Session, error) {
	access, expires, err := p.tokens.Issue(user.ID, user.Email, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &model.Session{
		ID:           sessionID,
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresAt:    expires,
		User:         model.Identity{UserID: user.ID, Email: user.Email},
	}, nil
}
