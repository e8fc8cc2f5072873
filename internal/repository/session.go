package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taskdeck/taskdeck/internal/model"
)

const sessionColumns = `id, user_id, refresh_hash, created_at, expires_at, revoked_at`

// CreateSession inserts a new session record.
func (r *Repository) CreateSession(ctx context.Context, s *model.SessionRecord) error {
	query := `
		INSERT INTO auth_sessions (id, user_id, refresh_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.RefreshHash,
		s.CreatedAt,
		s.ExpiresAt,
	)
	if err != nil {
		return storeErr("create session", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (r *Repository) GetSession(ctx context.Context, id string) (*model.SessionRecord, error) {
	return r.getSession(ctx, `SELECT `+sessionColumns+` FROM auth_sessions WHERE id = $1`, id)
}

// GetSessionByRefreshHash retrieves the session owning a refresh token hash.
func (r *Repository) GetSessionByRefreshHash(ctx context.Context, hash string) (*model.SessionRecord, error) {
	return r.getSession(ctx, `SELECT `+sessionColumns+` FROM auth_sessions WHERE refresh_hash = $1`, hash)
}

func (r *Repository) getSession(ctx context.Context, query, arg string) (*model.SessionRecord, error) {
	var s model.SessionRecord
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&s.ID,
		&s.UserID,
		&s.RefreshHash,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, storeErr("get session", err)
	}
	return &s, nil
}

// RotateSession replaces the refresh hash of an active session. It fails
// with ErrSessionNotFound when oldHash is no longer current, so a refresh
// token can be redeemed once.
func (r *Repository) RotateSession(ctx context.Context, id, oldHash, newHash string, expiresAt time.Time) error {
	query := `
		UPDATE auth_sessions
		SET refresh_hash = $3, expires_at = $4
		WHERE id = $1 AND refresh_hash = $2 AND revoked_at IS NULL AND expires_at > now()
	`

	result, err := r.pool.Exec(ctx, query, id, oldHash, newHash, expiresAt)
	if err != nil {
		return storeErr("rotate session", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

// RevokeSession marks a session revoked. Revoking twice is not an error.
func (r *Repository) RevokeSession(ctx context.Context, id string) error {
	query := `
		UPDATE auth_sessions
		SET revoked_at = COALESCE(revoked_at, now())
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return storeErr("revoke session", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}
