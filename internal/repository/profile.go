package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/taskdeck/taskdeck/internal/model"
)

const profileColumns = `id, user_id, name, avatar_url, created_at, updated_at`

// GetProfile returns the owner's profile, or nil when none exists yet.
func (r *Repository) GetProfile(ctx context.Context, ownerID string) (*model.Profile, error) {
	var profile *model.Profile
	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		var err error
		profile, err = scanProfile(tx.QueryRow(ctx,
			`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, ownerID))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get profile", err)
	}
	return profile, nil
}

// UpsertProfile inserts the owner's profile or replaces name and avatar_url
// on the existing row.
func (r *Repository) UpsertProfile(ctx context.Context, ownerID string, fields model.ProfileFields) (*model.Profile, error) {
	query := `
		INSERT INTO profiles (user_id, name, avatar_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name, avatar_url = EXCLUDED.avatar_url
		RETURNING ` + profileColumns

	var profile *model.Profile
	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		var err error
		profile, err = scanProfile(tx.QueryRow(ctx, query, ownerID, fields.Name, fields.AvatarURL))
		return err
	})
	if err != nil {
		if isPolicyViolation(err) {
			return nil, model.ErrOwnerMismatch
		}
		return nil, storeErr("upsert profile", err)
	}
	return profile, nil
}

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.AvatarURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
