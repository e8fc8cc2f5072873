// Package repository provides the Postgres store. Owner-scoped statements run
// inside a transaction that sets the row-level security identity.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskdeck/taskdeck/internal/model"
)

// PostgreSQL error codes.
const (
	codeUniqueViolation       = "23505"
	codeInsufficientPrivilege = "42501"
)

// Repository provides database access methods.
type Repository struct {
	pool    *pgxpool.Pool
	appRole string
}

// Option configures a Repository.
type Option func(*Repository)

// WithAppRole makes owner-scoped transactions assume role, which must be
// subject to row-level security.
func WithAppRole(role string) Option {
	return func(r *Repository) {
		r.appRole = role
	}
}

// New creates a new Repository with a connection pool.
func New(ctx context.Context, databaseURL string, opts ...Option) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &Repository{pool: pool}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer adding methods to Repository.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// withOwner runs fn in a transaction whose row-level security identity is
// ownerID. Policies on tasks and profiles compare against it.
func (r *Repository) withOwner(ctx context.Context, ownerID string, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT set_config('app.current_user_id', $1, true)`, ownerID); err != nil {
			return fmt.Errorf("failed to set row owner: %w", err)
		}
		if r.appRole != "" {
			if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+pgx.Identifier{r.appRole}.Sanitize()); err != nil {
				return fmt.Errorf("failed to assume app role: %w", err)
			}
		}
		return fn(tx)
	})
}

// storeErr wraps err for op, tagging connection-level failures as transient.
func storeErr(op string, err error) error {
	if isConnError(err) {
		return fmt.Errorf("failed to %s: %w: %w", op, model.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func isConnError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return false
	}
	if pgconn.Timeout(err) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	return pgErrCode(err) == codeUniqueViolation
}

// isPolicyViolation reports a row-level security rejection.
func isPolicyViolation(err error) bool {
	return pgErrCode(err) == codeInsufficientPrivilege
}
