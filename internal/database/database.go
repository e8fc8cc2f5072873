// Package database owns the schema: embedded migrations and the
// database/sql connection they run on.
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open opens a database/sql handle using the lib/pq driver. It does not
// connect; call Ping to verify the DSN.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// NewMigrator returns a migrate instance bound to db and the embedded
// migrations.
func NewMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// Migrate applies all pending migrations. An up-to-date schema is not an
// error. It returns the resulting schema version.
func Migrate(databaseURL string) (uint, error) {
	db, err := Open(databaseURL)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return 0, fmt.Errorf("failed to connect to database: %w", err)
	}

	m, err := NewMigrator(db)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Reset drops every table and re-applies the migrations. Integration tests
// use it for a clean schema.
func Reset(databaseURL string) error {
	if err := drop(databaseURL); err != nil {
		return err
	}
	_, err := Migrate(databaseURL)
	return err
}

// drop needs its own migrator: after Drop the version table is gone and
// only a fresh instance recreates it.
func drop(databaseURL string) error {
	db, err := Open(databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := NewMigrator(db)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Drop(); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

// Versions lists the embedded migration versions in order.
func Versions() ([]uint, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	defer source.Close()

	first, err := source.First()
	if err != nil {
		return nil, fmt.Errorf("failed to read first migration: %w", err)
	}

	versions := []uint{first}
	for v := first; ; {
		next, err := source.Next(v)
		if err != nil {
			break
		}
		versions = append(versions, next)
		v = next
	}
	return versions, nil
}
