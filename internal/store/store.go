// Package store persists LinkedIn OAuth credentials in SQLite, one row per
// user identity. Re-authentication is a human-in-the-loop browser flow, so
// credentials must survive process restarts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"linkmcp/internal/store/migrations"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Store provides access to the credential database.
type Store struct {
	db *sql.DB

	// now is replaceable in tests to control expiry evaluation.
	now func() time.Time
}

// New wraps an already-opened database. The schema must be in place.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open opens (creating if necessary) the SQLite database at path and brings
// the schema up to date.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database at %s: %w", path, err)
	}

	return New(db), nil
}

// RunMigrations applies all pending schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
