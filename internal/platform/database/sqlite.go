package database

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// NewSQLite opens the agent's client-state database. WAL keeps two
// agent processes on the same file from tripping over each other; the
// busy timeout covers the brief writer lock during a migration.
func NewSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// A single writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	return db, nil
}
