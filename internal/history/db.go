// Package history records generation runs in PostgreSQL so later runs can
// bump the last published version.
package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Schema creates the run table. Migrate applies it; it is safe to apply
// repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS sdk_runs (
	id UUID PRIMARY KEY,
	package TEXT NOT NULL,
	language TEXT NOT NULL,
	version TEXT NOT NULL,
	output TEXT NOT NULL,
	classes TEXT[] NOT NULL DEFAULT '{}',
	files INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	commit_sha TEXT,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sdk_runs_package_language ON sdk_runs(package, language);
`

// DB wraps the database connection pool
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// A CLI run needs few connections
	config.MaxConns = 4
	config.MinConns = 0

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug().Str("host", config.ConnConfig.Host).Msg("connected to database")

	return &DB{pool: pool}, nil
}

// FromPool wraps an existing pool
func FromPool(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// Migrate applies the schema
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// HealthCheck verifies database connectivity
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
