package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSessionStore persists refresh slots to a Postgres table, allowing
// multiple API replicas to share authentication state. Compare-and-swap is a
// conditional UPDATE: the row moves only when it still holds the expected
// previous token.
type PostgresSessionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionStore opens a Postgres-backed session store using the provided DSN.
func NewPostgresSessionStore(ctx context.Context, dsn string) (*PostgresSessionStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres session dsn required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres session config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres session pool: %w", err)
	}
	return &PostgresSessionStore{pool: pool}, nil
}

// EnsureSchema creates the refresh_sessions table when it does not exist.
func (s *PostgresSessionStore) EnsureSchema(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("postgres session pool not configured")
	}
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS refresh_sessions (
    identity_id TEXT PRIMARY KEY,
    token       TEXT NOT NULL,
    issued_at   TIMESTAMPTZ NOT NULL
)
`)
	return err
}

// Get returns the current refresh token for the identity, if any.
func (s *PostgresSessionStore) Get(ctx context.Context, identityID string) (string, bool, error) {
	if s.pool == nil {
		return "", false, fmt.Errorf("postgres session pool not configured")
	}
	row := s.pool.QueryRow(ctx, `
SELECT token
FROM refresh_sessions
WHERE identity_id = $1
`, identityID)
	var token string
	if err := row.Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Set swaps the slot to newToken only when it currently holds expectedPrevious.
func (s *PostgresSessionStore) Set(ctx context.Context, identityID, newToken, expectedPrevious string) error {
	if s.pool == nil {
		return fmt.Errorf("postgres session pool not configured")
	}
	now := time.Now().UTC()
	if expectedPrevious == "" {
		tag, err := s.pool.Exec(ctx, `
INSERT INTO refresh_sessions (identity_id, token, issued_at)
VALUES ($1, $2, $3)
ON CONFLICT (identity_id) DO UPDATE
SET token = EXCLUDED.token, issued_at = EXCLUDED.issued_at
WHERE refresh_sessions.token = ''
`, identityID, newToken, now)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrSessionConflict
		}
		return nil
	}
	tag, err := s.pool.Exec(ctx, `
UPDATE refresh_sessions
SET token = $2, issued_at = $3
WHERE identity_id = $1 AND token = $4
`, identityID, newToken, now, expectedPrevious)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionConflict
	}
	return nil
}

// Clear empties the identity's slot.
func (s *PostgresSessionStore) Clear(ctx context.Context, identityID string) error {
	if s.pool == nil {
		return fmt.Errorf("postgres session pool not configured")
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM refresh_sessions WHERE identity_id = $1`, identityID)
	return err
}

// Ping verifies the Postgres pool is reachable.
func (s *PostgresSessionStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("postgres session pool not configured")
	}
	return s.pool.Ping(ctx)
}

// Close releases the Postgres connection pool resources.
func (s *PostgresSessionStore) Close(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.pool.Close()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
