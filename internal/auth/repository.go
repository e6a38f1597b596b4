package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Querier is the subset of database operations the session
// repository needs. Satisfied by *database.DB and by a bare *sql.DB
// in tests.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sessionRepository persists sessions in SQLite.
type sessionRepository struct {
	db Querier
}

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS http_sessions (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	expires_at TEXT NOT NULL,
	revoked    INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_http_sessions_expires ON http_sessions(expires_at);
`

func newSessionRepository(ctx context.Context, db Querier) (*sessionRepository, error) {
	if _, err := db.ExecContext(ctx, createSessionsTable); err != nil {
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}
	return &sessionRepository{db: db}, nil
}

func (r *sessionRepository) create(ctx context.Context, s *Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO http_sessions (id, username, expires_at, revoked, created_at)
		 VALUES (?, ?, ?, 0, ?)`,
		s.ID, s.Username,
		s.ExpiresAt.UTC().Format(time.RFC3339),
		s.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

func (r *sessionRepository) get(ctx context.Context, id string) (*Session, error) {
	var s Session
	var revoked int
	var expiresAt, createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, expires_at, revoked, created_at
		 FROM http_sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.Username, &expiresAt, &revoked, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	s.Revoked = revoked != 0
	s.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt) //nolint:errcheck // format is controlled
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &s, nil
}

func (r *sessionRepository) revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE http_sessions SET revoked = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// deleteExpired removes sessions past their expiry. Returns the number
// of deleted rows.
func (r *sessionRepository) deleteExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		"DELETE FROM http_sessions WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	count, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return count, nil
}
