package auth

import (
	"context"
	"time"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store issues and validates browser sessions backed by SQLite.
type Store struct {
	repo   *sessionRepository
	secret string
	ttl    time.Duration
	logger Logger
}

// NewStore creates the session store and its backing table.
func NewStore(ctx context.Context, db Querier, secret string, ttl time.Duration) (*Store, error) {
	repo, err := newSessionRepository(ctx, db)
	if err != nil {
		return nil, err
	}
	return &Store{
		repo:   repo,
		secret: secret,
		ttl:    ttl,
		logger: noopLogger{},
	}, nil
}

// SetLogger sets a logger for sweep and validation reporting.
func (s *Store) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Issue creates a session for an already-authenticated user and
// returns the cookie value.
func (s *Store) Issue(ctx context.Context, username string) (string, error) {
	token, session, err := generateSessionToken(username, s.secret, s.ttl)
	if err != nil {
		return "", err
	}
	if err := s.repo.create(ctx, session); err != nil {
		return "", err
	}
	s.logger.Debug("session issued", "username", username, "session_id", session.ID)
	return token, nil
}

// Validate checks a cookie value and returns the session's username.
// Signature and expiry come from the token itself; revocation comes
// from the database row.
func (s *Store) Validate(ctx context.Context, token string) (string, error) {
	claims, err := parseSessionToken(token, s.secret)
	if err != nil {
		return "", err
	}

	session, err := s.repo.get(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if session.Revoked {
		return "", ErrTokenRevoked
	}
	if time.Now().After(session.ExpiresAt) {
		return "", ErrTokenExpired
	}
	return session.Username, nil
}

// Revoke invalidates a session by its cookie value. Unparseable
// tokens have no session to revoke and return ErrTokenInvalid.
func (s *Store) Revoke(ctx context.Context, token string) error {
	claims, err := parseSessionToken(token, s.secret)
	if err != nil {
		return err
	}
	return s.repo.revoke(ctx, claims.ID)
}

// Sweep deletes expired sessions and returns the number removed.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	return s.repo.deleteExpired(ctx)
}

// StartSweeper runs Sweep at the given interval until the context is
// cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := s.Sweep(ctx)
				if err != nil {
					s.logger.Error("session sweep failed", "error", err)
					continue
				}
				if count > 0 {
					s.logger.Debug("expired sessions removed", "count", count)
				}
			}
		}
	}()
}
