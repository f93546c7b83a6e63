package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/precedents/pkg/models"
	"github.com/jmoiron/sqlx"
)

// SessionRepository stores login sessions
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a session
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	query := r.db.Rebind("INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)")
	if _, err := r.db.ExecContext(ctx, query, s.Token, s.UserID, s.ExpiresAt.UTC(), s.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to create session: %w", translateError(err))
	}
	return nil
}

// Get returns the session for token
func (r *SessionRepository) Get(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	query := r.db.Rebind("SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?")
	err := r.db.GetContext(ctx, &s, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM sessions WHERE token = ?"), token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired before now
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM sessions WHERE expires_at <= ?"), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
