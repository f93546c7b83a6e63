package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/precedents/pkg/models"
	"github.com/jmoiron/sqlx"
)

// AnswerRepository handles self-check answers
type AnswerRepository struct {
	db *sqlx.DB
}

// NewAnswerRepository creates a new repository instance
func NewAnswerRepository(db *sqlx.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// Create stores an answer
func (r *AnswerRepository) Create(ctx context.Context, a *models.Answer) error {
	if a.AnsweredAt.IsZero() {
		a.AnsweredAt = time.Now()
	}
	a.AnsweredAt = a.AnsweredAt.UTC()

	query := r.db.Rebind(`
		INSERT INTO answers (user_id, precedent_id, correct, quality, answered_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query,
		a.UserID,
		a.PrecedentID,
		a.Correct,
		a.Quality,
		a.AnsweredAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create answer: %w", translateError(err))
	}
	return nil
}

// ListByUser returns answers of a user since the given time, oldest first
func (r *AnswerRepository) ListByUser(ctx context.Context, userID int64, since time.Time) ([]models.Answer, error) {
	query := r.db.Rebind(`
		SELECT a.id, a.user_id, a.precedent_id, p.subject_id, a.correct, a.quality, a.answered_at
		FROM answers a
		JOIN precedents p ON p.id = a.precedent_id
		WHERE a.user_id = ? AND a.answered_at >= ?
		ORDER BY a.answered_at, a.id`)

	answers := []models.Answer{}
	if err := r.db.SelectContext(ctx, &answers, query, userID, since.UTC()); err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}
