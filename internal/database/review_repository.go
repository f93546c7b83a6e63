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

const reviewColumns = `user_id, precedent_id, easiness_factor, interval_days, repetitions,
	last_quality, consecutive_right, last_review_at, next_review_at`

// ReviewRepository stores spaced repetition state
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new repository instance
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Get returns the review progress of a precedent for a user
func (r *ReviewRepository) Get(ctx context.Context, userID, precedentID int64) (*models.ReviewProgress, error) {
	var progress models.ReviewProgress
	query := r.db.Rebind("SELECT " + reviewColumns + " FROM review_progress WHERE user_id = ? AND precedent_id = ?")
	err := r.db.GetContext(ctx, &progress, query, userID, precedentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review progress: %w", err)
	}
	return &progress, nil
}

// Upsert inserts or replaces the review progress
func (r *ReviewRepository) Upsert(ctx context.Context, p *models.ReviewProgress) error {
	query := r.db.Rebind(`
		INSERT INTO review_progress (` + reviewColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, precedent_id) DO UPDATE SET
			easiness_factor = excluded.easiness_factor,
			interval_days = excluded.interval_days,
			repetitions = excluded.repetitions,
			last_quality = excluded.last_quality,
			consecutive_right = excluded.consecutive_right,
			last_review_at = excluded.last_review_at,
			next_review_at = excluded.next_review_at`)

	_, err := r.db.ExecContext(ctx, query,
		p.UserID,
		p.PrecedentID,
		p.EasinessFactor,
		p.Interval,
		p.Repetitions,
		p.LastQuality,
		p.ConsecutiveRight,
		utcOrNil(p.LastReviewAt),
		p.NextReviewAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save review progress: %w", translateError(err))
	}
	return nil
}

// DueReview is a precedent due for review with its scheduling state
type DueReview struct {
	models.Precedent
	NextReviewAt time.Time `json:"next_review_at" db:"next_review_at"`
	Repetitions  int       `json:"repetitions" db:"repetitions"`
}

// ListDue returns eligible precedents whose next review is at or before
// now, most overdue first
func (r *ReviewRepository) ListDue(ctx context.Context, track models.Track, userID int64, now time.Time, limit int) ([]DueReview, error) {
	eligible, err := EligibilityPredicate(track, "p", "s")
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	query := r.db.Rebind(`SELECT ` + precedentSelect + `, rp.next_review_at, rp.repetitions
		FROM review_progress rp
		JOIN precedents p ON p.id = rp.precedent_id
		JOIN subjects s ON s.id = p.subject_id
		WHERE rp.user_id = ? AND rp.next_review_at <= ? AND ` + eligible + `
		ORDER BY rp.next_review_at, p.id
		LIMIT ?`)

	due := []DueReview{}
	if err := r.db.SelectContext(ctx, &due, query, userID, now.UTC(), limit); err != nil {
		return nil, fmt.Errorf("failed to list due reviews: %w", err)
	}
	return due, nil
}

// CountDue returns how many eligible reviews are due at now
func (r *ReviewRepository) CountDue(ctx context.Context, track models.Track, userID int64, now time.Time) (int, error) {
	eligible, err := EligibilityPredicate(track, "p", "s")
	if err != nil {
		return 0, err
	}

	query := r.db.Rebind(`SELECT COUNT(*)
		FROM review_progress rp
		JOIN precedents p ON p.id = rp.precedent_id
		JOIN subjects s ON s.id = p.subject_id
		WHERE rp.user_id = ? AND rp.next_review_at <= ? AND ` + eligible)

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, now.UTC()); err != nil {
		return 0, fmt.Errorf("failed to count due reviews: %w", err)
	}
	return count, nil
}
