package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/precedents/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ReadRepository tracks which precedents users have studied
type ReadRepository struct {
	db *sqlx.DB
}

// NewReadRepository creates a new repository instance
func NewReadRepository(db *sqlx.DB) *ReadRepository {
	return &ReadRepository{db: db}
}

// MarkRead sets the read state of a precedent and appends a read event.
// Marking an already read precedent keeps the first read time but still
// records the event, so re-reading counts towards streaks.
func (r *ReadRepository) MarkRead(ctx context.Context, userID, precedentID int64, at time.Time) (*models.ReadEvent, error) {
	at = at.UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO precedent_reads (user_id, precedent_id, read_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, precedent_id) DO NOTHING`),
		userID, precedentID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to mark read: %w", translateError(err))
	}

	event := &models.ReadEvent{UserID: userID, PrecedentID: precedentID, ReadAt: at}
	err = tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO read_events (user_id, precedent_id, read_at)
		VALUES (?, ?, ?)
		RETURNING id`),
		userID, precedentID, at).Scan(&event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to record read event: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return event, nil
}

// Unmark clears the read state. Read events are kept as study history.
func (r *ReadRepository) Unmark(ctx context.Context, userID, precedentID int64) error {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind("DELETE FROM precedent_reads WHERE user_id = ? AND precedent_id = ?"),
		userID, precedentID)
	if err != nil {
		return fmt.Errorf("failed to unmark read: %w", err)
	}
	return expectAffected(result)
}

// IsRead reports whether the user has the precedent marked read
func (r *ReadRepository) IsRead(ctx context.Context, userID, precedentID int64) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		r.db.Rebind("SELECT COUNT(*) FROM precedent_reads WHERE user_id = ? AND precedent_id = ?"),
		userID, precedentID)
	if err != nil {
		return false, fmt.Errorf("failed to check read state: %w", err)
	}
	return count > 0, nil
}

// ListEvents returns read events of a user since the given time, oldest first
func (r *ReadRepository) ListEvents(ctx context.Context, userID int64, since time.Time) ([]models.ReadEvent, error) {
	query := r.db.Rebind(`
		SELECT e.id, e.user_id, e.precedent_id, p.subject_id, e.read_at
		FROM read_events e
		JOIN precedents p ON p.id = e.precedent_id
		WHERE e.user_id = ? AND e.read_at >= ?
		ORDER BY e.read_at, e.id`)

	events := []models.ReadEvent{}
	if err := r.db.SelectContext(ctx, &events, query, userID, since.UTC()); err != nil {
		return nil, fmt.Errorf("failed to list read events: %w", err)
	}
	return events, nil
}

// CountEventsBetween returns the number of read events in [from, to)
func (r *ReadRepository) CountEventsBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		r.db.Rebind("SELECT COUNT(*) FROM read_events WHERE user_id = ? AND read_at >= ? AND read_at < ?"),
		userID, from.UTC(), to.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to count read events: %w", err)
	}
	return count, nil
}

// CountReadToday returns the read events of userID on the calendar day of
// now in loc
func (r *ReadRepository) CountReadToday(ctx context.Context, userID int64, now time.Time, loc *time.Location) (int, error) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return r.CountEventsBetween(ctx, userID, start, start.AddDate(0, 0, 1))
}
