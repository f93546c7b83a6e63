package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/precedents/pkg/models"
	"github.com/jmoiron/sqlx"
)

// StatisticsRepository runs aggregate queries for dashboards
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// SubjectStats returns per-subject eligible, read and answer counts for a
// user on track
func (r *StatisticsRepository) SubjectStats(ctx context.Context, track models.Track, userID int64) ([]models.SubjectStat, error) {
	eligible, err := EligibilityPredicate(track, "p", "s")
	if err != nil {
		return nil, err
	}

	query := r.db.Rebind(`
		SELECT s.id AS subject_id, s.name AS subject_name,
			COUNT(p.id) AS eligible,
			COUNT(pr.precedent_id) AS read_count,
			COALESCE(SUM(a.total), 0) AS answers,
			COALESCE(SUM(a.correct), 0) AS correct
		FROM subjects s
		JOIN precedents p ON p.subject_id = s.id
		LEFT JOIN precedent_reads pr ON pr.precedent_id = p.id AND pr.user_id = ?
		LEFT JOIN (
			SELECT precedent_id,
				COUNT(*) AS total,
				SUM(CASE WHEN correct THEN 1 ELSE 0 END) AS correct
			FROM answers
			WHERE user_id = ?
			GROUP BY precedent_id
		) a ON a.precedent_id = p.id
		WHERE ` + eligible + `
		GROUP BY s.id, s.name, s.position
		ORDER BY s.position, s.name`)

	stats := []models.SubjectStat{}
	if err := r.db.SelectContext(ctx, &stats, query, userID, userID); err != nil {
		return nil, fmt.Errorf("failed to get subject statistics: %w", err)
	}
	return stats, nil
}

// AdminStats returns service-wide totals; "last week" is the 7 days before now
func (r *StatisticsRepository) AdminStats(ctx context.Context, now time.Time) (*models.AdminStats, error) {
	weekAgo := now.UTC().AddDate(0, 0, -7)
	query := r.db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM subjects) AS subjects,
			(SELECT COUNT(*) FROM precedents) AS precedents,
			(SELECT COUNT(*) FROM precedents WHERE active = TRUE) AS active_precedents,
			(SELECT COUNT(*) FROM read_events WHERE read_at >= ?) AS reads_last_week,
			(SELECT COUNT(DISTINCT user_id) FROM read_events WHERE read_at >= ?) AS active_users_last_week`)

	var stats models.AdminStats
	if err := r.db.GetContext(ctx, &stats, query, weekAgo, weekAgo); err != nil {
		return nil, fmt.Errorf("failed to get admin statistics: %w", err)
	}
	return &stats, nil
}
