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

const subjectColumns = `id, name, description, position,
	applies_judge_state, applies_judge_federal, applies_prosecutor,
	created_at, updated_at`

// SubjectRepository handles database operations for subjects
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns all subjects ordered for display
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	subjects := []models.Subject{}
	query := "SELECT " + subjectColumns + " FROM subjects ORDER BY position, name"
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	return subjects, nil
}

// ListForTrack returns subjects visible on track with the number of
// eligible precedents and how many of them userID has read. Subjects
// without eligible precedents are left out.
func (r *SubjectRepository) ListForTrack(ctx context.Context, track models.Track, userID int64) ([]models.SubjectSummary, error) {
	eligible, err := EligibilityPredicate(track, "p", "s")
	if err != nil {
		return nil, err
	}

	query := `
		SELECT s.id, s.name, s.description, s.position,
			s.applies_judge_state, s.applies_judge_federal, s.applies_prosecutor,
			s.created_at, s.updated_at,
			COUNT(p.id) AS eligible_count,
			COUNT(pr.precedent_id) AS read_count
		FROM subjects s
		JOIN precedents p ON p.subject_id = s.id
		LEFT JOIN precedent_reads pr ON pr.precedent_id = p.id AND pr.user_id = ?
		WHERE ` + eligible + `
		GROUP BY s.id, s.name, s.description, s.position,
			s.applies_judge_state, s.applies_judge_federal, s.applies_prosecutor,
			s.created_at, s.updated_at
		ORDER BY s.position, s.name`

	subjects := []models.SubjectSummary{}
	if err := r.db.SelectContext(ctx, &subjects, r.db.Rebind(query), userID); err != nil {
		return nil, fmt.Errorf("failed to list subjects for track: %w", err)
	}
	return subjects, nil
}

// GetByID returns a subject by ID
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*models.Subject, error) {
	var subject models.Subject
	query := r.db.Rebind("SELECT " + subjectColumns + " FROM subjects WHERE id = ?")
	err := r.db.GetContext(ctx, &subject, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return &subject, nil
}

// GetByName returns a subject by its exact name
func (r *SubjectRepository) GetByName(ctx context.Context, name string) (*models.Subject, error) {
	var subject models.Subject
	query := r.db.Rebind("SELECT " + subjectColumns + " FROM subjects WHERE name = ?")
	err := r.db.GetContext(ctx, &subject, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject by name: %w", err)
	}
	return &subject, nil
}

// Create inserts a new subject and fills its ID and timestamps
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO subjects (name, description, position,
			applies_judge_state, applies_judge_federal, applies_prosecutor,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query,
		subject.Name,
		subject.Description,
		subject.Position,
		subject.JudgeState,
		subject.JudgeFederal,
		subject.Prosecutor,
		now,
		now,
	).Scan(&subject.ID)
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", translateError(err))
	}

	subject.CreatedAt = now
	subject.UpdatedAt = now
	return nil
}

// Update modifies an existing subject
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		UPDATE subjects
		SET name = ?,
			description = ?,
			position = ?,
			applies_judge_state = ?,
			applies_judge_federal = ?,
			applies_prosecutor = ?,
			updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		subject.Name,
		subject.Description,
		subject.Position,
		subject.JudgeState,
		subject.JudgeFederal,
		subject.Prosecutor,
		now,
		subject.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subject: %w", translateError(err))
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	subject.UpdatedAt = now
	return nil
}

// Delete removes a subject. Subjects that still hold precedents cannot be
// deleted.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, tx.Rebind("SELECT COUNT(*) FROM precedents WHERE subject_id = ?"), id); err != nil {
		return fmt.Errorf("failed to count precedents: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: subject has %d precedents", ErrConflict, count)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM subjects WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func expectAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
