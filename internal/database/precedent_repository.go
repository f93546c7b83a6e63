package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/precedents/pkg/models"
	"github.com/jmoiron/sqlx"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Read state filters for ListEligible
const (
	ReadStateAll    = "all"
	ReadStateRead   = "read"
	ReadStateUnread = "unread"
)

const precedentSelect = `p.id, p.subject_id, s.name AS subject_name, p.court, p.kind,
	p.number, p.title, p.thesis, p.notes, p.judged_at, p.tags, p.active,
	p.applies_judge_state, p.applies_judge_federal, p.applies_prosecutor,
	p.created_at, p.updated_at`

// PrecedentFilter narrows precedent listings
type PrecedentFilter struct {
	SubjectID int64
	Court     string
	Tag       string
	Query     string // matched case-insensitively against number, title and thesis
	ReadState string // all, read or unread; user listings only
	Limit     int
	Offset    int
}

// Normalize clamps paging values and fills defaults
func (f *PrecedentFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch f.ReadState {
	case ReadStateRead, ReadStateUnread:
	default:
		f.ReadState = ReadStateAll
	}
	f.Court = strings.ToUpper(strings.TrimSpace(f.Court))
	f.Tag = strings.ToLower(strings.TrimSpace(f.Tag))
	f.Query = strings.TrimSpace(f.Query)
}

// where appends the common filter conditions
func (f *PrecedentFilter) where(conds []string, args []interface{}) ([]string, []interface{}) {
	if f.SubjectID > 0 {
		conds = append(conds, "p.subject_id = ?")
		args = append(args, f.SubjectID)
	}
	if f.Court != "" {
		conds = append(conds, "UPPER(p.court) = ?")
		args = append(args, f.Court)
	}
	if f.Tag != "" {
		// tags are stored as a JSON array of strings
		conds = append(conds, `p.tags LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(models.EncodeTag(f.Tag))+"%")
	}
	if f.Query != "" {
		// search_text is lowercased in Go; SQLite's LOWER only folds ASCII
		conds = append(conds, `p.search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(f.Query))+"%")
	}
	return conds, args
}

// Page is one page of a listing with the total number of matches
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// PrecedentRepository handles database operations for precedents
type PrecedentRepository struct {
	db *sqlx.DB
}

// NewPrecedentRepository creates a new repository instance
func NewPrecedentRepository(db *sqlx.DB) *PrecedentRepository {
	return &PrecedentRepository{db: db}
}

// List returns precedents regardless of eligibility, for administrators
func (r *PrecedentRepository) List(ctx context.Context, filter PrecedentFilter) (*Page[models.Precedent], error) {
	filter.Normalize()
	conds, args := filter.where([]string{"1 = 1"}, nil)
	where := strings.Join(conds, " AND ")

	var total int
	countQuery := r.db.Rebind("SELECT COUNT(*) FROM precedents p JOIN subjects s ON s.id = p.subject_id WHERE " + where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to count precedents: %w", err)
	}

	query := r.db.Rebind(`SELECT ` + precedentSelect + `
		FROM precedents p
		JOIN subjects s ON s.id = p.subject_id
		WHERE ` + where + `
		ORDER BY s.position, s.name, p.court, p.number
		LIMIT ? OFFSET ?`)

	items := []models.Precedent{}
	if err := r.db.SelectContext(ctx, &items, query, append(args, filter.Limit, filter.Offset)...); err != nil {
		return nil, fmt.Errorf("failed to list precedents: %w", err)
	}
	return &Page[models.Precedent]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// ListEligible returns the precedents a user on track may study, annotated
// with the user's read state
func (r *PrecedentRepository) ListEligible(ctx context.Context, track models.Track, userID int64, filter PrecedentFilter) (*Page[models.StudyItem], error) {
	eligible, err := EligibilityPredicate(track, "p", "s")
	if err != nil {
		return nil, err
	}
	filter.Normalize()

	conds, args := filter.where([]string{eligible}, []interface{}{userID})
	switch filter.ReadState {
	case ReadStateRead:
		conds = append(conds, "pr.precedent_id IS NOT NULL")
	case ReadStateUnread:
		conds = append(conds, "pr.precedent_id IS NULL")
	}
	where := strings.Join(conds, " AND ")
	from := `FROM precedents p
		JOIN subjects s ON s.id = p.subject_id
		LEFT JOIN precedent_reads pr ON pr.precedent_id = p.id AND pr.user_id = ?`

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) "+from+" WHERE "+where), args...); err != nil {
		return nil, fmt.Errorf("failed to count eligible precedents: %w", err)
	}

	query := r.db.Rebind(`SELECT ` + precedentSelect + `,
			pr.precedent_id IS NOT NULL AS is_read, pr.read_at
		` + from + `
		WHERE ` + where + `
		ORDER BY s.position, s.name, p.court, p.number
		LIMIT ? OFFSET ?`)

	items := []models.StudyItem{}
	if err := r.db.SelectContext(ctx, &items, query, append(args, filter.Limit, filter.Offset)...); err != nil {
		return nil, fmt.Errorf("failed to list eligible precedents: %w", err)
	}
	return &Page[models.StudyItem]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// GetEligible returns a single precedent if it is eligible for track.
// Precedents outside the track are reported as ErrNotFound.
func (r *PrecedentRepository) GetEligible(ctx context.Context, track models.Track, userID, id int64) (*models.StudyItem, error) {
	eligible, err := EligibilityPredicate(track, "p", "s")
	if err != nil {
		return nil, err
	}

	query := r.db.Rebind(`SELECT ` + precedentSelect + `,
			pr.precedent_id IS NOT NULL AS is_read, pr.read_at
		FROM precedents p
		JOIN subjects s ON s.id = p.subject_id
		LEFT JOIN precedent_reads pr ON pr.precedent_id = p.id AND pr.user_id = ?
		WHERE p.id = ? AND ` + eligible)

	var item models.StudyItem
	err = r.db.GetContext(ctx, &item, query, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get precedent: %w", err)
	}
	return &item, nil
}

// CountEligible returns how many precedents are eligible for track
func (r *PrecedentRepository) CountEligible(ctx context.Context, track models.Track) (int, error) {
	eligible, err := EligibilityPredicate(track, "p", "s")
	if err != nil {
		return 0, err
	}
	var count int
	query := "SELECT COUNT(*) FROM precedents p JOIN subjects s ON s.id = p.subject_id WHERE " + eligible
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count eligible precedents: %w", err)
	}
	return count, nil
}

// CountUnread returns how many eligible precedents userID has not read
func (r *PrecedentRepository) CountUnread(ctx context.Context, track models.Track, userID int64) (int, error) {
	page, err := r.ListEligible(ctx, track, userID, PrecedentFilter{ReadState: ReadStateUnread, Limit: 1})
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}

// GetByID returns a precedent by ID regardless of eligibility
func (r *PrecedentRepository) GetByID(ctx context.Context, id int64) (*models.Precedent, error) {
	query := r.db.Rebind(`SELECT ` + precedentSelect + `
		FROM precedents p
		JOIN subjects s ON s.id = p.subject_id
		WHERE p.id = ?`)

	var precedent models.Precedent
	err := r.db.GetContext(ctx, &precedent, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get precedent: %w", err)
	}
	return &precedent, nil
}

// FindByCourtAndNumber looks a precedent up by its natural key
func (r *PrecedentRepository) FindByCourtAndNumber(ctx context.Context, court, number string) (*models.Precedent, error) {
	query := r.db.Rebind(`SELECT ` + precedentSelect + `
		FROM precedents p
		JOIN subjects s ON s.id = p.subject_id
		WHERE p.court = ? AND p.number = ?`)

	var precedent models.Precedent
	err := r.db.GetContext(ctx, &precedent, query, court, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find precedent: %w", err)
	}
	return &precedent, nil
}

// Create inserts a new precedent
func (r *PrecedentRepository) Create(ctx context.Context, p *models.Precedent) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO precedents (subject_id, court, kind, number, title, thesis, notes,
			judged_at, tags, search_text, active,
			applies_judge_state, applies_judge_federal, applies_prosecutor,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query,
		p.SubjectID,
		p.Court,
		p.Kind,
		p.Number,
		p.Title,
		p.Thesis,
		p.Notes,
		utcOrNil(p.JudgedAt),
		p.Tags,
		searchText(p),
		p.Active,
		p.JudgeState,
		p.JudgeFederal,
		p.Prosecutor,
		now,
		now,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create precedent: %w", translateError(err))
	}

	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// Update modifies an existing precedent
func (r *PrecedentRepository) Update(ctx context.Context, p *models.Precedent) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		UPDATE precedents
		SET subject_id = ?,
			court = ?,
			kind = ?,
			number = ?,
			title = ?,
			thesis = ?,
			notes = ?,
			judged_at = ?,
			tags = ?,
			search_text = ?,
			active = ?,
			applies_judge_state = ?,
			applies_judge_federal = ?,
			applies_prosecutor = ?,
			updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		p.SubjectID,
		p.Court,
		p.Kind,
		p.Number,
		p.Title,
		p.Thesis,
		p.Notes,
		utcOrNil(p.JudgedAt),
		p.Tags,
		searchText(p),
		p.Active,
		p.JudgeState,
		p.JudgeFederal,
		p.Prosecutor,
		now,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update precedent: %w", translateError(err))
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	p.UpdatedAt = now
	return nil
}

// Delete removes a precedent together with its reads, answers and reviews
func (r *PrecedentRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"precedent_reads", "read_events", "answers", "review_progress"} {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM "+table+" WHERE precedent_id = ?"), id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM precedents WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete precedent: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func utcOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func searchText(p *models.Precedent) string {
	return strings.ToLower(strings.Join([]string{p.Number, p.Title, p.Thesis}, "\n"))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
