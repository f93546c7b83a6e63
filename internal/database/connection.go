package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique or referential violations
	ErrConflict = errors.New("conflict")
)

// Open connects to the database and creates the schema
func Open(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite3" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// SQLite doesn't support multiple writers, and an in-memory
		// database only lives as long as its single connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the tables and indexes if they don't exist
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema(db.DriverName()) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w\n%s", err, stmt)
		}
	}
	return nil
}

func schema(driver string) []string {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	ts := "TIMESTAMP"
	float := "REAL"
	if driver == "postgres" {
		id = "BIGSERIAL PRIMARY KEY"
		ts = "TIMESTAMPTZ"
		float = "DOUBLE PRECISION"
	}
	r := strings.NewReplacer("{{id}}", id, "{{ts}}", ts, "{{float}}", float)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id {{id}},
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			track TEXT NOT NULL DEFAULT '',
			telegram_chat_id BIGINT NOT NULL DEFAULT 0,
			notification_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			notification_hour INTEGER NOT NULL DEFAULT 19,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_telegram_chat ON users(telegram_chat_id) WHERE telegram_chat_id <> 0`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at {{ts}} NOT NULL,
			created_at {{ts}} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS subjects (
			id {{id}},
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0,
			applies_judge_state BOOLEAN NOT NULL DEFAULT FALSE,
			applies_judge_federal BOOLEAN NOT NULL DEFAULT FALSE,
			applies_prosecutor BOOLEAN NOT NULL DEFAULT FALSE,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS precedents (
			id {{id}},
			subject_id BIGINT NOT NULL REFERENCES subjects(id),
			court TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT '',
			number TEXT NOT NULL,
			title TEXT NOT NULL,
			thesis TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			judged_at {{ts}},
			tags TEXT NOT NULL DEFAULT '[]',
			search_text TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			applies_judge_state BOOLEAN NOT NULL DEFAULT FALSE,
			applies_judge_federal BOOLEAN NOT NULL DEFAULT FALSE,
			applies_prosecutor BOOLEAN NOT NULL DEFAULT FALSE,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL,
			UNIQUE(court, number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_precedents_subject ON precedents(subject_id)`,
		`CREATE TABLE IF NOT EXISTS precedent_reads (
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			precedent_id BIGINT NOT NULL REFERENCES precedents(id) ON DELETE CASCADE,
			read_at {{ts}} NOT NULL,
			PRIMARY KEY (user_id, precedent_id)
		)`,
		`CREATE TABLE IF NOT EXISTS read_events (
			id {{id}},
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			precedent_id BIGINT NOT NULL REFERENCES precedents(id) ON DELETE CASCADE,
			read_at {{ts}} NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_read_events_user ON read_events(user_id, read_at)`,
		`CREATE TABLE IF NOT EXISTS answers (
			id {{id}},
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			precedent_id BIGINT NOT NULL REFERENCES precedents(id) ON DELETE CASCADE,
			correct BOOLEAN NOT NULL,
			quality INTEGER NOT NULL,
			answered_at {{ts}} NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_user ON answers(user_id, answered_at)`,
		`CREATE TABLE IF NOT EXISTS review_progress (
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			precedent_id BIGINT NOT NULL REFERENCES precedents(id) ON DELETE CASCADE,
			easiness_factor {{float}} NOT NULL DEFAULT 2.5,
			interval_days INTEGER NOT NULL DEFAULT 1,
			repetitions INTEGER NOT NULL DEFAULT 0,
			last_quality INTEGER NOT NULL DEFAULT 3,
			consecutive_right INTEGER NOT NULL DEFAULT 0,
			last_review_at {{ts}},
			next_review_at {{ts}} NOT NULL,
			PRIMARY KEY (user_id, precedent_id)
		)`,
	}

	for i, s := range stmts {
		stmts[i] = r.Replace(s)
	}
	return stmts
}

// translateError maps driver constraint errors onto ErrConflict
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
