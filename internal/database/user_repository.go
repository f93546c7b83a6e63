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

const userColumns = `id, email, name, password_hash, is_admin, track, telegram_chat_id,
	notification_enabled, notification_hour, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. A duplicate email returns ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO users (email, name, password_hash, is_admin, track, telegram_chat_id,
			notification_enabled, notification_hour, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.IsAdmin,
		string(user.Track),
		user.TelegramChatID,
		user.NotificationEnabled,
		user.NotificationHour,
		now,
		now,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateError(err))
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID returns a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByEmail returns a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = ?", email)
}

// GetByTelegramChatID returns the user that linked chatID
func (r *UserRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*models.User, error) {
	if chatID == 0 {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, "telegram_chat_id = ?", chatID)
}

// UpdateTrack sets the career track of a user
func (r *UserRepository) UpdateTrack(ctx context.Context, userID int64, track models.Track) error {
	return r.exec(ctx, "UPDATE users SET track = ?, updated_at = ? WHERE id = ?",
		string(track), time.Now().UTC(), userID)
}

// UpdateNotifications changes reminder settings
func (r *UserRepository) UpdateNotifications(ctx context.Context, userID int64, enabled bool, hour int, telegramChatID int64) error {
	return r.exec(ctx, `
		UPDATE users
		SET notification_enabled = ?, notification_hour = ?, telegram_chat_id = ?, updated_at = ?
		WHERE id = ?`,
		enabled, hour, telegramChatID, time.Now().UTC(), userID)
}

// SetAdmin grants or revokes administrator rights
func (r *UserRepository) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	return r.exec(ctx, "UPDATE users SET is_admin = ?, updated_at = ? WHERE id = ?",
		isAdmin, time.Now().UTC(), userID)
}

// ListForNotification returns users with reminders enabled at hour that
// have a linked chat and a track
func (r *UserRepository) ListForNotification(ctx context.Context, hour int) ([]models.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users
		WHERE notification_enabled = TRUE
			AND notification_hour = ?
			AND telegram_chat_id <> 0
			AND track <> ''
		ORDER BY id`)

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query, hour); err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}

func (r *UserRepository) getOne(ctx context.Context, condition string, args ...interface{}) (*models.User, error) {
	var user models.User
	query := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE " + condition)
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translateError(err))
	}
	return expectAffected(result)
}
