package models

import "time"

// User is an account of the study service
type User struct {
	ID                  int64     `json:"id" db:"id"`
	Email               string    `json:"email" db:"email"`
	Name                string    `json:"name" db:"name"`
	PasswordHash        string    `json:"-" db:"password_hash"`
	IsAdmin             bool      `json:"is_admin" db:"is_admin"`
	Track               Track     `json:"track" db:"track"`
	TelegramChatID      int64     `json:"telegram_chat_id" db:"telegram_chat_id"`
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int       `json:"notification_hour" db:"notification_hour"` // 0-23, study timezone
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// HasTrack reports whether the user picked a valid track
func (u *User) HasTrack() bool {
	return u.Track.Valid()
}

// Session is a login session identified by an opaque token
type Session struct {
	Token     string    `json:"token" db:"token"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
