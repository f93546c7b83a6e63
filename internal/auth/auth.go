// Package auth handles accounts, password checks and login sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/pkg/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// bcrypt rejects longer input
	MaxPasswordBytes = 72
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
	ErrWeakPassword       = fmt.Errorf("password must have at least %d characters and at most %d bytes", MinPasswordLength, MaxPasswordBytes)
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmailTaken         = errors.New("email already registered")
)

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Service registers users and manages their sessions
type Service struct {
	users    *database.UserRepository
	sessions *database.SessionRepository
	ttl      time.Duration
	isAdmin  func(email string) bool
	now      func() time.Time
}

// NewService creates an auth service. isAdmin decides which new accounts
// are administrators; nil means none.
func NewService(users *database.UserRepository, sessions *database.SessionRepository, ttl time.Duration, isAdmin func(string) bool) *Service {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &Service{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		isAdmin:  isAdmin,
		now:      time.Now,
	}
}

// Users exposes the user repository
func (s *Service) Users() *database.UserRepository {
	return s.users
}

// NormalizeEmail lower-cases and validates an email address
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Register creates a new account
func (s *Service) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength || len(password) > MaxPasswordBytes {
		return nil, ErrWeakPassword
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:            email,
		Name:             strings.TrimSpace(name),
		PasswordHash:     hash,
		IsAdmin:          s.isAdmin(email),
		NotificationHour: 19,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Login checks credentials and opens a session
func (s *Service) Login(ctx context.Context, email, password string) (*models.Session, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// Logout closes the session identified by token
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a session token to its user
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrInvalidCredentials
	}
	session, err := s.sessions.Get(ctx, token)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	return user, err
}

// PurgeExpired deletes expired sessions
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}
