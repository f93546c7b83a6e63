package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/example/precedents/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewService(
		database.NewUserRepository(db),
		database.NewSessionRepository(db),
		time.Hour,
		func(email string) bool { return email == "root@example.com" },
	)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))
}

func TestNormalizeEmail(t *testing.T) {
	email, err := NormalizeEmail("  Ana@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", email)

	for _, bad := range []string{"", "ana", "Ana <ana@example.com>", "a b@example.com"} {
		_, err := NormalizeEmail(bad)
		assert.ErrorIs(t, err, ErrInvalidEmail, bad)
	}
}

func TestService_RegisterAndLogin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, "Ana@Example.com", " Ana ", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "Ana", user.Name)
	assert.False(t, user.IsAdmin)
	assert.False(t, strings.Contains(user.PasswordHash, "secret-pass"))

	_, err = s.Register(ctx, "ana@example.com", "Ana", "secret-pass")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = s.Register(ctx, "bob@example.com", "Bob", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	admin, err := s.Register(ctx, "root@example.com", "Root", "secret-pass")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	_, _, err = s.Login(ctx, "ana@example.com", "nope-nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = s.Login(ctx, "ghost@example.com", "secret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, loggedIn, err := s.Login(ctx, "ANA@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Len(t, session.Token, 36)

	got, err := s.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, s.Logout(ctx, session.Token))
	_, err = s.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_RegisterRejectsPasswordsOverBcryptLimit(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// 40 characters but 80 bytes
	accented := strings.Repeat("é", 40)
	_, err := s.Register(ctx, "eva@example.com", "Eva", accented)
	assert.ErrorIs(t, err, ErrWeakPassword)
	_, err = s.Users().GetByEmail(ctx, "eva@example.com")
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = s.Register(ctx, "eva@example.com", "Eva", strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrWeakPassword)

	longest := strings.Repeat("a", MaxPasswordBytes)
	_, err = s.Register(ctx, "eva@example.com", "Eva", longest)
	require.NoError(t, err)
	_, _, err = s.Login(ctx, "eva@example.com", longest)
	require.NoError(t, err)
}

func TestService_SessionExpiry(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.Register(ctx, "ana@example.com", "Ana", "secret-pass")
	require.NoError(t, err)
	session, _, err := s.Login(ctx, "ana@example.com", "secret-pass")
	require.NoError(t, err)
	assert.True(t, now.Add(time.Hour).Equal(session.ExpiresAt))

	now = now.Add(2 * time.Hour)
	_, err = s.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)

	// expired sessions are removed on first use
	_, err = s.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_PurgeExpired(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.Register(ctx, "ana@example.com", "Ana", "secret-pass")
	require.NoError(t, err)
	_, _, err = s.Login(ctx, "ana@example.com", "secret-pass")
	require.NoError(t, err)

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	now = now.Add(3 * time.Hour)
	n, err = s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
