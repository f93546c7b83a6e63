package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/precedents/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer", "Bearer abc123", "", "abc123"},
		{"case insensitive scheme", "bearer abc123", "", "abc123"},
		{"cookie", "", "cookie-token", "cookie-token"},
		{"header wins over cookie", "Bearer abc", "cookie-token", "abc"},
		{"basic auth", "Basic abc123", "", ""},
		{"only bearer", "Bearer", "", ""},
		{"none", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				c.Request.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, ExtractToken(c))
		})
	}
}

func TestRequireUserAndAdmin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "ana@example.com", "Ana", "secret-pass")
	require.NoError(t, err)
	_, err = s.Register(ctx, "root@example.com", "Root", "secret-pass")
	require.NoError(t, err)
	userSession, _, err := s.Login(ctx, "ana@example.com", "secret-pass")
	require.NoError(t, err)
	adminSession, _, err := s.Login(ctx, "root@example.com", "secret-pass")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", s.RequireUser(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": CurrentUser(c).Email})
	})
	router.GET("/admin", s.RequireUser(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	do := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/me", "00000000-0000-0000-0000-000000000000").Code)

	w := do("/me", userSession.Token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ana@example.com")

	assert.Equal(t, http.StatusForbidden, do("/admin", userSession.Token).Code)
	assert.Equal(t, http.StatusNoContent, do("/admin", adminSession.Token).Code)
}

func TestCurrentUser_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentUser(c))

	SetUser(c, &models.User{ID: 3})
	assert.Equal(t, int64(3), CurrentUser(c).ID)
}
