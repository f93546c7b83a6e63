package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/precedents/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SessionCookie is the name of the cookie carrying the session token
const SessionCookie = "session"

const userKey = "precedents_user"

// SetUser stores the authenticated user in the gin context
func SetUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
}

// CurrentUser returns the authenticated user, or nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// ExtractToken reads the session token from the Authorization header
// ("Bearer <token>") or, failing that, from the session cookie
func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// RequireUser rejects requests without a valid session
func (s *Service) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := s.Authenticate(c.Request.Context(), token)
		switch {
		case errors.Is(err, ErrSessionExpired):
			abort(c, http.StatusUnauthorized, "session expired")
			return
		case errors.Is(err, ErrInvalidCredentials):
			abort(c, http.StatusUnauthorized, "invalid session")
			return
		case err != nil:
			log.Error().Err(err).Msg("failed to authenticate request")
			abort(c, http.StatusInternalServerError, "internal error")
			return
		}

		SetUser(c, user)
		c.Next()
	}
}

// RequireAdmin rejects requests from non-administrators. It must run
// after RequireUser.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !user.IsAdmin {
			abort(c, http.StatusForbidden, "administrator access required")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"status": status, "message": message}})
}
