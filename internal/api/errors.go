package api

import (
	"errors"
	"net/http"

	"github.com/example/precedents/internal/auth"
	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/internal/study"
	"github.com/example/precedents/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var (
	errTrackNotSelected = errors.New("track not selected")
	errInvalidID        = errors.New("id must be a positive integer")
	errUnknownSubject   = errors.New("unknown subject")
	errChatLinked       = errors.New("telegram chat already linked to another account")
)

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrConflict),
		errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, models.ErrNoTrack),
		errors.Is(err, errTrackNotSelected),
		errors.Is(err, errChatLinked):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrInvalidTrack),
		errors.Is(err, study.ErrInvalidAnswer),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, errInvalidID),
		errors.Is(err, errUnknownSubject),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes the JSON error body for err
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	message := err.Error()
	switch status {
	case http.StatusNotFound:
		message = "not found"
	case http.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		message = "internal error"
	}
	if errors.Is(err, models.ErrNoTrack) {
		message = errTrackNotSelected.Error()
	}
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"status": status, "message": message}})
}

// badRequest reports a malformed request body or query
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": gin.H{"status": http.StatusBadRequest, "message": err.Error()}})
}
