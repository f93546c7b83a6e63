package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/example/precedents/internal/auth"
	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/pkg/models"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type trackRequest struct {
	Track string `json:"track" binding:"required"`
}

type notificationsRequest struct {
	Enabled        *bool  `json:"enabled" binding:"required"`
	Hour           *int   `json:"hour" binding:"required,min=0,max=23"`
	TelegramChatID *int64 `json:"telegram_chat_id"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := s.auth.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, user, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, session.Token, maxAge, "/", "", s.opts.SecureCookie, true)
	c.JSON(http.StatusOK, loginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, User: user})
}

func (s *Server) logout(c *gin.Context) {
	if token := auth.ExtractToken(c); token != "" {
		if err := s.auth.Logout(c.Request.Context(), token); err != nil {
			respondError(c, err)
			return
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", s.opts.SecureCookie, true)
	c.Status(http.StatusNoContent)
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, auth.CurrentUser(c))
}

func (s *Server) updateTrack(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	track, err := models.ParseTrack(req.Track)
	if err != nil {
		respondError(c, err)
		return
	}

	user := auth.CurrentUser(c)
	if err := s.users.UpdateTrack(c.Request.Context(), user.ID, track); err != nil {
		respondError(c, err)
		return
	}
	user.Track = track
	c.JSON(http.StatusOK, user)
}

func (s *Server) updateNotifications(c *gin.Context) {
	var req notificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := auth.CurrentUser(c)
	chatID := user.TelegramChatID
	if req.TelegramChatID != nil {
		chatID = *req.TelegramChatID
	}
	err := s.users.UpdateNotifications(c.Request.Context(), user.ID, *req.Enabled, *req.Hour, chatID)
	if errors.Is(err, database.ErrConflict) {
		respondError(c, errChatLinked)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	user.NotificationEnabled = *req.Enabled
	user.NotificationHour = *req.Hour
	user.TelegramChatID = chatID
	c.JSON(http.StatusOK, user)
}
