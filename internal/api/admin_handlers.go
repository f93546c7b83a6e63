package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/internal/excel"
	"github.com/example/precedents/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type applicabilityRequest struct {
	JudgeState   bool `json:"judge_state"`
	JudgeFederal bool `json:"judge_federal"`
	Prosecutor   bool `json:"prosecutor"`
}

func (a applicabilityRequest) model() models.Applicability {
	return models.Applicability{JudgeState: a.JudgeState, JudgeFederal: a.JudgeFederal, Prosecutor: a.Prosecutor}
}

type subjectRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	Position    int    `json:"position" binding:"min=0"`
	applicabilityRequest
}

func (r subjectRequest) model() *models.Subject {
	return &models.Subject{
		Name:          strings.TrimSpace(r.Name),
		Description:   strings.TrimSpace(r.Description),
		Position:      r.Position,
		Applicability: r.applicabilityRequest.model(),
	}
}

type precedentRequest struct {
	SubjectID int64    `json:"subject_id" binding:"required,min=1"`
	Court     string   `json:"court" binding:"required,max=20"`
	Kind      string   `json:"kind" binding:"max=50"`
	Number    string   `json:"number" binding:"required,max=50"`
	Title     string   `json:"title" binding:"required,max=500"`
	Thesis    string   `json:"thesis" binding:"required"`
	Notes     string   `json:"notes"`
	JudgedAt  *string  `json:"judged_at" binding:"omitempty,datetime=2006-01-02"`
	Tags      []string `json:"tags" binding:"omitempty,dive,max=60"`
	Active    *bool    `json:"active"`
	applicabilityRequest
}

func (r precedentRequest) model() *models.Precedent {
	p := &models.Precedent{
		SubjectID:     r.SubjectID,
		Court:         strings.ToUpper(strings.TrimSpace(r.Court)),
		Kind:          strings.TrimSpace(r.Kind),
		Number:        strings.TrimSpace(r.Number),
		Title:         strings.TrimSpace(r.Title),
		Thesis:        strings.TrimSpace(r.Thesis),
		Notes:         strings.TrimSpace(r.Notes),
		Tags:          models.NormalizeTags(r.Tags),
		Active:        true,
		Applicability: r.applicabilityRequest.model(),
	}
	if r.Active != nil {
		p.Active = *r.Active
	}
	if r.JudgedAt != nil && *r.JudgedAt != "" {
		// already validated by the binding tag
		if t, err := time.Parse("2006-01-02", *r.JudgedAt); err == nil {
			p.JudgedAt = &t
		}
	}
	return p
}

type adminFlagRequest struct {
	IsAdmin *bool `json:"is_admin" binding:"required"`
}

func (s *Server) adminListSubjects(c *gin.Context) {
	subjects, err := s.subjects.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}

func (s *Server) adminCreateSubject(c *gin.Context) {
	var req subjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	subject := req.model()
	if err := s.subjects.Create(c.Request.Context(), subject); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subject)
}

func (s *Server) adminUpdateSubject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req subjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	subject := req.model()
	subject.ID = id
	if err := s.subjects.Update(c.Request.Context(), subject); err != nil {
		respondError(c, err)
		return
	}
	updated, err := s.subjects.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) adminDeleteSubject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.subjects.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) adminListPrecedents(c *gin.Context) {
	var q precedentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	page, err := s.study.Precedents.List(c.Request.Context(), q.filter())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) adminGetPrecedent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.study.Precedents.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// bindPrecedent decodes a precedent body and checks its subject exists
func (s *Server) bindPrecedent(c *gin.Context) (*models.Precedent, bool) {
	var req precedentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return nil, false
	}
	if _, err := s.subjects.GetByID(c.Request.Context(), req.SubjectID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = fmt.Errorf("%w %d", errUnknownSubject, req.SubjectID)
		}
		respondError(c, err)
		return nil, false
	}
	return req.model(), true
}

func (s *Server) adminCreatePrecedent(c *gin.Context) {
	p, ok := s.bindPrecedent(c)
	if !ok {
		return
	}
	if err := s.study.Precedents.Create(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	s.respondPrecedent(c, http.StatusCreated, p.ID)
}

func (s *Server) adminUpdatePrecedent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, ok := s.bindPrecedent(c)
	if !ok {
		return
	}
	p.ID = id
	if err := s.study.Precedents.Update(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	s.respondPrecedent(c, http.StatusOK, id)
}

// respondPrecedent reloads a precedent so the subject name is filled in
func (s *Server) respondPrecedent(c *gin.Context, status int, id int64) {
	p, err := s.study.Precedents.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, p)
}

func (s *Server) adminDeletePrecedent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.study.Precedents.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) adminImport(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("multipart field \"file\" is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	config := excel.ImportConfig{
		SheetName: c.PostForm("sheet"),
		DryRun:    c.PostForm("dry_run") == "true",
	}
	result, err := s.importer.Import(c.Request.Context(), file, header.Filename, config)
	if errors.Is(err, excel.ErrInvalidFile) {
		badRequest(c, err)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info().
		Str("file", header.Filename).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Bool("dry_run", config.DryRun).
		Msg("precedents imported")
	c.JSON(http.StatusOK, result)
}

func (s *Server) adminStats(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := s.study.Statistics.AdminStats(ctx, s.study.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	st.EligibleByTrack = make(map[models.Track]int)
	for _, track := range models.AllTracks() {
		n, err := s.study.Precedents.CountEligible(ctx, track)
		if err != nil {
			respondError(c, err)
			return
		}
		st.EligibleByTrack[track] = n
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) adminSetAdmin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req adminFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.users.SetAdmin(c.Request.Context(), id, *req.IsAdmin); err != nil {
		respondError(c, err)
		return
	}
	user, err := s.users.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
