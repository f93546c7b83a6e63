package api

import (
	"net/http"

	"github.com/example/precedents/internal/auth"
	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/internal/metrics"
	"github.com/gin-gonic/gin"
)

type precedentQuery struct {
	SubjectID int64  `form:"subject_id" binding:"omitempty,min=1"`
	Court     string `form:"court" binding:"max=20"`
	Tag       string `form:"tag" binding:"max=60"`
	Query     string `form:"q" binding:"max=200"`
	Read      string `form:"read" binding:"omitempty,oneof=all read unread"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

func (q precedentQuery) filter() database.PrecedentFilter {
	return database.PrecedentFilter{
		SubjectID: q.SubjectID,
		Court:     q.Court,
		Tag:       q.Tag,
		Query:     q.Query,
		ReadState: q.Read,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
}

type answerRequest struct {
	Correct *bool `json:"correct" binding:"required"`
	Quality *int  `json:"quality"`
}

type dueQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type heatmapQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=3660"`
}

func (s *Server) listSubjects(c *gin.Context) {
	user := auth.CurrentUser(c)
	subjects, err := s.subjects.ListForTrack(c.Request.Context(), user.Track, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}

func (s *Server) listPrecedents(c *gin.Context) {
	var q precedentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	user := auth.CurrentUser(c)
	page, err := s.study.Precedents.ListEligible(c.Request.Context(), user.Track, user.ID, q.filter())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) getPrecedent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user := auth.CurrentUser(c)
	item, err := s.study.Precedents.GetEligible(c.Request.Context(), user.Track, user.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) markRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	event, err := s.study.MarkRead(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.ReadsRecorded.Inc()
	c.JSON(http.StatusCreated, event)
}

func (s *Server) unmarkRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.study.Unmark(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) answer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := s.study.Answer(c.Request.Context(), auth.CurrentUser(c), id, *req.Correct, req.Quality)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.RecordAnswer(*req.Correct)
	c.JSON(http.StatusCreated, result)
}

func (s *Server) dueReviews(c *gin.Context) {
	var q dueQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	user := auth.CurrentUser(c)
	due, err := s.study.Reviews.ListDue(c.Request.Context(), user.Track, user.ID, s.study.Now(), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, due)
}

func (s *Server) stats(c *gin.Context) {
	summary, err := s.study.Summary(c.Request.Context(), auth.CurrentUser(c), 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) heatmap(c *gin.Context) {
	var q heatmapQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	days := q.Days
	if days == 0 {
		days = s.opts.HeatmapDays
	}
	cells, err := s.study.Heatmap(c.Request.Context(), auth.CurrentUser(c), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "cells": cells})
}
