// Package study holds the operations shared by the HTTP API, the Telegram
// bot and the reminder scheduler: marking reads, answering self-checks and
// assembling statistics.
package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/internal/spaced_repetition"
	"github.com/example/precedents/internal/stats"
	"github.com/example/precedents/pkg/models"
	"github.com/jmoiron/sqlx"
)

// Service wires the repositories used for studying
type Service struct {
	Precedents *database.PrecedentRepository
	Reads      *database.ReadRepository
	Answers    *database.AnswerRepository
	Reviews    *database.ReviewRepository
	Statistics *database.StatisticsRepository

	sm2      *spaced_repetition.SM2
	location *time.Location
	now      func() time.Time
}

// NewService creates a Service; loc sets the day boundaries for streaks
func NewService(db *sqlx.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		Precedents: database.NewPrecedentRepository(db),
		Reads:      database.NewReadRepository(db),
		Answers:    database.NewAnswerRepository(db),
		Reviews:    database.NewReviewRepository(db),
		Statistics: database.NewStatisticsRepository(db),
		sm2:        spaced_repetition.NewSM2(),
		location:   loc,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Location returns the study timezone
func (s *Service) Location() *time.Location {
	return s.location
}

// Now returns the current time from the service clock
func (s *Service) Now() time.Time {
	return s.now()
}

// MarkRead marks an eligible precedent read for user
func (s *Service) MarkRead(ctx context.Context, user *models.User, precedentID int64) (*models.ReadEvent, error) {
	if _, err := s.Precedents.GetEligible(ctx, user.Track, user.ID, precedentID); err != nil {
		return nil, err
	}
	return s.Reads.MarkRead(ctx, user.ID, precedentID, s.now())
}

// Unmark clears the read state of an eligible precedent
func (s *Service) Unmark(ctx context.Context, user *models.User, precedentID int64) error {
	if _, err := s.Precedents.GetEligible(ctx, user.Track, user.ID, precedentID); err != nil {
		return err
	}
	return s.Reads.Unmark(ctx, user.ID, precedentID)
}

// AnswerResult is the outcome of recording an answer
type AnswerResult struct {
	Answer   *models.Answer         `json:"answer"`
	Review   *models.ReviewProgress `json:"review"`
	Mastered bool                   `json:"mastered"`
}

// Answer records a self-check answer and reschedules the precedent's review
func (s *Service) Answer(ctx context.Context, user *models.User, precedentID int64, correct bool, quality *int) (*AnswerResult, error) {
	if _, err := s.Precedents.GetEligible(ctx, user.Track, user.ID, precedentID); err != nil {
		return nil, err
	}
	q, err := spaced_repetition.QualityFromAnswer(correct, quality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}

	now := s.now()
	answer := &models.Answer{
		UserID:      user.ID,
		PrecedentID: precedentID,
		Correct:     correct,
		Quality:     int(q),
		AnsweredAt:  now,
	}
	if err := s.Answers.Create(ctx, answer); err != nil {
		return nil, err
	}

	progress, err := s.Reviews.Get(ctx, user.ID, precedentID)
	if errors.Is(err, database.ErrNotFound) {
		progress = models.NewReviewProgress(user.ID, precedentID, now)
	} else if err != nil {
		return nil, err
	}
	s.sm2.Process(progress, q, now)
	if err := s.Reviews.Upsert(ctx, progress); err != nil {
		return nil, err
	}

	return &AnswerResult{Answer: answer, Review: progress, Mastered: s.sm2.IsMastered(progress)}, nil
}

// Summary assembles the statistics page for user. heatmapDays of 0 leaves
// the heatmap out.
func (s *Service) Summary(ctx context.Context, user *models.User, heatmapDays int) (*stats.Summary, error) {
	if !user.HasTrack() {
		return nil, models.ErrNoTrack
	}
	now := s.now()

	subjects, err := s.Statistics.SubjectStats(ctx, user.Track, user.ID)
	if err != nil {
		return nil, err
	}

	// Longest streak needs the whole history
	events, err := s.Reads.ListEvents(ctx, user.ID, time.Time{})
	if err != nil {
		return nil, err
	}
	answers, err := s.Answers.ListByUser(ctx, user.ID, time.Time{})
	if err != nil {
		return nil, err
	}
	due, err := s.Reviews.CountDue(ctx, user.Track, user.ID, now)
	if err != nil {
		return nil, err
	}

	readTimes := readTimesOf(events)

	summary := stats.Summarize(stats.Input{
		Track:       user.Track,
		Subjects:    subjects,
		ReadTimes:   readTimes,
		Answers:     answers,
		DueReviews:  due,
		Now:         now,
		Location:    s.location,
		HeatmapDays: heatmapDays,
	})
	return &summary, nil
}

// Heatmap returns only the activity heatmap of the last days days
func (s *Service) Heatmap(ctx context.Context, user *models.User, days int) ([]stats.HeatmapCell, error) {
	now := s.now()
	since := stats.StartOfDay(now, s.location).AddDate(0, 0, -days)
	events, err := s.Reads.ListEvents(ctx, user.ID, since)
	if err != nil {
		return nil, err
	}
	readTimes := readTimesOf(events)
	return stats.Heatmap(readTimes, now, days, s.location), nil
}

// Reminder is what a user is told when reminded to study
type Reminder struct {
	UserID       int64
	ChatID       int64
	Name         string
	Streak       stats.StreakInfo
	Unread       int
	DueReviews   int
	ReadsToday   int
	StudiedToday bool
}

// ReminderFor collects the data for a study reminder
func (s *Service) ReminderFor(ctx context.Context, user *models.User) (*Reminder, error) {
	if !user.HasTrack() {
		return nil, models.ErrNoTrack
	}
	now := s.now()

	events, err := s.Reads.ListEvents(ctx, user.ID, time.Time{})
	if err != nil {
		return nil, err
	}
	readTimes := readTimesOf(events)

	readsToday, err := s.Reads.CountReadToday(ctx, user.ID, now, s.location)
	if err != nil {
		return nil, err
	}
	unread, err := s.Precedents.CountUnread(ctx, user.Track, user.ID)
	if err != nil {
		return nil, err
	}
	due, err := s.Reviews.CountDue(ctx, user.Track, user.ID, now)
	if err != nil {
		return nil, err
	}

	streak := stats.Streaks(readTimes, now, s.location)
	return &Reminder{
		UserID:       user.ID,
		ChatID:       user.TelegramChatID,
		Name:         user.Name,
		Streak:       streak,
		Unread:       unread,
		DueReviews:   due,
		ReadsToday:   readsToday,
		StudiedToday: readsToday > 0,
	}, nil
}

func readTimesOf(events []models.ReadEvent) []time.Time {
	out := make([]time.Time, len(events))
	for i, e := range events {
		out[i] = e.ReadAt
	}
	return out
}
