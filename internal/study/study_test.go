package study

import (
	"context"
	"testing"
	"time"

	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	db      *sqlx.DB
	svc     *Service
	user    *models.User
	stateP  *models.Precedent // eligible for state judges
	fedOnly *models.Precedent // federal judges only
	now     time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	subject := &models.Subject{Name: "Administrative Law",
		Applicability: models.Applicability{JudgeState: true, JudgeFederal: true}}
	require.NoError(t, database.NewSubjectRepository(db).Create(ctx, subject))

	precedents := database.NewPrecedentRepository(db)
	stateP := &models.Precedent{SubjectID: subject.ID, Court: "STF", Number: "SV 13", Title: "Nepotism",
		Thesis: "Nepotism violates the Constitution", Active: true,
		Applicability: models.Applicability{JudgeState: true, JudgeFederal: true}}
	fedOnly := &models.Precedent{SubjectID: subject.ID, Court: "STJ", Number: "Súmula 150", Title: "Federal interest",
		Thesis: "Federal courts decide federal interest", Active: true,
		Applicability: models.Applicability{JudgeFederal: true}}
	require.NoError(t, precedents.Create(ctx, stateP))
	require.NoError(t, precedents.Create(ctx, fedOnly))

	user := &models.User{Email: "carla@example.com", PasswordHash: "x", Track: models.TrackJudgeState, TelegramChatID: 77}
	require.NoError(t, database.NewUserRepository(db).Create(ctx, user))

	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	e := &env{db: db, user: user, stateP: stateP, fedOnly: fedOnly, now: now}
	e.svc = NewService(db, time.UTC).WithClock(func() time.Time { return e.now })
	return e
}

func TestService_MarkReadRespectsEligibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ev, err := e.svc.MarkRead(ctx, e.user, e.stateP.ID)
	require.NoError(t, err)
	assert.True(t, e.now.Equal(ev.ReadAt))

	_, err = e.svc.MarkRead(ctx, e.user, e.fedOnly.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	require.NoError(t, e.svc.Unmark(ctx, e.user, e.stateP.ID))
	assert.ErrorIs(t, e.svc.Unmark(ctx, e.user, e.fedOnly.ID), database.ErrNotFound)

	noTrack := *e.user
	noTrack.Track = ""
	_, err = e.svc.MarkRead(ctx, &noTrack, e.stateP.ID)
	assert.ErrorIs(t, err, models.ErrNoTrack)
}

func TestService_AnswerSchedulesReview(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.svc.Answer(ctx, e.user, e.stateP.ID, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Answer.Quality)
	assert.Equal(t, 1, res.Review.Repetitions)
	assert.Equal(t, e.now.AddDate(0, 0, 1), res.Review.NextReviewAt)
	assert.False(t, res.Mastered)

	res, err = e.svc.Answer(ctx, e.user, e.stateP.ID, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Review.Repetitions)
	assert.Equal(t, 3, res.Review.Interval)

	bad := 5
	_, err = e.svc.Answer(ctx, e.user, e.stateP.ID, false, &bad)
	assert.ErrorIs(t, err, ErrInvalidAnswer)

	_, err = e.svc.Answer(ctx, e.user, e.fedOnly.ID, true, nil)
	assert.ErrorIs(t, err, database.ErrNotFound)

	// due three days later
	e.now = e.now.AddDate(0, 0, 3)
	due, err := e.svc.Reviews.ListDue(ctx, e.user.Track, e.user.ID, e.now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, e.stateP.ID, due[0].ID)
}

func TestService_Summary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// study on three consecutive days ending today
	start := e.now
	for i := 2; i >= 0; i-- {
		e.now = start.AddDate(0, 0, -i)
		_, err := e.svc.MarkRead(ctx, e.user, e.stateP.ID)
		require.NoError(t, err)
	}
	_, err := e.svc.Answer(ctx, e.user, e.stateP.ID, false, nil)
	require.NoError(t, err)

	summary, err := e.svc.Summary(ctx, e.user, 30)
	require.NoError(t, err)
	assert.Equal(t, models.TrackJudgeState, summary.Track)
	assert.Equal(t, 1, summary.Eligible)
	assert.Equal(t, 1, summary.Read)
	assert.Equal(t, 100.0, summary.Percent)
	assert.Equal(t, 1, summary.ReadsToday)
	assert.Equal(t, 3, summary.Streak.Current)
	assert.True(t, summary.Streak.StudiedToday)
	assert.Equal(t, 1, summary.Accuracy.Total)
	assert.Zero(t, summary.Accuracy.Correct)
	assert.Len(t, summary.Heatmap, 30)
	assert.Equal(t, 1, summary.Heatmap[29].Count)

	cells, err := e.svc.Heatmap(ctx, e.user, 7)
	require.NoError(t, err)
	require.Len(t, cells, 7)
	assert.Equal(t, 1, cells[4].Count)

	noTrack := *e.user
	noTrack.Track = ""
	_, err = e.svc.Summary(ctx, &noTrack, 0)
	assert.ErrorIs(t, err, models.ErrNoTrack)
}

func TestService_ReminderFor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	r, err := e.svc.ReminderFor(ctx, e.user)
	require.NoError(t, err)
	assert.Equal(t, int64(77), r.ChatID)
	assert.Equal(t, 1, r.Unread)
	assert.False(t, r.StudiedToday)
	assert.Zero(t, r.Streak.Current)

	_, err = e.svc.MarkRead(ctx, e.user, e.stateP.ID)
	require.NoError(t, err)

	r, err = e.svc.ReminderFor(ctx, e.user)
	require.NoError(t, err)
	assert.Zero(t, r.Unread)
	assert.True(t, r.StudiedToday)
	assert.Equal(t, 1, r.Streak.Current)
}

func TestService_StreaksSeeWholeHistory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	today := e.now

	// ten consecutive days well over a year ago
	first := today.AddDate(0, 0, -500)
	for i := 0; i < 10; i++ {
		e.now = first.AddDate(0, 0, i)
		_, err := e.svc.MarkRead(ctx, e.user, e.stateP.ID)
		require.NoError(t, err)
	}
	e.now = today
	_, err := e.svc.MarkRead(ctx, e.user, e.stateP.ID)
	require.NoError(t, err)

	summary, err := e.svc.Summary(ctx, e.user, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Streak.Longest)
	assert.Equal(t, 1, summary.Streak.Current)
	assert.Len(t, summary.Heatmap, 7)

	r, err := e.svc.ReminderFor(ctx, e.user)
	require.NoError(t, err)
	assert.Equal(t, 10, r.Streak.Longest)
}

func TestService_ReminderCountsReadsInLocalDay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	brt := time.FixedZone("BRT", -3*3600)
	svc := NewService(e.db, brt).WithClock(func() time.Time { return e.now })

	// 22:00 on the 9th in BRT
	e.now = time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC)
	_, err := svc.MarkRead(ctx, e.user, e.stateP.ID)
	require.NoError(t, err)

	// noon on the 10th in BRT
	e.now = time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	r, err := svc.ReminderFor(ctx, e.user)
	require.NoError(t, err)
	assert.Zero(t, r.ReadsToday)
	assert.False(t, r.StudiedToday)
	assert.Equal(t, 1, r.Streak.Current)

	_, err = svc.MarkRead(ctx, e.user, e.stateP.ID)
	require.NoError(t, err)
	r, err = svc.ReminderFor(ctx, e.user)
	require.NoError(t, err)
	assert.Equal(t, 1, r.ReadsToday)
	assert.True(t, r.StudiedToday)
	assert.Equal(t, 2, r.Streak.Current)
}

