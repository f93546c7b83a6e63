package database

import (
	"context"
	"testing"
	"time"

	"github.com/example/precedents/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRepository(t *testing.T) {
	f := newFixture(t)
	repo := NewReviewRepository(f.db)
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	_, err := repo.Get(ctx, f.userID, f.bothJudges.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	due := models.NewReviewProgress(f.userID, f.bothJudges.ID, now.Add(-time.Hour))
	require.NoError(t, repo.Upsert(ctx, due))

	later := models.NewReviewProgress(f.userID, f.prosecutor.ID, now.Add(-2*time.Hour))
	require.NoError(t, repo.Upsert(ctx, later))

	// not eligible for state judges, so never listed for them
	list, err := repo.ListDue(ctx, models.TrackJudgeState, f.userID, now, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.bothJudges.ID, list[0].ID)

	count, err := repo.CountDue(ctx, models.TrackJudgeState, f.userID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	reviewed := now
	due.Repetitions = 1
	due.Interval = 3
	due.LastReviewAt = &reviewed
	due.NextReviewAt = now.AddDate(0, 0, 3)
	require.NoError(t, repo.Upsert(ctx, due))

	got, err := repo.Get(ctx, f.userID, f.bothJudges.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Repetitions)
	assert.Equal(t, 3, got.Interval)
	require.NotNil(t, got.LastReviewAt)

	count, err = repo.CountDue(ctx, models.TrackJudgeState, f.userID, now)
	require.NoError(t, err)
	assert.Zero(t, count)
}
