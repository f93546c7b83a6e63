package spaced_repetition

import (
	"testing"
	"time"

	"github.com/example/precedents/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityFromAnswer(t *testing.T) {
	q, err := QualityFromAnswer(true, nil)
	require.NoError(t, err)
	assert.Equal(t, QualityCorrectHesitation, q)

	q, err = QualityFromAnswer(false, nil)
	require.NoError(t, err)
	assert.Equal(t, QualityIncorrect, q)

	five := 5
	q, err = QualityFromAnswer(true, &five)
	require.NoError(t, err)
	assert.Equal(t, QualityPerfect, q)

	_, err = QualityFromAnswer(false, &five)
	assert.Error(t, err)

	seven := 7
	_, err = QualityFromAnswer(true, &seven)
	assert.Error(t, err)
}

func TestSM2_Process(t *testing.T) {
	sm := NewSM2()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	p := models.NewReviewProgress(1, 2, now)

	wantIntervals := []int{1, 3, 7, 15, 30}
	for i, want := range wantIntervals {
		sm.Process(p, QualityCorrectHesitation, now)
		assert.Equal(t, want, p.Interval, "repetition %d", i+1)
		assert.Equal(t, i+1, p.Repetitions)
	}
	assert.Equal(t, 5, p.ConsecutiveRight)
	assert.InDelta(t, 2.5, p.EasinessFactor, 1e-9)
	assert.True(t, sm.IsMastered(p))
	assert.Equal(t, now.AddDate(0, 0, 30), p.NextReviewAt)
	require.NotNil(t, p.LastReviewAt)

	// past the fixed intervals the easiness factor drives growth
	sm.Process(p, QualityPerfect, now)
	assert.InDelta(t, 78, p.Interval, 1) // 30 * 2.6
	assert.InDelta(t, 2.6, p.EasinessFactor, 1e-9)

	sm.Process(p, QualityBlackout, now)
	assert.Equal(t, 1, p.Interval)
	assert.Equal(t, 0, p.Repetitions)
	assert.Equal(t, 0, p.ConsecutiveRight)
	assert.False(t, sm.IsMastered(p))
}

func TestSM2_Bounds(t *testing.T) {
	sm := NewSM2()

	_, ef, _ := sm.ComputeNextInterval(0, 0, 1.3, 1)
	assert.Equal(t, 1.3, ef)

	interval, _, _ := sm.ComputeNextInterval(5, 10, 2.5, 300)
	assert.Equal(t, sm.MaxInterval, interval)
}
