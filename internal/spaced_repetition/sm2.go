package spaced_repetition

import (
	"fmt"
	"time"

	"github.com/example/precedents/pkg/models"
)

// SM2 implements the SuperMemo-2 algorithm for precedent reviews
type SM2 struct {
	// Answers with this quality or above count as recalled
	PassThreshold int
	// Upper bound for the review interval in days
	MaxInterval int
	// Fixed intervals for the first successful repetitions, in days
	InitialIntervals []int
	// Lower bound for the easiness factor
	MinEasiness float64
}

// NewSM2 returns SM2 with the default settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:    3,
		MaxInterval:      365,
		InitialIntervals: []int{1, 3, 7, 15, 30},
		MinEasiness:      1.3,
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// QualityFromAnswer maps a self-check answer to a quality. An explicit
// quality wins when given; it must agree with the correct flag.
func QualityFromAnswer(correct bool, quality *int) (QualityResponse, error) {
	if quality == nil {
		if correct {
			return QualityCorrectHesitation, nil
		}
		return QualityIncorrect, nil
	}

	q := QualityResponse(*quality)
	if q < QualityBlackout || q > QualityPerfect {
		return 0, fmt.Errorf("quality must be between 0 and 5, got %d", *quality)
	}
	if correct != (q >= QualityCorrectDifficult) {
		return 0, fmt.Errorf("quality %d contradicts correct=%t", q, correct)
	}
	return q, nil
}

// Process applies one review with the given quality at now
func (sm *SM2) Process(progress *models.ReviewProgress, quality QualityResponse, now time.Time) {
	interval, ef, reps := sm.ComputeNextInterval(int(quality), progress.Repetitions, progress.EasinessFactor, progress.Interval)

	if int(quality) >= sm.PassThreshold {
		progress.ConsecutiveRight++
	} else {
		progress.ConsecutiveRight = 0
	}

	reviewed := now
	progress.LastReviewAt = &reviewed
	progress.LastQuality = int(quality)
	progress.EasinessFactor = ef
	progress.Repetitions = reps
	progress.Interval = interval
	progress.NextReviewAt = now.AddDate(0, 0, interval)
}

// ComputeNextInterval returns the next interval, easiness factor and
// repetition count after an answer of the given quality
func (sm *SM2) ComputeNextInterval(quality, repetitions int, currentEF float64, currentInterval int) (int, float64, int) {
	newEF := currentEF + (0.1 - float64(5-quality)*(0.08+float64(5-quality)*0.02))
	if newEF < sm.MinEasiness {
		newEF = sm.MinEasiness
	}

	if quality < sm.PassThreshold {
		// forgotten, start over tomorrow
		return 1, newEF, 0
	}

	newRepetitions := repetitions + 1
	var newInterval int
	if newRepetitions <= len(sm.InitialIntervals) {
		newInterval = sm.InitialIntervals[newRepetitions-1]
	} else {
		newInterval = int(float64(currentInterval) * newEF)
	}
	if newInterval > sm.MaxInterval {
		newInterval = sm.MaxInterval
	}
	if newInterval < 1 {
		newInterval = 1
	}
	return newInterval, newEF, newRepetitions
}

// IsMastered reports whether a precedent needs no more regular review
func (sm *SM2) IsMastered(progress *models.ReviewProgress) bool {
	return progress.Repetitions >= 5 &&
		progress.LastQuality >= int(QualityCorrectHesitation) &&
		progress.Interval >= 30
}
