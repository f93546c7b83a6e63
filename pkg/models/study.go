package models

import "time"

// ReadEvent records a user marking a precedent as studied
type ReadEvent struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	PrecedentID int64     `json:"precedent_id" db:"precedent_id"`
	SubjectID   int64     `json:"subject_id,omitempty" db:"subject_id"`
	ReadAt      time.Time `json:"read_at" db:"read_at"`
}

// Answer is the outcome of a self-check on a precedent
type Answer struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	PrecedentID int64     `json:"precedent_id" db:"precedent_id"`
	SubjectID   int64     `json:"subject_id,omitempty" db:"subject_id"`
	Correct     bool      `json:"correct" db:"correct"`
	Quality     int       `json:"quality" db:"quality"` // 0-5
	AnsweredAt  time.Time `json:"answered_at" db:"answered_at"`
}

// ReviewProgress tracks SM-2 scheduling of one precedent for one user
type ReviewProgress struct {
	UserID           int64      `json:"user_id" db:"user_id"`
	PrecedentID      int64      `json:"precedent_id" db:"precedent_id"`
	EasinessFactor   float64    `json:"easiness_factor" db:"easiness_factor"`
	Interval         int        `json:"interval" db:"interval_days"` // days
	Repetitions      int        `json:"repetitions" db:"repetitions"`
	LastQuality      int        `json:"last_quality" db:"last_quality"`
	ConsecutiveRight int        `json:"consecutive_right" db:"consecutive_right"`
	LastReviewAt     *time.Time `json:"last_review_at,omitempty" db:"last_review_at"`
	NextReviewAt     time.Time  `json:"next_review_at" db:"next_review_at"`
}

// NewReviewProgress returns the initial state for a first review
func NewReviewProgress(userID, precedentID int64, now time.Time) *ReviewProgress {
	return &ReviewProgress{
		UserID:         userID,
		PrecedentID:    precedentID,
		EasinessFactor: 2.5,
		Interval:       1,
		LastQuality:    3,
		NextReviewAt:   now,
	}
}
