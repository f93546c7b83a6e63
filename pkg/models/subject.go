package models

import "time"

// Subject is a law area grouping precedents (e.g. Constitutional Law)
type Subject struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	Position    int    `json:"position" db:"position"`
	Applicability
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SubjectSummary is a subject as seen by a user of a given track
type SubjectSummary struct {
	Subject
	EligibleCount int `json:"eligible_count" db:"eligible_count"`
	ReadCount     int `json:"read_count" db:"read_count"`
}
