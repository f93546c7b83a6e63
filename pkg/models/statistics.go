package models

// SubjectStat holds per-subject counters for a user
type SubjectStat struct {
	SubjectID   int64  `json:"subject_id" db:"subject_id"`
	SubjectName string `json:"subject_name" db:"subject_name"`
	Eligible    int    `json:"eligible" db:"eligible"`
	Read        int    `json:"read" db:"read_count"`
	Answers     int    `json:"answers" db:"answers"`
	Correct     int    `json:"correct" db:"correct"`
}

// AdminStats are service-wide totals shown to administrators
type AdminStats struct {
	Users          int `json:"users" db:"users"`
	Subjects       int `json:"subjects" db:"subjects"`
	Precedents     int `json:"precedents" db:"precedents"`
	ActivePrecs    int `json:"active_precedents" db:"active_precedents"`
	ReadsLastWeek  int `json:"reads_last_week" db:"reads_last_week"`
	ActiveLastWeek int `json:"active_users_last_week" db:"active_users_last_week"`

	EligibleByTrack map[Track]int `json:"eligible_by_track" db:"-"`
}
