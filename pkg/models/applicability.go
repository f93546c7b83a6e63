package models

// Applicability marks which tracks a subject or precedent is relevant to
type Applicability struct {
	JudgeState   bool `json:"judge_state" db:"applies_judge_state"`
	JudgeFederal bool `json:"judge_federal" db:"applies_judge_federal"`
	Prosecutor   bool `json:"prosecutor" db:"applies_prosecutor"`
}

// AppliesTo reports whether the flag for track is set
func (a Applicability) AppliesTo(track Track) bool {
	switch track {
	case TrackJudgeState:
		return a.JudgeState
	case TrackJudgeFederal:
		return a.JudgeFederal
	case TrackProsecutor:
		return a.Prosecutor
	}
	return false
}

// Any reports whether at least one track is set
func (a Applicability) Any() bool {
	return a.JudgeState || a.JudgeFederal || a.Prosecutor
}

// Tracks lists the tracks the flags are set for
func (a Applicability) Tracks() []Track {
	var tracks []Track
	for _, t := range AllTracks() {
		if a.AppliesTo(t) {
			tracks = append(tracks, t)
		}
	}
	return tracks
}
