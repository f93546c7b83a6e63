package models

import (
	"errors"
	"fmt"
	"strings"
)

// Track is the exam career path a user prepares for
type Track string

const (
	TrackJudgeState   Track = "judge_state"
	TrackJudgeFederal Track = "judge_federal"
	TrackProsecutor   Track = "prosecutor"
)

var (
	// ErrNoTrack is returned when a user has not picked a track yet
	ErrNoTrack = errors.New("track not selected")
	// ErrInvalidTrack is returned for values outside the Track enum
	ErrInvalidTrack = errors.New("invalid track")
)

// AllTracks returns every known track in display order
func AllTracks() []Track {
	return []Track{TrackJudgeState, TrackJudgeFederal, TrackProsecutor}
}

// Valid reports whether t is one of the known tracks
func (t Track) Valid() bool {
	switch t {
	case TrackJudgeState, TrackJudgeFederal, TrackProsecutor:
		return true
	}
	return false
}

// Label returns a human readable name
func (t Track) Label() string {
	switch t {
	case TrackJudgeState:
		return "Judge (State)"
	case TrackJudgeFederal:
		return "Judge (Federal)"
	case TrackProsecutor:
		return "Prosecutor"
	}
	return "None"
}

// ParseTrack converts user input into a Track. Matching is case-insensitive
// and accepts dashes in place of underscores.
func ParseTrack(s string) (Track, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if normalized == "" {
		return "", ErrNoTrack
	}
	t := Track(normalized)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTrack, s)
	}
	return t, nil
}
