package database

import (
	"fmt"

	"github.com/example/precedents/pkg/models"
)

// trackColumns maps each track to its applicability column. Column names
// in predicates only ever come from this table.
var trackColumns = map[models.Track]string{
	models.TrackJudgeState:   "applies_judge_state",
	models.TrackJudgeFederal: "applies_judge_federal",
	models.TrackProsecutor:   "applies_prosecutor",
}

// TrackColumn returns the applicability column for track
func TrackColumn(track models.Track) (string, error) {
	if track == "" {
		return "", models.ErrNoTrack
	}
	col, ok := trackColumns[track]
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidTrack, track)
	}
	return col, nil
}

// EligibilityPredicate returns the WHERE fragment selecting precedents a
// user on track may study. The precedent and its subject must both apply
// to the track and the precedent must be active.
func EligibilityPredicate(track models.Track, precedentAlias, subjectAlias string) (string, error) {
	subject, err := TrackPredicate(track, subjectAlias)
	if err != nil {
		return "", err
	}
	precedent, err := TrackPredicate(track, precedentAlias)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s AND %s AND %s.active = TRUE", precedent, subject, precedentAlias), nil
}

// TrackPredicate returns the WHERE fragment selecting rows of alias whose
// flag for track is set. It applies to subjects and precedents alike.
func TrackPredicate(track models.Track, alias string) (string, error) {
	col, err := TrackColumn(track)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%s = TRUE", alias, col), nil
}
