package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Precedent is a court ruling or thesis to be studied
type Precedent struct {
	ID          int64      `json:"id" db:"id"`
	SubjectID   int64      `json:"subject_id" db:"subject_id"`
	SubjectName string     `json:"subject_name,omitempty" db:"subject_name"`
	Court       string     `json:"court" db:"court"`
	Kind        string     `json:"kind" db:"kind"` // súmula, tema, informativo...
	Number      string     `json:"number" db:"number"`
	Title       string     `json:"title" db:"title"`
	Thesis      string     `json:"thesis" db:"thesis"`
	Notes       string     `json:"notes" db:"notes"`
	JudgedAt    *time.Time `json:"judged_at,omitempty" db:"judged_at"`
	Tags        Tags       `json:"tags" db:"tags"`
	Active      bool       `json:"active" db:"active"`
	Applicability
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EligibleFor reports whether a user on track may study p. The subject's
// flags gate the precedent's own flags.
func (p *Precedent) EligibleFor(track Track, subject *Subject) bool {
	if !p.Active || subject == nil || subject.ID != p.SubjectID {
		return false
	}
	return p.AppliesTo(track) && subject.AppliesTo(track)
}

// StudyItem is a precedent annotated with the user's read state
type StudyItem struct {
	Precedent
	Read   bool       `json:"read" db:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty" db:"read_at"`
}

// Tags is a list of labels stored as a JSON array in a text column
type Tags []string

// NormalizeTags trims, lower-cases and de-duplicates tags keeping order
func NormalizeTags(tags []string) Tags {
	seen := make(map[string]bool, len(tags))
	out := Tags{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Value implements driver.Valuer
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := marshalTags([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// EncodeTag returns tag as it appears inside the stored JSON array,
// quotes included
func EncodeTag(tag string) string {
	b, _ := marshalTags(tag)
	return string(b)
}

// marshalTags encodes without HTML escaping so "&", "<" and ">" are stored
// verbatim
func marshalTags(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Scan implements sql.Scanner
func (t *Tags) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into Tags", src)
	}
	if len(raw) == 0 {
		*t = Tags{}
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("failed to parse tags: %w", err)
	}
	*t = Tags(list)
	return nil
}
