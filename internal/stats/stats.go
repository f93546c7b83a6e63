// Package stats turns already-fetched study events into streaks, heatmaps
// and accuracy figures. Every function here is pure and single-pass over
// its input.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/example/precedents/pkg/models"
)

const dayLayout = "2006-01-02"

// StreakInfo describes consecutive study days
type StreakInfo struct {
	Current      int    `json:"current"`
	Longest      int    `json:"longest"`
	StudiedToday bool   `json:"studied_today"`
	LastStudyDay string `json:"last_study_day,omitempty"` // YYYY-MM-DD in the study timezone
}

// HeatmapCell is one day of the activity heatmap
type HeatmapCell struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"` // 0-4
}

// AccuracyInfo summarises self-check answers
type AccuracyInfo struct {
	Total   int     `json:"total"`
	Correct int     `json:"correct"`
	Ratio   float64 `json:"ratio"`
}

// SubjectProgress is the share of eligible precedents read in a subject
type SubjectProgress struct {
	models.SubjectStat
	Percent  float64 `json:"percent"`
	Accuracy float64 `json:"accuracy"`
}

// Summary is everything the statistics page shows
type Summary struct {
	Track       models.Track      `json:"track"`
	Eligible    int               `json:"eligible"`
	Read        int               `json:"read"`
	Percent     float64           `json:"percent"`
	ReadsToday  int               `json:"reads_today"`
	DueReviews  int               `json:"due_reviews"`
	Streak      StreakInfo        `json:"streak"`
	Accuracy    AccuracyInfo      `json:"accuracy"`
	BySubject   []SubjectProgress `json:"by_subject"`
	Heatmap     []HeatmapCell     `json:"heatmap,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// DayKey returns the calendar day of t in loc
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}

// StartOfDay returns midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// calendarDay returns t's calendar day in loc as a UTC midnight, so day
// arithmetic is not affected by DST transitions in loc
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Streaks computes the current and longest runs of consecutive days with
// at least one event. A streak is still current when the last study day
// was yesterday, since today is not over yet.
func Streaks(events []time.Time, now time.Time, loc *time.Location) StreakInfo {
	if len(events) == 0 {
		return StreakInfo{}
	}

	days := make(map[string]bool, len(events))
	for _, e := range events {
		days[DayKey(e, loc)] = true
	}
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	// YYYY-MM-DD sorts chronologically
	sort.Strings(keys)

	info := StreakInfo{LastStudyDay: keys[len(keys)-1]}
	run := 0
	var prev time.Time
	for i, k := range keys {
		day, _ := time.Parse(dayLayout, k)
		if i > 0 && prev.AddDate(0, 0, 1).Equal(day) {
			run++
		} else {
			run = 1
		}
		if run > info.Longest {
			info.Longest = run
		}
		prev = day
	}

	today := DayKey(now, loc)
	yesterday := calendarDay(now, loc).AddDate(0, 0, -1).Format(dayLayout)
	info.StudiedToday = info.LastStudyDay == today
	if info.LastStudyDay == today || info.LastStudyDay == yesterday {
		// run ends at the last study day
		info.Current = run
	}
	return info
}

// Heatmap buckets events into one cell per day for the last days days,
// oldest first with today last. Levels split the busiest day's count into
// quarters: level = ceil(4*count/max), so any activity is at least 1.
func Heatmap(events []time.Time, now time.Time, days int, loc *time.Location) []HeatmapCell {
	if days <= 0 {
		return []HeatmapCell{}
	}

	start := calendarDay(now, loc).AddDate(0, 0, -(days - 1))
	index := make(map[string]int, days)
	cells := make([]HeatmapCell, days)
	for i := range cells {
		key := start.AddDate(0, 0, i).Format(dayLayout)
		cells[i].Date = key
		index[key] = i
	}

	max := 0
	for _, e := range events {
		i, ok := index[DayKey(e, loc)]
		if !ok {
			continue
		}
		cells[i].Count++
		if cells[i].Count > max {
			max = cells[i].Count
		}
	}

	for i := range cells {
		cells[i].Level = level(cells[i].Count, max)
	}
	return cells
}

func level(count, max int) int {
	if count <= 0 || max <= 0 {
		return 0
	}
	l := int(math.Ceil(4 * float64(count) / float64(max)))
	if l < 1 {
		return 1
	}
	if l > 4 {
		return 4
	}
	return l
}

// Accuracy counts correct answers
func Accuracy(answers []models.Answer) AccuracyInfo {
	info := AccuracyInfo{Total: len(answers)}
	for _, a := range answers {
		if a.Correct {
			info.Correct++
		}
	}
	info.Ratio = ratio(info.Correct, info.Total)
	return info
}

// Progress derives percentages from per-subject counters
func Progress(subjects []models.SubjectStat) []SubjectProgress {
	out := make([]SubjectProgress, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, SubjectProgress{
			SubjectStat: s,
			Percent:     percent(s.Read, s.Eligible),
			Accuracy:    ratio(s.Correct, s.Answers),
		})
	}
	return out
}

// Input bundles the data Summarize needs
type Input struct {
	Track      models.Track
	Subjects   []models.SubjectStat
	ReadTimes  []time.Time
	Answers    []models.Answer
	DueReviews int
	Now        time.Time
	Location   *time.Location
	// HeatmapDays of 0 leaves the heatmap out
	HeatmapDays int
}

// Summarize builds the statistics page from fetched data
func Summarize(in Input) Summary {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	s := Summary{
		Track:       in.Track,
		DueReviews:  in.DueReviews,
		Streak:      Streaks(in.ReadTimes, in.Now, loc),
		Accuracy:    Accuracy(in.Answers),
		BySubject:   Progress(in.Subjects),
		GeneratedAt: in.Now,
	}
	for _, subj := range in.Subjects {
		s.Eligible += subj.Eligible
		s.Read += subj.Read
	}
	s.Percent = percent(s.Read, s.Eligible)

	today := DayKey(in.Now, loc)
	for _, t := range in.ReadTimes {
		if DayKey(t, loc) == today {
			s.ReadsToday++
		}
	}

	if in.HeatmapDays > 0 {
		s.Heatmap = Heatmap(in.ReadTimes, in.Now, in.HeatmapDays, loc)
	}
	return s
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func percent(part, total int) float64 {
	return math.Round(ratio(part, total)*1000) / 10
}
