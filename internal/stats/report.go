// Package stats contains statistics calculations and reporting.
package stats

import (
	"sort"

	"github.com/verte-zerg/kanadrill/internal/charset"
	"github.com/verte-zerg/kanadrill/internal/model"
	"github.com/verte-zerg/kanadrill/internal/progress"
)

// RecentWindow is the number of latest answers behind the progress bar.
const RecentWindow = 10

// CharStat aggregates the answers given for one glyph.
type CharStat struct {
	Char     string
	Attempts int
	Correct  int
	Mistakes int
}

// Accuracy returns the share of correct answers in percent.
func (c CharStat) Accuracy() float64 {
	if c.Attempts == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Attempts) * 100
}

// SetSummary is the aggregate accuracy of one library study set.
type SetSummary struct {
	ID       string
	Name     string
	Kanji    int
	Attempts int
	Correct  int
}

// Accuracy returns the set average in percent.
func (s SetSummary) Accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempts) * 100
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Attempts int
	Correct  int
	Streak   int
	// Recent is the accuracy over the last RecentWindow answers.
	Recent      float64
	RecentCount int
	UniqueSeen  int
	Chars       map[string]CharStat
	Sets        []SetSummary
	// Outcomes holds 100 for each correct answer and 0 otherwise, oldest first.
	Outcomes []float64
}

// Accuracy returns the overall accuracy in percent.
func (r Report) Accuracy() float64 {
	if r.Attempts == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Attempts) * 100
}

// Char returns the stats for glyph; ok is false when it was never answered.
func (r Report) Char(glyph string) (CharStat, bool) {
	st, ok := r.Chars[glyph]
	return st, ok && st.Attempts > 0
}

// CharList returns per-character stats sorted by glyph.
func (r Report) CharList() []CharStat {
	out := make([]CharStat, 0, len(r.Chars))
	for _, st := range r.Chars {
		if st.Attempts > 0 {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Char < out[j].Char })
	return out
}

// BuildReport prepares progress data for rendering. reg supplies the
// library sets whose averages are reported.
func BuildReport(snap progress.Snapshot, reg *charset.Registry) Report {
	report := Report{
		Attempts: snap.Stats.Attempts,
		Correct:  snap.Stats.Correct,
		Streak:   snap.Streak,
		Chars:    charStats(snap.History, snap.Mistakes),
		Outcomes: make([]float64, len(snap.History)),
	}
	for i, item := range snap.History {
		if item.IsCorrect {
			report.Outcomes[i] = 100
		}
	}
	for _, st := range report.Chars {
		if st.Attempts > 0 {
			report.UniqueSeen++
		}
	}
	report.RecentCount, report.Recent = recentAccuracy(snap.History, RecentWindow)

	if reg != nil {
		for _, set := range reg.LibrarySets() {
			report.Sets = append(report.Sets, summarizeSet(set, reg.LibraryKanji(set.ID), report.Chars))
		}
	}
	return report
}

func charStats(history []model.HistoryItem, mistakes map[string]model.MistakeRecord) map[string]CharStat {
	out := map[string]CharStat{}
	for _, item := range history {
		st := out[item.Char]
		st.Char = item.Char
		st.Attempts++
		if item.IsCorrect {
			st.Correct++
		}
		out[item.Char] = st
	}
	for glyph, rec := range mistakes {
		st := out[glyph]
		st.Char = glyph
		st.Mistakes = rec.Count
		out[glyph] = st
	}
	return out
}

func recentAccuracy(history []model.HistoryItem, window int) (int, float64) {
	if len(history) > window {
		history = history[len(history)-window:]
	}
	if len(history) == 0 {
		return 0, 0
	}
	correct := 0
	for _, item := range history {
		if item.IsCorrect {
			correct++
		}
	}
	return len(history), float64(correct) / float64(len(history)) * 100
}

func summarizeSet(set model.StudySet, kanji []model.LibraryKanji, chars map[string]CharStat) SetSummary {
	sum := SetSummary{ID: set.ID, Name: set.Name, Kanji: len(kanji)}
	for _, k := range kanji {
		st := chars[k.Char]
		sum.Attempts += st.Attempts
		sum.Correct += st.Correct
	}
	return sum
}

// GridCell is one kana of a grid with its stats.
type GridCell struct {
	Kana *model.Kana
	Stat CharStat
	// Attempted is false when the kana was never answered.
	Attempted bool
}

// GridStats is a kana grid annotated with per-cell accuracy.
type GridStats struct {
	Set   string
	Type  string
	Grid  charset.Grid
	Cells [][]GridCell
}

// KanaGrids builds annotated grids for every static set and kana type.
func KanaGrids(report Report) []GridStats {
	var out []GridStats
	for _, set := range charset.StaticSetNames() {
		for _, typ := range charset.KanaTypes {
			grid := charset.BuildGrid(set, typ)
			gs := GridStats{Set: set, Type: typ, Grid: grid, Cells: make([][]GridCell, len(grid.Rows))}
			for i, row := range grid.Rows {
				gs.Cells[i] = make([]GridCell, len(row.Cells))
				for j, k := range row.Cells {
					if k == nil {
						continue
					}
					st, ok := report.Char(k.Char)
					gs.Cells[i][j] = GridCell{Kana: k, Stat: st, Attempted: ok}
				}
			}
			out = append(out, gs)
		}
	}
	return out
}

// Level buckets an accuracy percentage for colouring.
type Level int

const (
	LevelNone Level = iota
	LevelPoor
	LevelFair
	LevelGood
)

// AccuracyLevel maps an accuracy percentage to a level.
func AccuracyLevel(accuracy float64, attempted bool) Level {
	switch {
	case !attempted:
		return LevelNone
	case accuracy > 75:
		return LevelGood
	case accuracy > 40:
		return LevelFair
	default:
		return LevelPoor
	}
}
