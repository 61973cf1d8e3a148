package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/kanadrill/internal/charset"
	"github.com/verte-zerg/kanadrill/internal/model"
	"github.com/verte-zerg/kanadrill/internal/progress"
)

func answers(pairs ...any) []model.HistoryItem {
	var out []model.HistoryItem
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.HistoryItem{Char: pairs[i].(string), IsCorrect: pairs[i+1].(bool)})
	}
	return out
}

func testSnapshot() progress.Snapshot {
	history := answers("あ", true, "あ", false, "か", true, "水", true, "水", false, "火", false)
	return progress.Snapshot{
		History:  history,
		Stats:    model.SessionStats{Attempts: len(history), Correct: 3},
		Streak:   0,
		Mistakes: map[string]model.MistakeRecord{"あ": {Count: 1}, "水": {Count: 1}, "火": {Count: 1}},
	}
}

func testRegistry() *charset.Registry {
	sets := []model.StudySet{{ID: "s1", Name: "Elements"}, {ID: "s2", Name: "Empty"}}
	kanji := map[string][]model.LibraryKanji{
		"s1": {
			{ID: "k1", Char: "水", Romaji: []string{"mizu"}, SetID: "s1"},
			{ID: "k2", Char: "火", Romaji: []string{"hi"}, SetID: "s1"},
		},
	}
	return charset.NewRegistry().WithLibrary(sets, kanji)
}

func TestBuildReport(t *testing.T) {
	report := BuildReport(testSnapshot(), testRegistry())

	if report.Attempts != 6 || report.Correct != 3 {
		t.Fatalf("unexpected totals %d/%d", report.Correct, report.Attempts)
	}
	if report.Accuracy() != 50 {
		t.Fatalf("expected 50%% accuracy, got %.2f", report.Accuracy())
	}
	if report.UniqueSeen != 4 {
		t.Fatalf("expected 4 unique chars, got %d", report.UniqueSeen)
	}
	if report.RecentCount != 6 || report.Recent != 50 {
		t.Fatalf("unexpected recent accuracy %d %.2f", report.RecentCount, report.Recent)
	}
	a, ok := report.Char("あ")
	if !ok || a.Attempts != 2 || a.Correct != 1 || a.Mistakes != 1 || a.Accuracy() != 50 {
		t.Fatalf("unexpected stats for あ: %+v", a)
	}
	if _, ok := report.Char("さ"); ok {
		t.Fatalf("expected さ to be unanswered")
	}
	if len(report.Sets) != 2 {
		t.Fatalf("expected 2 set summaries, got %d", len(report.Sets))
	}
	elements := report.Sets[0]
	if elements.Kanji != 2 || elements.Attempts != 3 || elements.Correct != 1 {
		t.Fatalf("unexpected set summary %+v", elements)
	}
	if report.Sets[1].Attempts != 0 || report.Sets[1].Accuracy() != 0 {
		t.Fatalf("expected empty set to have no attempts: %+v", report.Sets[1])
	}
	if len(report.Outcomes) != 6 || report.Outcomes[0] != 100 || report.Outcomes[1] != 0 {
		t.Fatalf("unexpected outcomes %v", report.Outcomes)
	}
}

func TestRecentAccuracyUsesLastTen(t *testing.T) {
	var pairs []any
	for i := 0; i < 5; i++ {
		pairs = append(pairs, "あ", false)
	}
	for i := 0; i < 10; i++ {
		pairs = append(pairs, "か", i%2 == 0)
	}
	report := BuildReport(progress.Snapshot{History: answers(pairs...)}, nil)
	if report.RecentCount != RecentWindow || report.Recent != 50 {
		t.Fatalf("expected 50%% over last %d, got %.2f over %d", RecentWindow, report.Recent, report.RecentCount)
	}
}

func TestKanaGridsAnnotateCells(t *testing.T) {
	report := BuildReport(testSnapshot(), nil)
	grids := KanaGrids(report)
	if len(grids) != len(charset.StaticSetNames())*len(charset.KanaTypes) {
		t.Fatalf("unexpected grid count %d", len(grids))
	}
	basic := grids[0]
	if basic.Set != charset.Hiragana || basic.Type != charset.TypeBasic {
		t.Fatalf("unexpected first grid %s/%s", basic.Set, basic.Type)
	}
	vowel := len(basic.Grid.Columns) - 1
	if basic.Grid.Columns[vowel].ID != "vowel" {
		t.Fatalf("expected vowel column last, got %+v", basic.Grid.Columns)
	}
	cell := basic.Cells[0][vowel]
	if cell.Kana == nil || cell.Kana.Char != "あ" || !cell.Attempted {
		t.Fatalf("expected attempted あ cell, got %+v", cell)
	}
	if got := FormatCell(cell); got != "あ 50%" {
		t.Fatalf("unexpected cell text %q", got)
	}
	if got := FormatCell(basic.Cells[1][vowel]); got != "い -" {
		t.Fatalf("unexpected unanswered cell %q", got)
	}
}

func TestAccuracyLevel(t *testing.T) {
	cases := []struct {
		acc       float64
		attempted bool
		want      Level
	}{
		{0, false, LevelNone},
		{100, true, LevelGood},
		{75, true, LevelFair},
		{41, true, LevelFair},
		{40, true, LevelPoor},
		{0, true, LevelPoor},
	}
	for _, c := range cases {
		if got := AccuracyLevel(c.acc, c.attempted); got != c.want {
			t.Fatalf("AccuracyLevel(%v, %v) = %v, want %v", c.acc, c.attempted, got, c.want)
		}
	}
}

func TestRenderReport(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderReport(&buf, BuildReport(testSnapshot(), testRegistry()), 40); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Attempts: 6", "Accuracy: 50.00%", "Characters seen: 4", "Elements", "Hiragana basic", "Per-Character"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Katakana basic") {
		t.Fatalf("expected unanswered grids to be skipped:\n%s", out)
	}
}

func TestRenderReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderReport(&buf, BuildReport(progress.Snapshot{}, nil), 40); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No answers recorded yet." {
		t.Fatalf("unexpected empty report %q", buf.String())
	}
}
