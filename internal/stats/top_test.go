package stats

import "testing"

func TestTopCharsByFrequency(t *testing.T) {
	chars := []CharStat{
		{Char: "か", Attempts: 4, Correct: 3},
		{Char: "あ", Attempts: 4, Correct: 2},
		{Char: "さ", Attempts: 1, Correct: 1},
	}
	top := TopCharsByFrequency(chars, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 chars, got %d", len(top))
	}
	if top[0] != "あ" || top[1] != "か" {
		t.Fatalf("unexpected order: %v", top)
	}
}

func TestSelectWeakChars(t *testing.T) {
	chars := []CharStat{
		{Char: "あ", Attempts: 4, Correct: 2, Mistakes: 2},
		{Char: "か", Attempts: 2, Correct: 1, Mistakes: 5},
		{Char: "さ", Attempts: 3, Correct: 3},
		{Char: "た", Mistakes: 1},
	}
	weak := SelectWeakChars(chars, 2)
	if len(weak) != 2 {
		t.Fatalf("expected 2 weak chars, got %d", len(weak))
	}
	if weak[0].Char != "か" || weak[1].Char != "あ" {
		t.Fatalf("unexpected order: %+v", weak)
	}
	if all := SelectWeakChars(chars, 0); len(all) != 3 {
		t.Fatalf("expected unanswered chars to be skipped, got %+v", all)
	}
}

func TestTrendKeepsLatestPoints(t *testing.T) {
	r := Report{Outcomes: []float64{0, 100, 100, 0, 100}}
	trend := Trend(r, 2, 3)
	want := []float64{100, 50, 50}
	if len(trend) != len(want) {
		t.Fatalf("unexpected trend %v", trend)
	}
	for i := range want {
		if trend[i] != want[i] {
			t.Fatalf("unexpected trend %v", trend)
		}
	}
	if got := Sparkline([]float64{50, 50}); got != "++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}
