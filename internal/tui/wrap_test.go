package tui

import (
	"testing"

	"github.com/verte-zerg/kanadrill/internal/model"
)

func TestBuildInputRunesMarksMatchedPrefix(t *testing.T) {
	runes := buildInputRunes("kx", []string{"ka"}, false)
	if len(runes) != 2 {
		t.Fatalf("expected 2 runes, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("k") {
		t.Fatalf("expected correct style for matched rune")
	}
	if runes[1].s != incorrectStyle.Render("x") {
		t.Fatalf("expected incorrect style for mismatched rune")
	}
}

func TestBuildInputRunesUsesBestAlternative(t *testing.T) {
	runes := buildInputRunes("TI", []string{"chi", "ti"}, true)
	if len(runes) != 3 {
		t.Fatalf("expected 2 runes plus cursor, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("T") || runes[1].s != correctStyle.Render("I") {
		t.Fatalf("expected case-insensitive match against the second alternative")
	}
	if runes[2].s != cursorStyle.Render(" ") {
		t.Fatalf("expected trailing cursor")
	}
}

func TestBuildHistoryRunesLimit(t *testing.T) {
	history := []model.HistoryItem{
		{Char: "あ", IsCorrect: true},
		{Char: "い", IsCorrect: false},
		{Char: "う", IsCorrect: true},
	}
	runes := buildHistoryRunes(history, 2)
	if len(runes) != 3 {
		t.Fatalf("expected 2 glyphs and a separator, got %d", len(runes))
	}
	if runes[0].s != incorrectStyle.Render("い") || runes[0].width != 2 {
		t.Fatalf("expected wide incorrect い first, got %+v", runes[0])
	}
	if !runes[1].isSpace {
		t.Fatalf("expected separator")
	}
	if runes[2].s != correctStyle.Render("う") {
		t.Fatalf("expected correct う last")
	}
}

func TestWrapStyledRunesWideGlyphs(t *testing.T) {
	history := []model.HistoryItem{
		{Char: "あ", IsCorrect: true},
		{Char: "い", IsCorrect: false},
		{Char: "う", IsCorrect: true},
	}
	got := wrapStyledRunes(buildHistoryRunes(history, 0), 5)
	want := correctStyle.Render("あ") + "\n" + incorrectStyle.Render("い") + " " + correctStyle.Render("う")
	if got != want {
		t.Fatalf("unexpected wrap %q, want %q", got, want)
	}
}
