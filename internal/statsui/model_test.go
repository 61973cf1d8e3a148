package statsui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/kanadrill/internal/model"
	"github.com/verte-zerg/kanadrill/internal/progress"
	"github.com/verte-zerg/kanadrill/internal/stats"
)

func sampleReport() stats.Report {
	snap := progress.Snapshot{
		History: []model.HistoryItem{
			{Char: "あ", IsCorrect: true},
			{Char: "あ", IsCorrect: false},
			{Char: "か", IsCorrect: true},
		},
		Stats:    model.SessionStats{Attempts: 3, Correct: 2},
		Mistakes: map[string]model.MistakeRecord{"あ": {Count: 1}},
	}
	return stats.BuildReport(snap, nil)
}

func TestNewModelLoadsReport(t *testing.T) {
	m := NewModel(func() (stats.Report, error) { return sampleReport(), nil })
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	view := m.View()
	if !strings.Contains(view, "Overview") || !strings.Contains(view, "Attempts") {
		t.Fatalf("expected overview to render, got:\n%s", view)
	}
	if len(m.charTable.Rows()) != 2 {
		t.Fatalf("expected 2 char rows, got %d", len(m.charTable.Rows()))
	}
	if m.charTable.Rows()[0][0] != "あ" {
		t.Fatalf("expected weakest char first, got %v", m.charTable.Rows()[0])
	}
}

func TestLoadErrorShown(t *testing.T) {
	m := NewModel(func() (stats.Report, error) { return stats.Report{}, errors.New("boom") })
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	if !strings.Contains(m.View(), "boom") {
		t.Fatalf("expected error in footer")
	}
}

func TestTabNavigationWraps(t *testing.T) {
	m := NewModel(func() (stats.Report, error) { return sampleReport(), nil })
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabChars {
		t.Fatalf("expected wrap to last tab, got %d", m.activeTab)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabOverview {
		t.Fatalf("expected wrap to first tab, got %d", m.activeTab)
	}
}

func TestCharFilter(t *testing.T) {
	m := NewModel(func() (stats.Report, error) { return sampleReport(), nil })
	m.activeTab = tabChars
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filter.SetValue("か")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected filter to close")
	}
	rows := m.charTable.Rows()
	if len(rows) != 1 || rows[0][0] != "か" {
		t.Fatalf("unexpected filtered rows %v", rows)
	}
}

func TestTrendWindowSteps(t *testing.T) {
	if got := nextTrendWindow(10); got != 15 {
		t.Fatalf("next(10) = %d", got)
	}
	if got := nextTrendWindow(3); got != 5 {
		t.Fatalf("next(3) = %d", got)
	}
	if got := prevTrendWindow(5); got != 1 {
		t.Fatalf("prev(5) = %d", got)
	}
	if got := prevTrendWindow(12); got != 10 {
		t.Fatalf("prev(12) = %d", got)
	}
}

func TestParseRawCharsDedupes(t *testing.T) {
	got := parseRawChars("あ, か あ")
	if strings.Join(got, "") != "あか" {
		t.Fatalf("unexpected chars %v", got)
	}
}
