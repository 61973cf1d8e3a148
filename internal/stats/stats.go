package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
)

const sparkChars = " .:-=+*#%@"

// DefaultTrendWindow is the moving-average window of the accuracy trend.
const DefaultTrendWindow = 10

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Trend returns the smoothed accuracy curve limited to the latest width points.
func Trend(r Report, window, width int) []float64 {
	values := MovingAverage(r.Outcomes, window)
	if width > 0 && len(values) > width {
		values = values[len(values)-width:]
	}
	return values
}

// RenderSummary prints the overall counters.
func RenderSummary(w io.Writer, r Report) error {
	if r.Attempts == 0 {
		_, err := fmt.Fprintln(w, "No answers recorded yet.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Attempts: %d", r.Attempts),
		fmt.Sprintf("Correct: %d", r.Correct),
		fmt.Sprintf("Accuracy: %.2f%%", r.Accuracy()),
		fmt.Sprintf("Streak: %d", r.Streak),
		fmt.Sprintf("Last %d: %.0f%%", r.RecentCount, r.Recent),
		fmt.Sprintf("Characters seen: %d", r.UniqueSeen),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrend prints the accuracy sparkline.
func RenderTrend(w io.Writer, r Report, window, width int) error {
	values := Trend(r, window, width)
	if len(values) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Accuracy Trend"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "|%s|\n\n", Sparkline(values)); err != nil {
		return err
	}
	return nil
}

// RenderCharTable prints per-character stats, lowest accuracy first.
func RenderCharTable(w io.Writer, chars []CharStat) error {
	if len(chars) == 0 {
		_, err := fmt.Fprintln(w, "No character stats found.")
		return err
	}
	rows := SelectWeakChars(chars, 0)

	if _, err := fmt.Fprintln(w, "Per-Character"); err != nil {
		return err
	}
	headers := []string{"Char", "Accuracy", "Correct", "Attempts", "Mistakes"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.Char,
			fmt.Sprintf("%.2f%%", r.Accuracy()),
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%d", r.Attempts),
			fmt.Sprintf("%d", r.Mistakes),
		})
	}
	return writeTable(w, headers, tableRows, map[int]bool{1: true, 2: true, 3: true, 4: true})
}

// RenderSets prints the average accuracy of every library study set.
func RenderSets(w io.Writer, sets []SetSummary) error {
	if len(sets) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Study Sets"); err != nil {
		return err
	}
	headers := []string{"Set", "Kanji", "Attempts", "Average"}
	tableRows := make([][]string, 0, len(sets))
	for _, s := range sets {
		avg := "-"
		if s.Attempts > 0 {
			avg = fmt.Sprintf("%.0f%%", s.Accuracy())
		}
		tableRows = append(tableRows, []string{
			s.Name,
			fmt.Sprintf("%d", s.Kanji),
			fmt.Sprintf("%d", s.Attempts),
			avg,
		})
	}
	return writeTable(w, headers, tableRows, map[int]bool{1: true, 2: true, 3: true})
}

// RenderGrids prints kana grids with per-cell accuracy. Grids with no
// answered kana are skipped.
func RenderGrids(w io.Writer, grids []GridStats) error {
	for _, g := range grids {
		if !anyAttempted(g) {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", title(g.Set), g.Type); err != nil {
			return err
		}
		headers := []string{""}
		for _, col := range g.Grid.Columns {
			headers = append(headers, col.Label)
		}
		rows := make([][]string, 0, len(g.Cells))
		for i, cells := range g.Cells {
			row := []string{g.Grid.Rows[i].Label}
			for _, c := range cells {
				row = append(row, FormatCell(c))
			}
			rows = append(rows, row)
		}
		if err := writeTable(w, headers, rows, nil); err != nil {
			return err
		}
	}
	return nil
}

// FormatCell renders a grid cell as glyph plus accuracy.
func FormatCell(c GridCell) string {
	switch {
	case c.Kana == nil:
		return ""
	case !c.Attempted:
		return c.Kana.Char + " -"
	default:
		return fmt.Sprintf("%s %.0f%%", c.Kana.Char, c.Stat.Accuracy())
	}
}

// RenderReport prints the full text report.
func RenderReport(w io.Writer, r Report, width int) error {
	if err := RenderSummary(w, r); err != nil {
		return err
	}
	if r.Attempts == 0 {
		return nil
	}
	if err := RenderTrend(w, r, DefaultTrendWindow, width); err != nil {
		return err
	}
	if err := RenderSets(w, r.Sets); err != nil {
		return err
	}
	if err := RenderGrids(w, KanaGrids(r)); err != nil {
		return err
	}
	return RenderCharTable(w, r.CharList())
}

func writeTable(w io.Writer, headers []string, rows [][]string, rightAlign map[int]bool) error {
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func anyAttempted(g GridStats) bool {
	for _, row := range g.Cells {
		for _, c := range row {
			if c.Attempted {
				return true
			}
		}
	}
	return false
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
