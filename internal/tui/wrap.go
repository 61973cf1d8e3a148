package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/kanadrill/internal/model"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildInputRunes styles typed text against the accepted answers. The longest
// prefix shared with any answer is shown as correct, the rest as wrong.
func buildInputRunes(input string, answers []string, cursor bool) []styledRune {
	inputRunes := []rune(input)
	matched := matchedPrefix(inputRunes, answers)

	out := make([]styledRune, 0, len(inputRunes)+1)
	for i, r := range inputRunes {
		style := incorrectStyle
		if i < matched {
			style = correctStyle
		}
		out = append(out, styledRune{
			s:       style.Render(string(r)),
			width:   runewidth.RuneWidth(r),
			isSpace: r == ' ',
		})
	}
	if cursor {
		out = append(out, styledRune{s: cursorStyle.Render(" "), width: 1, isSpace: true})
	}
	return out
}

func matchedPrefix(input []rune, answers []string) int {
	lowered := []rune(strings.ToLower(string(input)))
	best := 0
	for _, ans := range answers {
		target := []rune(ans)
		n := 0
		for n < len(lowered) && n < len(target) && lowered[n] == target[n] {
			n++
		}
		if n > best {
			best = n
		}
	}
	return best
}

// buildHistoryRunes renders the latest answers as glyphs coloured by outcome,
// oldest first, separated by spaces.
func buildHistoryRunes(history []model.HistoryItem, limit int) []styledRune {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]styledRune, 0, len(history)*2)
	for i, item := range history {
		if i > 0 {
			out = append(out, styledRune{s: " ", width: 1, isSpace: true})
		}
		style := incorrectStyle
		if item.IsCorrect {
			style = correctStyle
		}
		out = append(out, styledRune{
			s:     style.Render(item.Char),
			width: runewidth.StringWidth(item.Char),
		})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
