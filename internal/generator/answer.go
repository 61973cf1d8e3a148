package generator

import (
	"strings"

	"github.com/verte-zerg/kanadrill/internal/model"
)

const displaySeparator = " / "

// NewQuestion builds a question for ch. Multiple-choice options come from
// pool and are padded from fallback when pool is too small.
func (g *Generator) NewQuestion(ch model.Drillable, direction model.Direction, pool, fallback []model.Drillable) *model.Question {
	q := &model.Question{
		Direction: direction,
		Char:      ch,
		Hint:      ch.Gloss(),
	}
	if direction == model.RomajiToChar {
		q.Prompt = identifyPrompt(ch)
		q.Answers = []string{ch.Glyph()}
		q.Options = g.GenerateOptionsPadded(ch, pool, fallback)
		return q
	}
	q.Direction = model.CharToRomaji
	q.Prompt = ch.Glyph()
	q.Answers = normalizedAnswers(ch)
	return q
}

// identifyPrompt prefers the first reading and falls back to the romanization.
func identifyPrompt(ch model.Drillable) string {
	if readings := ch.Readings(); len(readings) > 0 {
		return readings[0]
	}
	if answers := ch.Answers(); len(answers) > 0 {
		return answers[0]
	}
	return ch.Glyph()
}

// CheckAnswer judges attempt against the active question.
func CheckAnswer(q *model.Question, attempt string) model.Feedback {
	if q == nil || q.Char == nil {
		return model.Feedback{}
	}
	var fb model.Feedback
	if q.Direction == model.RomajiToChar {
		fb.IsCorrect = attempt == q.Char.Glyph()
		fb.CorrectAnswer = q.Char.Glyph()
	} else {
		normalized := Normalize(attempt)
		for _, ans := range normalizedAnswers(q.Char) {
			if ans == normalized {
				fb.IsCorrect = true
				break
			}
		}
		fb.CorrectAnswer = RomajiText(q.Char)
	}
	if readings := q.Char.Readings(); len(readings) > 0 {
		fb.CorrectReading = strings.Join(readings, displaySeparator)
	}
	return fb
}

// IsAnswerPrefix reports whether input could still grow into an accepted
// romanization. Empty input is always a prefix.
func IsAnswerPrefix(q *model.Question, input string) bool {
	if q == nil || q.Char == nil {
		return false
	}
	normalized := Normalize(input)
	for _, ans := range normalizedAnswers(q.Char) {
		if strings.HasPrefix(ans, normalized) {
			return true
		}
	}
	return false
}

// Normalize lowercases and trims an answer.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RomajiText joins the accepted romanizations for display.
func RomajiText(ch model.Drillable) string {
	return strings.Join(ch.Answers(), displaySeparator)
}

func normalizedAnswers(ch model.Drillable) []string {
	answers := ch.Answers()
	out := make([]string, 0, len(answers))
	for _, a := range answers {
		out = append(out, Normalize(a))
	}
	return out
}
