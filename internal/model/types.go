// Package model defines shared data structures.
package model

import (
	"sort"
	"strings"
	"time"
)

// Direction selects which side of a character is shown as the prompt.
type Direction string

const (
	// CharToRomaji shows the glyph and expects a typed romanization.
	CharToRomaji Direction = "charToRomaji"
	// RomajiToChar shows the romanization or reading and offers glyph choices.
	RomajiToChar Direction = "romajiToChar"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == CharToRomaji || d == RomajiToChar
}

// Drillable is the common view over static kana and library kanji.
type Drillable interface {
	// Glyph is the character itself. History and mistakes are keyed by it.
	Glyph() string
	// Answers lists accepted romanizations in display order.
	Answers() []string
	// Readings lists kana readings, empty for plain kana.
	Readings() []string
	// Gloss is the meaning, empty for plain kana.
	Gloss() string
	// Kind is the type tag (basic, dakuten, handakuten, kanji).
	Kind() string
	// Key identifies the character inside a selection.
	Key() string
}

// Kana is a statically defined hiragana or katakana character.
type Kana struct {
	Char   string
	Romaji []string
	Type   string
	Row    string
	Col    int
}

func (k Kana) Glyph() string      { return k.Char }
func (k Kana) Answers() []string  { return k.Romaji }
func (k Kana) Readings() []string { return nil }
func (k Kana) Gloss() string      { return "" }
func (k Kana) Kind() string       { return k.Type }
func (k Kana) Key() string        { return k.Char }

// KindKanji tags characters loaded from the library.
const KindKanji = "kanji"

// StudySet is a user-defined collection of kanji.
type StudySet struct {
	ID   string
	Name string
}

// LibraryKanji is a kanji stored in a study set.
type LibraryKanji struct {
	ID      string
	Char    string
	Reading string
	Romaji  []string
	Meaning string
	SetID   string
}

func (k LibraryKanji) Glyph() string     { return k.Char }
func (k LibraryKanji) Answers() []string { return k.Romaji }
func (k LibraryKanji) Gloss() string     { return k.Meaning }
func (k LibraryKanji) Kind() string      { return KindKanji }

// Readings splits the stored reading on "/" and ",".
func (k LibraryKanji) Readings() []string {
	if strings.TrimSpace(k.Reading) == "" {
		return nil
	}
	parts := strings.FieldsFunc(k.Reading, func(r rune) bool {
		return r == '/' || r == ',' || r == '、'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Key returns the document id, falling back to the glyph.
func (k LibraryKanji) Key() string {
	if k.ID != "" {
		return k.ID
	}
	return k.Char
}

// NewKanji holds the fields of a kanji that is not stored yet.
type NewKanji struct {
	Char    string
	Reading string
	Romaji  []string
	Meaning string
	SetID   string
}

// KanjiUpdate lists the fields to change on a stored kanji. Nil fields are kept.
type KanjiUpdate struct {
	Char    *string
	Reading *string
	Romaji  []string
	Meaning *string
	SetID   *string
}

// Empty reports whether the update changes nothing.
func (u KanjiUpdate) Empty() bool {
	return u.Char == nil && u.Reading == nil && u.Romaji == nil && u.Meaning == nil && u.SetID == nil
}

// MistakeRecord counts incorrect answers for one glyph.
type MistakeRecord struct {
	Count       int        `json:"count"`
	LastMistake *time.Time `json:"lastMistake"`
}

// HistoryItem records one answer attempt.
type HistoryItem struct {
	Char      string    `json:"char"`
	IsCorrect bool      `json:"isCorrect"`
	Answer    string    `json:"answer"`
	Correct   string    `json:"correct"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionStats holds running attempt counters.
type SessionStats struct {
	Attempts int `json:"attempts"`
	Correct  int `json:"correct"`
}

// Question is a single prompt built from a selected character.
type Question struct {
	Prompt    string
	Hint      string
	Answers   []string
	Direction Direction
	Char      Drillable
	Options   []Drillable
}

// MultipleChoice reports whether the question is answered by picking an option.
func (q *Question) MultipleChoice() bool {
	return q.Direction == RomajiToChar
}

// Feedback is the outcome of checking an answer.
type Feedback struct {
	IsCorrect      bool
	CorrectAnswer  string
	CorrectReading string
}

// Settings is the persisted user configuration. Treat it as a value.
type Settings struct {
	SelectedSets []string
	Selection    map[string][]string
	Direction    Direction
	AutoSkip     bool
	SoundEffects bool
	Speech       bool
	TimedMode    bool
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := s
	out.SelectedSets = append([]string(nil), s.SelectedSets...)
	out.Selection = make(map[string][]string, len(s.Selection))
	for k, v := range s.Selection {
		out.Selection[k] = append([]string(nil), v...)
	}
	return out
}

// SetSelected reports whether set is enabled.
func (s Settings) SetSelected(set string) bool {
	for _, name := range s.SelectedSets {
		if name == set {
			return true
		}
	}
	return false
}

// SelectionSet returns the enabled keys of a set as a lookup map.
func (s Settings) SelectionSet(set string) map[string]struct{} {
	keys := s.Selection[set]
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}

// SortedKeys converts a lookup map back into a sorted slice.
func SortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
