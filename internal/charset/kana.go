// Package charset holds the built-in kana tables and the drill pool registry.
package charset

import (
	"strings"

	"github.com/verte-zerg/kanadrill/internal/model"
)

// Built-in set names. Kanji is a virtual set covering every library set.
const (
	Hiragana = "hiragana"
	Katakana = "katakana"
	Kanji    = "kanji"
)

// Kana type tags.
const (
	TypeBasic      = "basic"
	TypeDakuten    = "dakuten"
	TypeHandakuten = "handakuten"
)

// KanaTypes lists the kana type tags in display order.
var KanaTypes = []string{TypeBasic, TypeDakuten, TypeHandakuten}

const katakanaOffset = 0x60

type kanaCell struct {
	col    int
	char   string
	romaji string
}

type kanaRow struct {
	row   string
	typ   string
	cells []kanaCell
}

// Alternative spellings are separated by "|", Hepburn first.
var hiraganaRows = []kanaRow{
	{"vowel", TypeBasic, []kanaCell{{1, "あ", "a"}, {2, "い", "i"}, {3, "う", "u"}, {4, "え", "e"}, {5, "お", "o"}}},
	{"k", TypeBasic, []kanaCell{{1, "か", "ka"}, {2, "き", "ki"}, {3, "く", "ku"}, {4, "け", "ke"}, {5, "こ", "ko"}}},
	{"s", TypeBasic, []kanaCell{{1, "さ", "sa"}, {2, "し", "shi|si"}, {3, "す", "su"}, {4, "せ", "se"}, {5, "そ", "so"}}},
	{"t", TypeBasic, []kanaCell{{1, "た", "ta"}, {2, "ち", "chi|ti"}, {3, "つ", "tsu|tu"}, {4, "て", "te"}, {5, "と", "to"}}},
	{"n", TypeBasic, []kanaCell{{1, "な", "na"}, {2, "に", "ni"}, {3, "ぬ", "nu"}, {4, "ね", "ne"}, {5, "の", "no"}}},
	{"h", TypeBasic, []kanaCell{{1, "は", "ha"}, {2, "ひ", "hi"}, {3, "ふ", "fu|hu"}, {4, "へ", "he"}, {5, "ほ", "ho"}}},
	{"m", TypeBasic, []kanaCell{{1, "ま", "ma"}, {2, "み", "mi"}, {3, "む", "mu"}, {4, "め", "me"}, {5, "も", "mo"}}},
	{"y", TypeBasic, []kanaCell{{1, "や", "ya"}, {3, "ゆ", "yu"}, {5, "よ", "yo"}}},
	{"r", TypeBasic, []kanaCell{{1, "ら", "ra"}, {2, "り", "ri"}, {3, "る", "ru"}, {4, "れ", "re"}, {5, "ろ", "ro"}}},
	{"w", TypeBasic, []kanaCell{{1, "わ", "wa"}, {5, "を", "wo|o"}}},
	{"n-single", TypeBasic, []kanaCell{{1, "ん", "n|nn"}}},
	{"g", TypeDakuten, []kanaCell{{1, "が", "ga"}, {2, "ぎ", "gi"}, {3, "ぐ", "gu"}, {4, "げ", "ge"}, {5, "ご", "go"}}},
	{"z", TypeDakuten, []kanaCell{{1, "ざ", "za"}, {2, "じ", "ji|zi"}, {3, "ず", "zu"}, {4, "ぜ", "ze"}, {5, "ぞ", "zo"}}},
	{"d", TypeDakuten, []kanaCell{{1, "だ", "da"}, {2, "ぢ", "ji|di"}, {3, "づ", "zu|du"}, {4, "で", "de"}, {5, "ど", "do"}}},
	{"b", TypeDakuten, []kanaCell{{1, "ば", "ba"}, {2, "び", "bi"}, {3, "ぶ", "bu"}, {4, "べ", "be"}, {5, "ぼ", "bo"}}},
	{"p", TypeHandakuten, []kanaCell{{1, "ぱ", "pa"}, {2, "ぴ", "pi"}, {3, "ぷ", "pu"}, {4, "ぺ", "pe"}, {5, "ぽ", "po"}}},
}

// Column describes a consonant column of the kana grid.
type Column struct {
	ID    string
	Label string
}

// Columns lists grid columns right-to-left as in a printed gojūon table.
var Columns = []Column{
	{"n-single", "N"}, {"w", "W"}, {"r", "R"}, {"y", "Y"}, {"m", "M"},
	{"h", "H"}, {"n", "N"}, {"t", "T"}, {"s", "S"}, {"k", "K"}, {"vowel", "A"},
	{"g", "G"}, {"z", "Z"}, {"d", "D"}, {"b", "B"}, {"p", "P"},
}

// VowelLabels labels grid rows by Col index (1..5).
var VowelLabels = []string{"a", "i", "u", "e", "o"}

var staticSets = map[string][]model.Kana{
	Hiragana: buildKana(false),
	Katakana: buildKana(true),
}

func buildKana(katakana bool) []model.Kana {
	var out []model.Kana
	for _, row := range hiraganaRows {
		for _, cell := range row.cells {
			ch := cell.char
			if katakana {
				ch = toKatakana(ch)
			}
			out = append(out, model.Kana{
				Char:   ch,
				Romaji: strings.Split(cell.romaji, "|"),
				Type:   row.typ,
				Row:    row.row,
				Col:    cell.col,
			})
		}
	}
	return out
}

func toKatakana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'ぁ' && r <= 'ゖ' {
			runes[i] = r + katakanaOffset
		}
	}
	return string(runes)
}

// StaticSetNames lists the built-in kana sets.
func StaticSetNames() []string {
	return []string{Hiragana, Katakana}
}

// StaticSet returns a copy of a built-in kana set.
func StaticSet(name string) []model.Kana {
	set, ok := staticSets[name]
	if !ok {
		return nil
	}
	return append([]model.Kana(nil), set...)
}

// IsStatic reports whether name is a built-in kana set.
func IsStatic(name string) bool {
	_, ok := staticSets[name]
	return ok
}

// InitialSelection returns the basic kana of a built-in set.
func InitialSelection(name string) []string {
	var out []string
	for _, k := range staticSets[name] {
		if k.Type == TypeBasic {
			out = append(out, k.Char)
		}
	}
	return out
}
