package charset

import (
	"github.com/verte-zerg/kanadrill/internal/model"
)

// Registry merges the built-in kana sets with library study sets.
// A Registry is never mutated; WithLibrary returns a new one.
type Registry struct {
	sets  []model.StudySet
	kanji map[string][]model.LibraryKanji
}

// NewRegistry returns a registry holding only the built-in sets.
func NewRegistry() *Registry {
	return &Registry{kanji: map[string][]model.LibraryKanji{}}
}

// WithLibrary returns a registry that also holds the given study sets.
func (r *Registry) WithLibrary(sets []model.StudySet, kanji map[string][]model.LibraryKanji) *Registry {
	next := &Registry{
		sets:  append([]model.StudySet(nil), sets...),
		kanji: make(map[string][]model.LibraryKanji, len(kanji)),
	}
	for id, list := range kanji {
		next.kanji[id] = append([]model.LibraryKanji(nil), list...)
	}
	return next
}

// LibrarySets returns the study sets known to the registry.
func (r *Registry) LibrarySets() []model.StudySet {
	return append([]model.StudySet(nil), r.sets...)
}

// LibraryKanji returns the kanji of one study set.
func (r *Registry) LibraryKanji(setID string) []model.LibraryKanji {
	return append([]model.LibraryKanji(nil), r.kanji[setID]...)
}

// SetNames lists built-in sets followed by library set ids.
func (r *Registry) SetNames() []string {
	names := StaticSetNames()
	for _, s := range r.sets {
		names = append(names, s.ID)
	}
	return names
}

// SetLabel returns a human readable name for a set id.
func (r *Registry) SetLabel(id string) string {
	for _, s := range r.sets {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}

// Characters returns every character of a built-in or library set.
func (r *Registry) Characters(set string) []model.Drillable {
	if IsStatic(set) {
		kana := staticSets[set]
		out := make([]model.Drillable, 0, len(kana))
		for _, k := range kana {
			out = append(out, k)
		}
		return out
	}
	list := r.kanji[set]
	out := make([]model.Drillable, 0, len(list))
	for _, k := range list {
		out = append(out, k)
	}
	return out
}

// Available returns the drill pool for the given settings. Built-in sets
// match the selection by glyph, library sets by document id.
func (r *Registry) Available(s model.Settings) []model.Drillable {
	var out []model.Drillable
	for _, name := range StaticSetNames() {
		if !s.SetSelected(name) {
			continue
		}
		out = append(out, pick(r.Characters(name), s.SelectionSet(name))...)
	}
	if s.SetSelected(Kanji) {
		for _, set := range r.sets {
			out = append(out, pick(r.Characters(set.ID), s.SelectionSet(set.ID))...)
		}
	}
	return out
}

// Fallback returns every character of the selected sets, selected or not.
// It pads multiple-choice options when the drill pool is too small.
func (r *Registry) Fallback(s model.Settings) []model.Drillable {
	var out []model.Drillable
	for _, name := range StaticSetNames() {
		if s.SetSelected(name) {
			out = append(out, r.Characters(name)...)
		}
	}
	if s.SetSelected(Kanji) {
		for _, set := range r.sets {
			out = append(out, r.Characters(set.ID)...)
		}
	}
	return out
}

func pick(chars []model.Drillable, selected map[string]struct{}) []model.Drillable {
	if len(selected) == 0 {
		return nil
	}
	out := make([]model.Drillable, 0, len(selected))
	for _, ch := range chars {
		if _, ok := selected[ch.Key()]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// GridRow is one vowel row of a kana grid.
type GridRow struct {
	Label string
	Cells []*model.Kana
}

// Grid is a kana table for one set and type, with empty cells as nil.
type Grid struct {
	Columns []Column
	Rows    []GridRow
}

// Chars returns the glyphs present in the grid.
func (g Grid) Chars() []string {
	var out []string
	for _, row := range g.Rows {
		for _, cell := range row.Cells {
			if cell != nil {
				out = append(out, cell.Char)
			}
		}
	}
	return out
}

// ColumnChars returns the glyphs of one consonant column.
func (g Grid) ColumnChars(id string) []string {
	idx := -1
	for i, c := range g.Columns {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	var out []string
	for _, row := range g.Rows {
		if cell := row.Cells[idx]; cell != nil {
			out = append(out, cell.Char)
		}
	}
	return out
}

// BuildGrid lays out the kana of one type in consonant columns and vowel rows.
func BuildGrid(set, typ string) Grid {
	byCol := map[string]map[int]model.Kana{}
	for _, k := range staticSets[set] {
		if k.Type != typ || k.Row == "" || k.Col == 0 {
			continue
		}
		if byCol[k.Row] == nil {
			byCol[k.Row] = map[int]model.Kana{}
		}
		byCol[k.Row][k.Col] = k
	}
	var grid Grid
	for _, col := range Columns {
		if _, ok := byCol[col.ID]; ok {
			grid.Columns = append(grid.Columns, col)
		}
	}
	for i, label := range VowelLabels {
		row := GridRow{Label: label, Cells: make([]*model.Kana, len(grid.Columns))}
		for j, col := range grid.Columns {
			if k, ok := byCol[col.ID][i+1]; ok {
				k := k
				row.Cells[j] = &k
			}
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}
