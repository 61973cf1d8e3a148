package charset

import (
	"github.com/verte-zerg/kanadrill/internal/model"
)

// legacySet is the static kanji list older versions stored in settings.
const legacySet = "kanji_basic"

// DefaultSettings returns the settings used before anything is persisted.
func DefaultSettings() model.Settings {
	return model.Settings{
		SelectedSets: []string{Hiragana},
		Selection:    DefaultSelection(),
		Direction:    model.CharToRomaji,
		AutoSkip:     true,
		SoundEffects: true,
	}
}

// DefaultSelection enables the basic kana of every built-in set.
func DefaultSelection() map[string][]string {
	out := map[string][]string{}
	for _, name := range StaticSetNames() {
		out[name] = InitialSelection(name)
	}
	return out
}

// Sanitize drops unknown built-in set names, maps the legacy static kanji
// set onto the library and makes sure every built-in set has a selection.
func Sanitize(s model.Settings) model.Settings {
	out := s.Clone()
	valid := map[string]bool{Hiragana: true, Katakana: true, Kanji: true}
	sets := make([]string, 0, len(out.SelectedSets))
	hadLegacy := false
	for _, name := range out.SelectedSets {
		if name == legacySet {
			hadLegacy = true
			continue
		}
		if valid[name] {
			sets = append(sets, name)
		}
	}
	if hadLegacy && !contains(sets, Kanji) {
		sets = append(sets, Kanji)
	}
	if len(sets) == 0 && len(out.SelectedSets) > 0 {
		sets = []string{Hiragana}
	}
	out.SelectedSets = sets

	delete(out.Selection, legacySet)
	for _, name := range StaticSetNames() {
		if _, ok := out.Selection[name]; !ok {
			out.Selection[name] = InitialSelection(name)
		}
	}
	if !out.Direction.Valid() {
		out.Direction = model.CharToRomaji
	}
	return out
}

// ToggleSet enables or disables a whole set.
func ToggleSet(s model.Settings, set string) model.Settings {
	out := s.Clone()
	if contains(out.SelectedSets, set) {
		filtered := out.SelectedSets[:0]
		for _, name := range out.SelectedSets {
			if name != set {
				filtered = append(filtered, name)
			}
		}
		out.SelectedSets = filtered
		return out
	}
	out.SelectedSets = append(out.SelectedSets, set)
	return out
}

// ToggleChar flips one key in a set's selection.
func ToggleChar(s model.Settings, set, key string) model.Settings {
	out := s.Clone()
	keys := out.SelectionSet(set)
	if _, ok := keys[key]; ok {
		delete(keys, key)
	} else {
		keys[key] = struct{}{}
	}
	out.Selection[set] = model.SortedKeys(keys)
	return out
}

// ToggleGroup deselects keys when all are selected, otherwise selects them all.
// An empty group leaves the settings unchanged.
func ToggleGroup(s model.Settings, set string, keys []string) model.Settings {
	if len(keys) == 0 {
		return s
	}
	out := s.Clone()
	selected := out.SelectionSet(set)
	all := true
	for _, k := range keys {
		if _, ok := selected[k]; !ok {
			all = false
			break
		}
	}
	for _, k := range keys {
		if all {
			delete(selected, k)
		} else {
			selected[k] = struct{}{}
		}
	}
	out.Selection[set] = model.SortedKeys(selected)
	return out
}

// SelectOnly replaces a set's selection.
func SelectOnly(s model.Settings, set string, keys []string) model.Settings {
	out := s.Clone()
	selected := map[string]struct{}{}
	for _, k := range keys {
		selected[k] = struct{}{}
	}
	out.Selection[set] = model.SortedKeys(selected)
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// ToggleAll applies ToggleGroup to every character of a set.
func (r *Registry) ToggleAll(s model.Settings, set string) model.Settings {
	chars := r.Characters(set)
	keys := make([]string, 0, len(chars))
	for _, ch := range chars {
		keys = append(keys, ch.Key())
	}
	return ToggleGroup(s, set, keys)
}
