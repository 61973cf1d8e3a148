package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kanadrill/internal/charset"
	"github.com/verte-zerg/kanadrill/internal/model"
)

const selectCellWidth = 5

var (
	selectToggle     []string
	selectToggleRow  []string
	selectToggleType []string
	selectToggleSet  bool
	selectAll        bool
	selectNone       bool
)

func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <set>",
		Short: "Show or change the characters drilled from a set",
		Long: "Show or change the characters drilled from a set.\n\n" +
			"<set> is hiragana, katakana, or the id or name of a study set.",
		Args: cobra.ExactArgs(1),
		RunE: runSelectCmd,
	}
	cmd.Flags().StringSliceVar(&selectToggle, "toggle", nil, "toggle single characters")
	cmd.Flags().StringSliceVar(&selectToggleRow, "toggle-row", nil, "toggle kana columns by consonant (k, s, t, ..., vowel, n-single)")
	cmd.Flags().StringSliceVar(&selectToggleType, "toggle-type", nil, "toggle kana by type (basic, dakuten, handakuten)")
	cmd.Flags().BoolVar(&selectToggleSet, "toggle-set", false, "enable or disable the set in drills")
	cmd.Flags().BoolVar(&selectAll, "all", false, "toggle every character of the set")
	cmd.Flags().BoolVar(&selectNone, "none", false, "clear the selection of the set")
	return cmd
}

func runSelectCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.refreshLibrary(ctx)
	reg := snap.Registry()
	set, err := resolveSet(reg, args[0])
	if err != nil {
		return err
	}

	var applyErr error
	settings := a.settings.Update(ctx, func(s model.Settings) model.Settings {
		next, err := applySelectFlags(reg, s, set)
		if err != nil {
			applyErr = err
			return s
		}
		return charset.Sanitize(next)
	})
	if applyErr != nil {
		return applyErr
	}
	return renderSelection(cmd.OutOrStdout(), reg, settings, set)
}

// resolveSet maps a user supplied name onto a registry set id.
func resolveSet(reg *charset.Registry, arg string) (string, error) {
	name := strings.TrimSpace(arg)
	if charset.IsStatic(strings.ToLower(name)) {
		return strings.ToLower(name), nil
	}
	for _, s := range reg.LibrarySets() {
		if s.ID == name {
			return s.ID, nil
		}
	}
	for _, s := range reg.LibrarySets() {
		if strings.EqualFold(s.Name, name) {
			return s.ID, nil
		}
	}
	return "", fmt.Errorf("set %q: %w", arg, model.ErrNotFound)
}

// drillSetName is the SelectedSets entry that enables set.
func drillSetName(set string) string {
	if charset.IsStatic(set) {
		return set
	}
	return charset.Kanji
}

func applySelectFlags(reg *charset.Registry, s model.Settings, set string) (model.Settings, error) {
	out := s
	if selectNone {
		out = charset.SelectOnly(out, set, nil)
	}
	if selectAll {
		out = reg.ToggleAll(out, set)
	}
	if selectToggleSet {
		out = charset.ToggleSet(out, drillSetName(set))
	}
	for _, typ := range selectToggleType {
		if !charset.IsStatic(set) {
			return s, fmt.Errorf("--toggle-type only applies to kana sets")
		}
		grid := charset.BuildGrid(set, strings.TrimSpace(typ))
		if len(grid.Columns) == 0 {
			return s, fmt.Errorf("unknown kana type %q", typ)
		}
		out = charset.ToggleGroup(out, set, grid.Chars())
	}
	for _, row := range selectToggleRow {
		if !charset.IsStatic(set) {
			return s, fmt.Errorf("--toggle-row only applies to kana sets")
		}
		keys := columnChars(set, strings.TrimSpace(row))
		if len(keys) == 0 {
			return s, fmt.Errorf("unknown kana column %q", row)
		}
		out = charset.ToggleGroup(out, set, keys)
	}
	for _, glyph := range selectToggle {
		key, ok := selectionKey(reg, set, strings.TrimSpace(glyph))
		if !ok {
			return s, fmt.Errorf("character %q is not in set %s", glyph, reg.SetLabel(set))
		}
		out = charset.ToggleChar(out, set, key)
	}
	return out, nil
}

func columnChars(set, column string) []string {
	for _, typ := range charset.KanaTypes {
		if chars := charset.BuildGrid(set, typ).ColumnChars(column); len(chars) > 0 {
			return chars
		}
	}
	return nil
}

// selectionKey returns the selection key of a glyph. Kanji are selected by
// document id so that renaming a glyph keeps its selection.
func selectionKey(reg *charset.Registry, set, glyph string) (string, bool) {
	for _, ch := range reg.Characters(set) {
		if ch.Glyph() == glyph || ch.Key() == glyph {
			return ch.Key(), true
		}
	}
	return "", false
}

func renderSelection(w io.Writer, reg *charset.Registry, s model.Settings, set string) error {
	var b strings.Builder
	state := "disabled"
	if s.SetSelected(drillSetName(set)) {
		state = "enabled"
	}
	selected := s.SelectionSet(set)
	fmt.Fprintf(&b, "%s (%s, %d selected)\n", reg.SetLabel(set), state, len(selected))

	if charset.IsStatic(set) {
		for _, typ := range charset.KanaTypes {
			b.WriteString("\n")
			writeSelectionGrid(&b, charset.BuildGrid(set, typ), typ, selected)
		}
	} else {
		kanji := reg.LibraryKanji(set)
		if len(kanji) == 0 {
			b.WriteString("No kanji in this set yet.\n")
		}
		for _, k := range kanji {
			mark := " "
			if _, ok := selected[k.Key()]; ok {
				mark = "*"
			}
			fmt.Fprintf(&b, "%s %s %s\n", mark, runewidth.FillRight(k.Char, 3), strings.Join(k.Answers(), ", "))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSelectionGrid(b *strings.Builder, grid charset.Grid, title string, selected map[string]struct{}) {
	b.WriteString(title + "\n")
	b.WriteString("  ")
	for _, col := range grid.Columns {
		b.WriteString(runewidth.FillLeft(col.Label, selectCellWidth-1) + " ")
	}
	b.WriteString("\n")
	for _, row := range grid.Rows {
		b.WriteString(row.Label + " ")
		for _, cell := range row.Cells {
			text := ""
			if cell != nil {
				if _, ok := selected[cell.Char]; ok {
					text = "*" + cell.Char
				} else {
					text = " " + cell.Char
				}
			}
			b.WriteString(runewidth.FillLeft(text, selectCellWidth-1) + " ")
		}
		b.WriteString("\n")
	}
}
