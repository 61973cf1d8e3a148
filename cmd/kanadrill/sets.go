package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kanadrill/internal/library"
	"github.com/verte-zerg/kanadrill/internal/model"
)

var (
	kanjiChar    string
	kanjiReading string
	kanjiRomaji  []string
	kanjiMeaning string
)

func newSetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sets",
		Short: "Manage kanji study sets",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List study sets",
		Args:  cobra.NoArgs,
		RunE:  runSetsListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create a study set",
		Args:  cobra.ExactArgs(1),
		RunE:  runSetsAddCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <set>",
		Short: "Delete a study set and its kanji",
		Args:  cobra.ExactArgs(1),
		RunE:  runSetsRmCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "kanji <set>",
		Short: "List the kanji of a study set",
		Args:  cobra.ExactArgs(1),
		RunE:  runKanjiListCmd,
	})

	add := &cobra.Command{
		Use:   "kanji-add <set>",
		Short: "Add a kanji to a study set",
		Args:  cobra.ExactArgs(1),
		RunE:  runKanjiAddCmd,
	}
	addKanjiFlags(add)
	cmd.AddCommand(add)

	edit := &cobra.Command{
		Use:   "kanji-edit <kanji-id>",
		Short: "Change fields of a kanji",
		Args:  cobra.ExactArgs(1),
		RunE:  runKanjiEditCmd,
	}
	addKanjiFlags(edit)
	cmd.AddCommand(edit)

	cmd.AddCommand(&cobra.Command{
		Use:   "kanji-rm <kanji-id>",
		Short: "Delete a kanji",
		Args:  cobra.ExactArgs(1),
		RunE:  runKanjiRmCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "kanji-move <kanji-id> <set>",
		Short: "Move a kanji to another study set",
		Args:  cobra.ExactArgs(2),
		RunE:  runKanjiMoveCmd,
	})
	return cmd
}

func addKanjiFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&kanjiChar, "char", "", "the kanji")
	cmd.Flags().StringVar(&kanjiReading, "reading", "", "kana readings separated by / or ,")
	cmd.Flags().StringSliceVar(&kanjiRomaji, "romaji", nil, "accepted romanizations")
	cmd.Flags().StringVar(&kanjiMeaning, "meaning", "", "meaning")
}

func runSetsListCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.library.Refresh(ctx)
	if err != nil {
		return err
	}
	return writeSets(cmd.OutOrStdout(), snap)
}

func writeSets(w io.Writer, snap library.Snapshot) error {
	if len(snap.Sets) == 0 {
		_, err := io.WriteString(w, "No study sets. Create one with: kanadrill sets add <name>\n")
		return err
	}
	var b strings.Builder
	for _, s := range snap.Sets {
		fmt.Fprintf(&b, "%s  %s (%d kanji)\n", s.ID, s.Name, len(snap.Kanji[s.ID]))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func runSetsAddCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	set, err := a.library.AddSet(ctx, args[0])
	if err != nil {
		return describeLibraryError(err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", set.Name, set.ID)
	return err
}

func runSetsRmCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.refreshLibrary(ctx)
	id, err := resolveSet(snap.Registry(), args[0])
	if err != nil {
		return err
	}
	if err := a.library.DeleteSet(ctx, id); err != nil {
		return describeLibraryError(err)
	}
	a.refreshLibrary(ctx)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", snap.Registry().SetLabel(id))
	return err
}

func runKanjiListCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.refreshLibrary(ctx)
	id, err := resolveSet(snap.Registry(), args[0])
	if err != nil {
		return err
	}
	return writeKanji(cmd.OutOrStdout(), snap.Kanji[id])
}

func writeKanji(w io.Writer, list []model.LibraryKanji) error {
	if len(list) == 0 {
		_, err := io.WriteString(w, "No kanji in this set yet.\n")
		return err
	}
	var b strings.Builder
	for _, k := range list {
		fmt.Fprintf(&b, "%s  %s %s %s %s\n",
			k.ID,
			runewidth.FillRight(k.Char, 3),
			runewidth.FillRight(k.Reading, 12),
			runewidth.FillRight(strings.Join(k.Romaji, ", "), 16),
			k.Meaning,
		)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func runKanjiAddCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.refreshLibrary(ctx)
	setID, err := resolveSet(snap.Registry(), args[0])
	if err != nil {
		return err
	}
	k, err := a.library.AddKanji(ctx, model.NewKanji{
		Char:    kanjiChar,
		Reading: kanjiReading,
		Romaji:  kanjiRomaji,
		Meaning: kanjiMeaning,
		SetID:   setID,
	})
	if err != nil {
		return describeLibraryError(err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", k.Char, k.ID)
	return err
}

func runKanjiEditCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	k, err := a.library.UpdateKanji(ctx, args[0], kanjiUpdateFromFlags(cmd))
	if err != nil {
		return describeLibraryError(err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", k.Char, k.ID)
	return err
}

// kanjiUpdateFromFlags builds a partial update from the flags given on the command line.
func kanjiUpdateFromFlags(cmd *cobra.Command) model.KanjiUpdate {
	var upd model.KanjiUpdate
	if cmd.Flags().Changed("char") {
		v := kanjiChar
		upd.Char = &v
	}
	if cmd.Flags().Changed("reading") {
		v := kanjiReading
		upd.Reading = &v
	}
	if cmd.Flags().Changed("romaji") {
		upd.Romaji = append([]string{}, kanjiRomaji...)
	}
	if cmd.Flags().Changed("meaning") {
		v := kanjiMeaning
		upd.Meaning = &v
	}
	return upd
}

func runKanjiRmCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.refreshLibrary(ctx)
	if _, err := a.library.RemoveKanji(ctx, snap, args[0]); err != nil {
		return describeLibraryError(err)
	}
	a.refreshLibrary(ctx)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return err
}

func runKanjiMoveCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.refreshLibrary(ctx)
	target, err := resolveSet(snap.Registry(), args[1])
	if err != nil {
		return err
	}
	next, err := a.library.MoveKanji(ctx, snap, args[0], target)
	if err != nil {
		return describeLibraryError(err)
	}
	// The kanji keeps its id, so only selections of the source set go stale.
	a.settings.Update(ctx, func(s model.Settings) model.Settings {
		return library.SanitizeSelection(s, next)
	})
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", args[0], next.Registry().SetLabel(target))
	return err
}

// describeLibraryError turns validation errors into a readable list.
func describeLibraryError(err error) error {
	var verr *model.ValidationError
	if !errors.As(err, &verr) || len(verr.Errors) < 2 {
		return err
	}
	lines := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		lines = append(lines, fmt.Sprintf("  %s: %s", fe.Field, fe.Message))
	}
	return fmt.Errorf("invalid input:\n%s", strings.Join(lines, "\n"))
}
