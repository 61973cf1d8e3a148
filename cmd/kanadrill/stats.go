package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/kanadrill/internal/stats"
	"github.com/verte-zerg/kanadrill/internal/statsui"
)

const defaultTextWidth = 60

var (
	statsText  bool
	statsWeak  int
	resetForce bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().BoolVar(&statsText, "text", false, "print a plain text report instead of the interactive view")
	cmd.Flags().IntVar(&statsWeak, "weak", 0, "only list the N weakest characters (text report)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	load := func() (stats.Report, error) {
		a.tracker.Load(ctx)
		snap := a.refreshLibrary(ctx)
		return stats.BuildReport(a.tracker.Snapshot(), snap.Registry()), nil
	}

	fd := int(os.Stdout.Fd())
	if statsText || !term.IsTerminal(fd) {
		report, err := load()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if statsWeak > 0 {
			return stats.RenderCharTable(out, stats.SelectWeakChars(report.CharList(), statsWeak))
		}
		width := defaultTextWidth
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
		return stats.RenderReport(out, report, width)
	}

	program := tea.NewProgram(statsui.NewModel(load), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear answer history, counters, streak and mistakes",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetForce, "yes", false, "confirm the reset")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetForce {
		logErrln("This deletes all progress. Run again with --yes to confirm.")
		return fmt.Errorf("reset not confirmed")
	}
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.tracker.Reset(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Progress cleared.")
	return err
}
