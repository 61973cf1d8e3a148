// Package main provides the CLI entrypoint for kanadrill.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kanadrill/internal/charset"
	"github.com/verte-zerg/kanadrill/internal/config"
	"github.com/verte-zerg/kanadrill/internal/generator"
	"github.com/verte-zerg/kanadrill/internal/model"
	"github.com/verte-zerg/kanadrill/internal/session"
	"github.com/verte-zerg/kanadrill/internal/tui"
)

var (
	configFile string

	drillDirection string
	drillSets      []string
	drillTimed     bool
	drillAutoSkip  bool
	drillSound     bool
	drillSpeech    bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kanadrill",
		Short:         "Kana and kanji recognition drill",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDrillCmd,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/kanadrill/config.toml)")

	rootCmd.Flags().StringVar(&drillDirection, "direction", "", "charToRomaji (type readings) or romajiToChar (pick glyphs)")
	rootCmd.Flags().StringSliceVar(&drillSets, "sets", nil, "enabled sets: hiragana, katakana, kanji")
	rootCmd.Flags().BoolVar(&drillTimed, "timed", false, "limit each question to the configured time")
	rootCmd.Flags().BoolVar(&drillAutoSkip, "auto-skip", true, "advance automatically after an answer")
	rootCmd.Flags().BoolVar(&drillSound, "sound", true, "play answer tones")
	rootCmd.Flags().BoolVar(&drillSpeech, "speech", false, "speak characters after answering")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSelectCmd())
	rootCmd.AddCommand(newSetsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.DefaultConfigPath()
}

func runDrillCmd(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("direction") && !model.Direction(drillDirection).Valid() {
		return fmt.Errorf("invalid --direction %q (use %s or %s)", drillDirection, model.CharToRomaji, model.RomajiToChar)
	}
	if cmd.Flags().Changed("sets") {
		if err := validateSetNames(drillSets); err != nil {
			return err
		}
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.refreshLibrary(ctx)
	settings := a.settings.Update(ctx, func(s model.Settings) model.Settings {
		return charset.Sanitize(applyDrillFlags(cmd, s))
	})

	reg := snap.Registry()
	sess := session.New(generator.New(), a.tracker, session.Config{
		CorrectDelay:   a.cfg.CorrectDelay,
		IncorrectDelay: a.cfg.IncorrectDelay,
		TimeLimit:      a.cfg.TimeLimit,
		PadOptions:     a.cfg.PadOptions,
	})
	if err := sess.Start(settings, reg.Available(settings), reg.Fallback(settings)); err != nil {
		if errors.Is(err, session.ErrNoCharacters) {
			logErrln("No characters selected. Pick some with: kanadrill select hiragana --all")
		}
		return err
	}

	m := tui.NewModel(sess, a.tracker, tui.Options{
		Player:  a.player(),
		Speaker: a.speaker(),
		Log:     a.log,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if err := a.tracker.Flush(ctx); err != nil {
		a.log.Warn("failed to flush progress", "error", err)
	}
	return nil
}

// applyDrillFlags overrides persisted settings with explicitly set flags.
// The result is stored, so flags stick for later sessions.
func applyDrillFlags(cmd *cobra.Command, s model.Settings) model.Settings {
	out := s.Clone()
	if cmd.Flags().Changed("direction") {
		out.Direction = model.Direction(drillDirection)
	}
	if cmd.Flags().Changed("sets") {
		out.SelectedSets = normalizeSetNames(drillSets)
	}
	applyBoolFlag(cmd, "timed", &out.TimedMode, drillTimed)
	applyBoolFlag(cmd, "auto-skip", &out.AutoSkip, drillAutoSkip)
	applyBoolFlag(cmd, "sound", &out.SoundEffects, drillSound)
	applyBoolFlag(cmd, "speech", &out.Speech, drillSpeech)
	return out
}

func applyBoolFlag(cmd *cobra.Command, name string, dst *bool, value bool) {
	if cmd.Flags().Changed(name) {
		*dst = value
	}
}

var drillSetNames = []string{charset.Hiragana, charset.Katakana, charset.Kanji}

// validateSetNames rejects names that do not refer to a drill set.
func validateSetNames(names []string) error {
	for _, name := range normalizeSetNames(names) {
		known := false
		for _, valid := range drillSetNames {
			if name == valid {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("invalid --sets value %q (use %s)", name, strings.Join(drillSetNames, ", "))
		}
	}
	return nil
}

func normalizeSetNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultFileContents), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(msg string) {
	if _, err := fmt.Fprintln(os.Stderr, msg); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
