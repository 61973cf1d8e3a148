package main

import (
	"context"
	"fmt"
	"os"

	"github.com/verte-zerg/kanadrill/internal/config"
	"github.com/verte-zerg/kanadrill/internal/feedback"
	"github.com/verte-zerg/kanadrill/internal/library"
	"github.com/verte-zerg/kanadrill/internal/logger"
	"github.com/verte-zerg/kanadrill/internal/model"
	"github.com/verte-zerg/kanadrill/internal/pgstore"
	"github.com/verte-zerg/kanadrill/internal/progress"
	"github.com/verte-zerg/kanadrill/internal/rediskv"
	"github.com/verte-zerg/kanadrill/internal/settings"
	"github.com/verte-zerg/kanadrill/internal/store"
)

// app holds the opened backends for one command run.
type app struct {
	cfg      config.Config
	log      *logger.Logger
	library  *library.Service
	settings *settings.Manager
	tracker  *progress.Tracker

	closers []func()
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, log.Sync)

	var sqlite *store.Store
	if cfg.ProgressBackend == config.BackendSQLite || cfg.LibraryBackend == config.BackendSQLite {
		sqlite, err = store.Open(cfg.DBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		a.closers = append(a.closers, func() {
			if cerr := sqlite.Close(); cerr != nil {
				log.Warn("failed to close db", "error", cerr)
			}
		})
	}

	var kv progress.KV = sqlite
	if cfg.ProgressBackend == config.BackendRedis {
		rdb, err := rediskv.Open(ctx, cfg.RedisAddr, cfg.RedisNamespace)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() {
			if cerr := rdb.Close(); cerr != nil {
				log.Warn("failed to close redis", "error", cerr)
			}
		})
		kv = rdb
	}

	var docs library.Store = sqlite
	if cfg.LibraryBackend == config.BackendPostgres {
		pg, err := pgstore.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		docs = pg
	}

	a.library = library.NewService(docs, log)
	a.settings = settings.New(kv, log)
	a.settings.Load(ctx)
	a.tracker = progress.New(kv, log)
	// Closed first so queued progress writes reach the store.
	a.closers = append(a.closers, a.tracker.Close)
	a.tracker.Load(ctx)
	log.Debug("backends ready", "progress", cfg.ProgressBackend, "library", cfg.LibraryBackend)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// refreshLibrary loads the library and drops selections that point at deleted
// sets or kanji. A failing library store is logged and the drill continues
// with the built-in sets.
func (a *app) refreshLibrary(ctx context.Context) library.Snapshot {
	snap, err := a.library.Refresh(ctx)
	if err != nil {
		a.log.Error("failed to refresh library", "error", err)
		logErrf("Could not load study sets; continuing with built-in kana.\n")
		return library.Snapshot{}
	}
	a.settings.Update(ctx, func(s model.Settings) model.Settings {
		return library.SanitizeSelection(s, snap)
	})
	return snap
}

func (a *app) player() feedback.Player {
	switch a.cfg.Tone {
	case config.ToneCommand:
		cmd, err := feedback.NewToneCommand(a.cfg.ToneCommand, a.log)
		if err != nil {
			a.log.Warn("invalid tone command", "error", err)
			return feedback.Noop{}
		}
		return cmd
	case config.ToneBell:
		return feedback.Bell{W: os.Stderr}
	default:
		return feedback.Noop{}
	}
}

func (a *app) speaker() feedback.Speaker {
	if a.cfg.SpeechCommand == "" {
		return feedback.Noop{}
	}
	cmd, err := feedback.NewSpeechCommand(a.cfg.SpeechCommand, a.log)
	if err != nil {
		a.log.Warn("invalid speech command", "error", err)
		return feedback.Noop{}
	}
	return cmd
}
