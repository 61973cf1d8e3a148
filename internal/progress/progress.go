// Package progress tracks answer history, counters, streak and per-character
// mistakes, persisting them through a key-value store.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/verte-zerg/kanadrill/internal/logger"
	"github.com/verte-zerg/kanadrill/internal/model"
)

// Storage keys.
const (
	KeyHistory    = "kana:sessionHistory"
	KeyStats      = "kana:sessionStats"
	KeyStreak     = "kana:currentStreak"
	MistakePrefix = "mistake:"

	answerSeparator = " / "
)

// KV is the key-value store the tracker persists to.
type KV interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
	DeleteValue(ctx context.Context, key string) error
	KeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// Snapshot is a copy of the tracked state.
type Snapshot struct {
	History  []model.HistoryItem
	Stats    model.SessionStats
	Streak   int
	Mistakes map[string]model.MistakeRecord
}

type writeOp struct {
	key    string
	value  string
	delete bool
	// done is closed once every earlier op has been applied.
	done chan struct{}
}

// Tracker owns the in-memory progress state. State changes happen under one
// lock; persistence runs on a single background writer in submission order.
type Tracker struct {
	kv  KV
	log *logger.Logger
	now func() time.Time

	mu       sync.Mutex
	history  []model.HistoryItem
	stats    model.SessionStats
	streak   int
	mistakes map[string]model.MistakeRecord

	qmu     sync.Mutex
	queue   []writeOp
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
}

// New starts a tracker with empty state. Call Load to read persisted data.
func New(kv KV, log *logger.Logger) *Tracker {
	t := &Tracker{
		kv:       kv,
		log:      log.With("component", "progress"),
		now:      time.Now,
		mistakes: map[string]model.MistakeRecord{},
		wake:     make(chan struct{}, 1),
		stopped:  make(chan struct{}),
	}
	go t.writer()
	return t
}

// Load replaces the in-memory state with persisted values. Unreadable or
// malformed entries are logged and treated as empty.
func (t *Tracker) Load(ctx context.Context) {
	var (
		history []model.HistoryItem
		stats   model.SessionStats
		streak  int
	)
	t.readJSON(ctx, KeyHistory, &history)
	t.readJSON(ctx, KeyStats, &stats)
	t.readJSON(ctx, KeyStreak, &streak)

	mistakes := map[string]model.MistakeRecord{}
	keys, err := t.kv.KeysWithPrefix(ctx, MistakePrefix)
	if err != nil {
		t.log.Warn("failed to list mistake keys", "error", err)
	}
	for _, key := range keys {
		var rec model.MistakeRecord
		if t.readJSON(ctx, key, &rec) {
			mistakes[strings.TrimPrefix(key, MistakePrefix)] = rec
		}
	}

	t.mu.Lock()
	t.history = history
	t.stats = stats
	t.streak = streak
	t.mistakes = mistakes
	t.mu.Unlock()
}

func (t *Tracker) readJSON(ctx context.Context, key string, dst any) bool {
	raw, ok, err := t.kv.GetValue(ctx, key)
	if err != nil {
		t.log.Warn("failed to read key", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		t.log.Warn("malformed value, using default", "key", key, "error", err)
		return false
	}
	return true
}

// RecordAttempt logs one answer. Counters, history, streak and the mistake
// record change together; persistence is queued and not awaited.
func (t *Tracker) RecordAttempt(ch model.Drillable, attempt string, isCorrect bool) {
	now := t.now()
	glyph := ch.Glyph()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history, model.HistoryItem{
		Char:      glyph,
		IsCorrect: isCorrect,
		Answer:    attempt,
		Correct:   strings.Join(ch.Answers(), answerSeparator),
		Timestamp: now,
	})
	t.stats.Attempts++
	if isCorrect {
		t.stats.Correct++
		t.streak++
	} else {
		t.streak = 0
	}

	ops := t.appendSet(nil, KeyHistory, t.history)
	ops = t.appendSet(ops, KeyStats, t.stats)
	ops = t.appendSet(ops, KeyStreak, t.streak)
	if !isCorrect {
		rec := t.mistakes[glyph]
		rec.Count++
		stamp := now
		rec.LastMistake = &stamp
		t.mistakes[glyph] = rec
		ops = t.appendSet(ops, MistakePrefix+glyph, rec)
	}
	t.enqueue(ops...)
}

// ResetStreak zeroes the current streak.
func (t *Tracker) ResetStreak() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.streak = 0
	t.enqueue(t.appendSet(nil, KeyStreak, 0)...)
}

// Reset clears history, counters, streak and every mistake record, then
// waits for the stored copies to be removed.
func (t *Tracker) Reset(ctx context.Context) error {
	keys, err := t.kv.KeysWithPrefix(ctx, MistakePrefix)
	if err != nil {
		t.log.Warn("failed to list mistake keys", "error", err)
	}

	t.mu.Lock()
	seen := map[string]struct{}{}
	var ops []writeOp
	for _, key := range keys {
		seen[key] = struct{}{}
		ops = append(ops, writeOp{key: key, delete: true})
	}
	for glyph := range t.mistakes {
		key := MistakePrefix + glyph
		if _, ok := seen[key]; !ok {
			ops = append(ops, writeOp{key: key, delete: true})
		}
	}
	t.history = nil
	t.stats = model.SessionStats{}
	t.streak = 0
	t.mistakes = map[string]model.MistakeRecord{}
	ops = t.appendSet(ops, KeyHistory, []model.HistoryItem{})
	ops = t.appendSet(ops, KeyStats, t.stats)
	ops = t.appendSet(ops, KeyStreak, 0)
	t.enqueue(ops...)
	t.mu.Unlock()

	if err := t.Flush(ctx); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	mistakes := make(map[string]model.MistakeRecord, len(t.mistakes))
	for k, v := range t.mistakes {
		mistakes[k] = v
	}
	return Snapshot{
		History:  append([]model.HistoryItem(nil), t.history...),
		Stats:    t.stats,
		Streak:   t.streak,
		Mistakes: mistakes,
	}
}

// appendSet queues a JSON write of v. A value that fails to encode is logged
// and skipped so the stored copy stays intact.
func (t *Tracker) appendSet(ops []writeOp, key string, v any) []writeOp {
	data, err := json.Marshal(v)
	if err != nil {
		t.log.Error("failed to encode value, write skipped", "key", key, "error", err)
		return ops
	}
	return append(ops, writeOp{key: key, value: string(data)})
}

func (t *Tracker) enqueue(ops ...writeOp) {
	t.qmu.Lock()
	if t.closed {
		t.qmu.Unlock()
		t.log.Warn("progress write after close dropped", "ops", len(ops))
		return
	}
	t.queue = append(t.queue, ops...)
	t.qmu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every write queued so far has been applied.
func (t *Tracker) Flush(ctx context.Context) error {
	done := make(chan struct{})
	t.qmu.Lock()
	if t.closed {
		t.qmu.Unlock()
		return nil
	}
	t.queue = append(t.queue, writeOp{done: done})
	t.qmu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending writes and stops the writer.
func (t *Tracker) Close() {
	t.qmu.Lock()
	if t.closed {
		t.qmu.Unlock()
		<-t.stopped
		return
	}
	t.closed = true
	t.qmu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
	<-t.stopped
}

func (t *Tracker) writer() {
	defer close(t.stopped)
	for range t.wake {
		t.qmu.Lock()
		batch := t.queue
		t.queue = nil
		closed := t.closed
		t.qmu.Unlock()

		for _, op := range batch {
			t.apply(op)
		}
		if closed {
			t.qmu.Lock()
			rest := t.queue
			t.queue = nil
			t.qmu.Unlock()
			for _, op := range rest {
				t.apply(op)
			}
			return
		}
	}
}

func (t *Tracker) apply(op writeOp) {
	if op.done != nil {
		close(op.done)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var err error
	if op.delete {
		err = t.kv.DeleteValue(ctx, op.key)
	} else {
		err = t.kv.SetValue(ctx, op.key, op.value)
	}
	if err != nil {
		t.log.Error("failed to persist progress", "key", op.key, "error", err)
	}
}
