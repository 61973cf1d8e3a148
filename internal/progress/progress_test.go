package progress

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/verte-zerg/kanadrill/internal/logger"
	"github.com/verte-zerg/kanadrill/internal/model"
)

type memKV struct {
	mu      sync.Mutex
	data    map[string]string
	failSet bool
	writes  []string
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}}
}

func (m *memKV) GetValue(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) SetValue(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("disk full")
	}
	m.data[key] = value
	m.writes = append(m.writes, key)
	return nil
}

func (m *memKV) DeleteValue(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) KeysWithPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memKV) get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func newTracker(t *testing.T, kv KV) *Tracker {
	t.Helper()
	tr := New(kv, logger.NewNop())
	tr.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }
	t.Cleanup(tr.Close)
	return tr
}

var ka = model.Kana{Char: "か", Romaji: []string{"ka"}, Type: "basic"}
var shi = model.Kana{Char: "し", Romaji: []string{"shi", "si"}, Type: "basic"}

func TestRecordAttemptUpdatesCounters(t *testing.T) {
	kv := newMemKV()
	tr := newTracker(t, kv)

	tr.RecordAttempt(ka, "ka", true)
	tr.RecordAttempt(ka, "ga", false)
	tr.RecordAttempt(shi, "si", true)

	snap := tr.Snapshot()
	if snap.Stats.Attempts != 3 || snap.Stats.Correct != 2 {
		t.Fatalf("unexpected stats %+v", snap.Stats)
	}
	if snap.Streak != 1 {
		t.Fatalf("expected streak 1, got %d", snap.Streak)
	}
	if len(snap.History) != 3 || snap.History[1].Answer != "ga" || snap.History[2].Correct != "shi / si" {
		t.Fatalf("unexpected history %+v", snap.History)
	}
	rec := snap.Mistakes["か"]
	if rec.Count != 1 || rec.LastMistake == nil {
		t.Fatalf("unexpected mistake record %+v", rec)
	}
	if _, ok := snap.Mistakes["し"]; ok {
		t.Fatalf("correct answers must not create mistake records")
	}

	if err := tr.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if v, _ := kv.get(KeyStats); v != `{"attempts":3,"correct":2}` {
		t.Fatalf("unexpected stored stats %q", v)
	}
	if v, _ := kv.get(KeyStreak); v != "1" {
		t.Fatalf("unexpected stored streak %q", v)
	}
	if _, ok := kv.get(MistakePrefix + "か"); !ok {
		t.Fatalf("expected mistake key to be stored")
	}
}

func TestMistakesNeverDecrease(t *testing.T) {
	tr := newTracker(t, newMemKV())
	last := 0
	for i, correct := range []bool{false, true, true, false, true, false} {
		tr.RecordAttempt(ka, "x", correct)
		count := tr.Snapshot().Mistakes["か"].Count
		if count < last {
			t.Fatalf("mistake count decreased at attempt %d: %d -> %d", i, last, count)
		}
		last = count
	}
	if last != 3 {
		t.Fatalf("expected 3 mistakes, got %d", last)
	}
}

func TestWritesKeepSubmissionOrder(t *testing.T) {
	kv := newMemKV()
	tr := newTracker(t, kv)
	for i := 0; i < 50; i++ {
		tr.RecordAttempt(ka, "ka", i%2 == 0)
	}
	if err := tr.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if v, _ := kv.get(KeyStats); v != `{"attempts":50,"correct":25}` {
		t.Fatalf("expected last write to win, got %q", v)
	}
}

func TestWriteFailureKeepsMemory(t *testing.T) {
	kv := newMemKV()
	kv.failSet = true
	tr := newTracker(t, kv)
	tr.RecordAttempt(ka, "ka", true)
	if err := tr.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := tr.Snapshot().Stats.Attempts; got != 1 {
		t.Fatalf("expected in-memory attempt to survive write failure, got %d", got)
	}
}

func TestEncodeFailureSkipsWrite(t *testing.T) {
	kv := newMemKV()
	kv.data[KeyHistory] = `[{"char":"か"}]`
	tr := newTracker(t, kv)

	ops := tr.appendSet(nil, KeyHistory, make(chan int))
	if len(ops) != 0 {
		t.Fatalf("expected unencodable value to be skipped, got %+v", ops)
	}
	tr.enqueue(ops...)
	if err := tr.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if v, _ := kv.get(KeyHistory); v != `[{"char":"か"}]` {
		t.Fatalf("expected stored history untouched, got %q", v)
	}
	if len(kv.writes) != 0 {
		t.Fatalf("expected no writes, got %v", kv.writes)
	}
}

func TestLoadToleratesMalformedValues(t *testing.T) {
	kv := newMemKV()
	kv.data[KeyHistory] = "not json"
	kv.data[KeyStats] = `{"attempts":4,"correct":3}`
	kv.data[KeyStreak] = "2"
	kv.data[MistakePrefix+"あ"] = `{"count":2,"lastMistake":null}`
	kv.data[MistakePrefix+"い"] = `{broken`

	tr := newTracker(t, kv)
	tr.Load(context.Background())
	snap := tr.Snapshot()
	if len(snap.History) != 0 {
		t.Fatalf("expected malformed history to load as empty")
	}
	if snap.Stats.Attempts != 4 || snap.Streak != 2 {
		t.Fatalf("unexpected loaded state %+v", snap)
	}
	if snap.Mistakes["あ"].Count != 2 {
		t.Fatalf("expected mistake record for あ")
	}
	if _, ok := snap.Mistakes["い"]; ok {
		t.Fatalf("expected malformed mistake record to be skipped")
	}
}

func TestResetClearsExactly(t *testing.T) {
	kv := newMemKV()
	kv.data["kana:direction"] = `"romajiToChar"`
	kv.data[MistakePrefix+"ぬ"] = `{"count":5,"lastMistake":null}`
	tr := newTracker(t, kv)
	tr.Load(context.Background())
	tr.RecordAttempt(ka, "ga", false)

	if err := tr.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	snap := tr.Snapshot()
	if len(snap.History) != 0 || snap.Stats != (model.SessionStats{}) || snap.Streak != 0 || len(snap.Mistakes) != 0 {
		t.Fatalf("expected empty state, got %+v", snap)
	}
	keys, _ := kv.KeysWithPrefix(context.Background(), MistakePrefix)
	if len(keys) != 0 {
		t.Fatalf("expected mistake keys removed, got %v", keys)
	}
	if v, _ := kv.get(KeyHistory); v != "[]" {
		t.Fatalf("expected empty history stored, got %q", v)
	}
	if v, _ := kv.get("kana:direction"); v != `"romajiToChar"` {
		t.Fatalf("reset must not touch settings, got %q", v)
	}
}

func TestResetStreak(t *testing.T) {
	tr := newTracker(t, newMemKV())
	tr.RecordAttempt(ka, "ka", true)
	tr.RecordAttempt(ka, "ka", true)
	tr.ResetStreak()
	if got := tr.Snapshot().Streak; got != 0 {
		t.Fatalf("expected streak reset, got %d", got)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := newTracker(t, newMemKV())
	tr.RecordAttempt(ka, "ga", false)
	snap := tr.Snapshot()
	snap.History[0].Char = "x"
	snap.Mistakes["か"] = model.MistakeRecord{}
	again := tr.Snapshot()
	if again.History[0].Char != "か" || again.Mistakes["か"].Count != 1 {
		t.Fatalf("snapshot shares state with tracker")
	}
}
