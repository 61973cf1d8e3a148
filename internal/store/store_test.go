package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/kanadrill/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "kanadrill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestKeyValueRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := st.GetValue(ctx, "kana:direction"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := st.SetValue(ctx, "kana:direction", `"charToRomaji"`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.SetValue(ctx, "kana:direction", `"romajiToChar"`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := st.GetValue(ctx, "kana:direction")
	if err != nil || !ok || v != `"romajiToChar"` {
		t.Fatalf("unexpected value %q ok=%v err=%v", v, ok, err)
	}
	if err := st.DeleteValue(ctx, "kana:direction"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeleteValue(ctx, "kana:direction"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if _, ok, _ := st.GetValue(ctx, "kana:direction"); ok {
		t.Fatalf("expected key to be deleted")
	}
}

func TestKeysWithPrefixEscapesWildcards(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"mistake:あ", "mistake:か", "mistakeXか", "kana:sessionStats", "mistake_:x"} {
		if err := st.SetValue(ctx, key, "{}"); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}
	keys, err := st.KeysWithPrefix(ctx, "mistake:")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "mistake:あ" || keys[1] != "mistake:か" {
		t.Fatalf("unexpected keys %v", keys)
	}
	keys, err = st.KeysWithPrefix(ctx, "mistake_")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "mistake_:x" {
		t.Fatalf("expected underscore to be literal, got %v", keys)
	}
}

func TestLibraryLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for _, set := range []model.StudySet{{ID: "s1", Name: "N5"}, {ID: "s2", Name: "N4"}} {
		if err := st.InsertSet(ctx, set); err != nil {
			t.Fatalf("insert set: %v", err)
		}
	}
	sets, err := st.ListSets(ctx)
	if err != nil {
		t.Fatalf("list sets: %v", err)
	}
	if len(sets) != 2 || sets[0].Name != "N5" || sets[1].Name != "N4" {
		t.Fatalf("unexpected sets %+v", sets)
	}

	water := model.LibraryKanji{ID: "k1", Char: "水", Reading: "みず", Romaji: []string{"mizu", "sui"}, Meaning: "water", SetID: "s1"}
	fire := model.LibraryKanji{ID: "k2", Char: "火", Reading: "ひ", Romaji: []string{"hi"}, Meaning: "fire", SetID: "s1"}
	for _, k := range []model.LibraryKanji{water, fire} {
		if err := st.InsertKanji(ctx, k); err != nil {
			t.Fatalf("insert kanji: %v", err)
		}
	}
	list, err := st.ListKanji(ctx, "s1")
	if err != nil {
		t.Fatalf("list kanji: %v", err)
	}
	if len(list) != 2 || list[0].Char != "水" || len(list[0].Romaji) != 2 {
		t.Fatalf("unexpected kanji %+v", list)
	}

	target := "s2"
	meaning := "flame"
	updated, err := st.UpdateKanji(ctx, "k2", model.KanjiUpdate{SetID: &target, Meaning: &meaning})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.SetID != "s2" || updated.Meaning != "flame" || updated.Char != "火" {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if _, err := st.UpdateKanji(ctx, "missing", model.KanjiUpdate{Meaning: &meaning}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := st.DeleteSet(ctx, "s1"); err != nil {
		t.Fatalf("delete set: %v", err)
	}
	if _, err := st.GetKanji(ctx, "k1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected cascade delete of k1, got %v", err)
	}
	if _, err := st.GetKanji(ctx, "k2"); err != nil {
		t.Fatalf("expected moved kanji to survive: %v", err)
	}
	if err := st.DeleteSet(ctx, "s1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if err := st.DeleteKanji(ctx, "k2"); err != nil {
		t.Fatalf("delete kanji: %v", err)
	}
	if err := st.DeleteKanji(ctx, "k2"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
