package pgstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/kanadrill/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("KANADRILL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("KANADRILL_TEST_POSTGRES_DSN not set")
	}
	st, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestLibraryLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	setID := uuid.NewString()
	otherID := uuid.NewString()
	require.NoError(t, st.InsertSet(ctx, model.StudySet{ID: setID, Name: "N5"}))
	require.NoError(t, st.InsertSet(ctx, model.StudySet{ID: otherID, Name: "N4"}))
	t.Cleanup(func() {
		_ = st.DeleteSet(context.Background(), otherID)
	})

	ok, err := st.SetExists(ctx, setID)
	require.NoError(t, err)
	assert.True(t, ok)

	water := model.LibraryKanji{ID: uuid.NewString(), Char: "水", Reading: "みず", Romaji: []string{"mizu", "sui"}, Meaning: "water", SetID: setID}
	fire := model.LibraryKanji{ID: uuid.NewString(), Char: "火", Reading: "ひ", Romaji: []string{"hi"}, Meaning: "fire", SetID: setID}
	require.NoError(t, st.InsertKanji(ctx, water))
	require.NoError(t, st.InsertKanji(ctx, fire))

	list, err := st.ListKanji(ctx, setID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{"mizu", "sui"}, list[0].Romaji)

	updated, err := st.UpdateKanji(ctx, fire.ID, model.KanjiUpdate{SetID: &otherID})
	require.NoError(t, err)
	assert.Equal(t, otherID, updated.SetID)
	assert.Equal(t, "火", updated.Char)

	_, err = st.UpdateKanji(ctx, uuid.NewString(), model.KanjiUpdate{SetID: &otherID})
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, st.DeleteSet(ctx, setID))
	_, err = st.GetKanji(ctx, water.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, st.DeleteSet(ctx, setID), model.ErrNotFound)

	require.NoError(t, st.DeleteKanji(ctx, fire.ID))
	assert.ErrorIs(t, st.DeleteKanji(ctx, fire.ID), model.ErrNotFound)
}
