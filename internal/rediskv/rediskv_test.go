package rediskv

import (
	"context"
	"os"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("KANADRILL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KANADRILL_TEST_REDIS_ADDR not set")
	}
	ns := "kanadrill-test:" + uuid.NewString() + ":"
	st, err := Open(context.Background(), addr, ns)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := st.KeysWithPrefix(ctx, "")
		for _, k := range keys {
			_ = st.DeleteValue(ctx, k)
		}
		_ = st.Close()
	})
	return st
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `mistake:\*\?\[a\]`, escapeGlob("mistake:*?[a]"))
}

func TestKeyValueRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, ok, err := st.GetValue(ctx, "kana:streak")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.SetValue(ctx, "kana:currentStreak", "3"))
	v, ok, err := st.GetValue(ctx, "kana:currentStreak")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	require.NoError(t, st.DeleteValue(ctx, "kana:currentStreak"))
	_, ok, err = st.GetValue(ctx, "kana:currentStreak")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeysWithPrefix(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for _, k := range []string{"mistake:あ", "mistake:*", "kana:sessionStats"} {
		require.NoError(t, st.SetValue(ctx, k, "{}"))
	}

	keys, err := st.KeysWithPrefix(ctx, "mistake:")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"mistake:*", "mistake:あ"}, keys)

	keys, err = st.KeysWithPrefix(ctx, "mistake:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"mistake:*"}, keys)
}
