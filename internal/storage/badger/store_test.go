package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskctx/internal/core"
)

func openInMemory(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openInMemory(t)

	snap := core.NewSnapshot("s1", time.Now().UTC())
	snap.Summary = "summary"
	snap.MessageCount = 4
	require.NoError(t, store.SaveSession(ctx, snap))

	got, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "summary", got.Summary)
	assert.Equal(t, 4, got.MessageCount)
}

func TestMemoryStore_MissingAndDelete(t *testing.T) {
	ctx := context.Background()
	store := openInMemory(t)

	got, err := store.LoadSession(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.DeleteSession(ctx, "ghost"))

	require.NoError(t, store.SaveSession(ctx, core.NewSnapshot("s1", time.Now())))
	require.NoError(t, store.DeleteSession(ctx, "s1"))
	got, err = store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_ListSessionIDs(t *testing.T) {
	ctx := context.Background()
	store := openInMemory(t)

	for _, id := range []string{"b", "a", "c/d"} {
		require.NoError(t, store.SaveSession(ctx, core.NewSnapshot(id, time.Now())))
	}

	ids, err := store.ListSessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c/d"}, ids)
}
