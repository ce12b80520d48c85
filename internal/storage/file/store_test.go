package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskctx/internal/core"
)

func newSnapshot(id string) *core.Snapshot {
	s := core.NewSnapshot(id, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	s.History = append(s.History,
		core.Message{Role: core.RoleUser, Content: "我叫小明，住在杭州"},
		core.Message{Role: core.RoleAssistant, Content: "好的，记住了"},
	)
	s.Facts = append(s.Facts, core.Fact{ID: "f1", Text: "我叫小明，住在杭州", Embedding: []float32{0.1, 0.2}})
	s.Summary = "用户小明住在杭州"
	s.MessageCount = 2
	return s
}

func TestMemoryStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "memory")
	store := NewMemoryStore(dir)

	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err), "directory must be created lazily")

	want := newSnapshot("s1")
	require.NoError(t, store.SaveSession(ctx, want))

	got, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.History[0].Content, got.History[0].Content)
	assert.Equal(t, want.Facts, got.Facts)
	assert.Equal(t, want.Summary, got.Summary)
	assert.Equal(t, 2, got.MessageCount)

	_, err = os.Stat(filepath.Join(dir, "s1.json"))
	assert.NoError(t, err)
}

func TestMemoryStore_LoadMissingIsAbsent(t *testing.T) {
	store := NewMemoryStore(t.TempDir())

	got, err := store.LoadSession(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_LoadCorruptIsAbsent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"id": "broken", "hist`), 0o644))

	got, err := NewMemoryStore(dir).LoadSession(context.Background(), "broken")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_InterruptedSaveKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewMemoryStore(dir)

	prev := newSnapshot("s1")
	require.NoError(t, store.SaveSession(ctx, prev))

	// A crash after the temp write but before rename leaves a half-written
	// temp file next to the real one.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s1.json.123456.tmp"), []byte(`{"id":"s1","messageCou`), 0o644))

	got, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, prev.MessageCount, got.MessageCount)

	ids, err := store.ListSessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestMemoryStore_InterruptedFirstSaveIsAbsent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fresh.json.987.tmp"), []byte(`{"id":`), 0o644))

	got, err := NewMemoryStore(dir).LoadSession(context.Background(), "fresh")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_SaveLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewMemoryStore(dir)

	for i := 0; i < 5; i++ {
		s := newSnapshot("s1")
		s.MessageCount = i * 2
		require.NoError(t, store.SaveSession(ctx, s))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1.json", entries[0].Name())
}

func TestMemoryStore_DeleteSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(t.TempDir())

	require.NoError(t, store.SaveSession(ctx, newSnapshot("s1")))
	require.NoError(t, store.DeleteSession(ctx, "s1"))
	require.NoError(t, store.DeleteSession(ctx, "s1"), "deleting a missing session is a no-op")

	got, err := store.LoadSession(ctx, "s1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_ListSessionIDs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewMemoryStore(dir)

	ids, err := NewMemoryStore(filepath.Join(dir, "missing")).ListSessionIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"b", "a", "user/../42"} {
		require.NoError(t, store.SaveSession(ctx, newSnapshot(id)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	ids, err = store.ListSessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "user/../42"}, ids)
}

func TestMemoryStore_EscapesPathSeparators(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "memory")
	store := NewMemoryStore(dir)

	require.NoError(t, store.SaveSession(ctx, newSnapshot("../escape")))

	_, err := os.Stat(filepath.Join(root, "escape.json"))
	assert.True(t, os.IsNotExist(err))

	got, err := store.LoadSession(ctx, "../escape")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "../escape", got.ID)
}

func TestMemoryStore_RejectsEmptyID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(t.TempDir())

	_, err := store.LoadSession(ctx, "")
	assert.ErrorIs(t, err, core.ErrSessionIDRequired)
	assert.ErrorIs(t, store.SaveSession(ctx, &core.Snapshot{}), core.ErrSessionIDRequired)
}
