package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/internal/storage/sqlite"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	db, err := sqlite.NewDB(context.Background(), filepath.Join(root, "uploads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dir := filepath.Join(root, "uploads")
	return NewStore(dir, sqlite.NewUploadsRepo(db)), dir
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestStore_AddAndRemove(t *testing.T) {
	ctx := context.Background()
	s, dir := newTestStore(t)

	src := writeFile(t, "Notes.TXT", []byte("hello upload"))
	rec, err := s.Add(ctx, src, "")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.FileID)
	assert.Equal(t, "Notes.TXT", rec.OriginalName)
	assert.Equal(t, rec.FileID+".txt", rec.StoredName)
	assert.Equal(t, filepath.Join(dir, rec.StoredName), rec.StoredPath)
	assert.Equal(t, "text/plain", rec.MimeType)
	assert.Equal(t, int64(12), rec.Size)

	data, err := os.ReadFile(rec.StoredPath)
	require.NoError(t, err)
	assert.Equal(t, "hello upload", string(data))

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.FileID, list[0].FileID)

	require.NoError(t, s.Remove(ctx, rec.FileID))
	_, err = os.Stat(rec.StoredPath)
	assert.True(t, os.IsNotExist(err))

	err = s.Remove(ctx, rec.FileID)
	assert.ErrorIs(t, err, core.ErrUploadNotFound)
}

func TestStore_DetectsMimeFromContent(t *testing.T) {
	s, _ := newTestStore(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	rec, err := s.Add(context.Background(), writeFile(t, "image", png), "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", rec.MimeType)

	stored, err := os.ReadFile(rec.StoredPath)
	require.NoError(t, err)
	assert.Equal(t, png, stored)
}

func TestStore_ExplicitMime(t *testing.T) {
	s, _ := newTestStore(t)
	rec, err := s.Add(context.Background(), writeFile(t, "x.bin", []byte{1, 2, 3}), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", rec.MimeType)
}

func TestStore_Errors(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Add(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), "")
	assert.Error(t, err)

	_, err = s.Add(context.Background(), t.TempDir(), "")
	assert.Error(t, err)
}
