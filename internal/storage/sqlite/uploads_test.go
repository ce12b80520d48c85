package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskctx/internal/core"
)

func newTestRepo(t *testing.T) *UploadsRepo {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "db", "uploads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUploadsRepo(db)
}

func TestUploadsRepo_AddAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	uploadedAt := time.UnixMilli(1_700_000_000_123)
	rec := core.UploadRecord{
		FileID:       NewFileID(),
		OriginalName: "报告.pdf",
		StoredName:   "abc.pdf",
		StoredPath:   "/data/uploads/abc.pdf",
		MimeType:     "application/pdf",
		Size:         2048,
		UploadedAt:   uploadedAt,
	}
	require.NoError(t, repo.AddUpload(ctx, rec))

	got, err := repo.GetUploadRecord(ctx, rec.FileID)
	require.NoError(t, err)
	assert.Equal(t, rec.OriginalName, got.OriginalName)
	assert.Equal(t, rec.StoredPath, got.StoredPath)
	assert.Equal(t, int64(2048), got.Size)
	assert.True(t, uploadedAt.Equal(got.UploadedAt))
}

func TestUploadsRepo_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetUploadRecord(context.Background(), "ghost")
	assert.ErrorIs(t, err, core.ErrUploadNotFound)
}

func TestUploadsRepo_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	base := time.Now()
	for i, name := range []string{"old.txt", "new.txt"} {
		require.NoError(t, repo.AddUpload(ctx, core.UploadRecord{
			FileID:       name,
			OriginalName: name,
			StoredName:   name,
			StoredPath:   "/tmp/" + name,
			UploadedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := repo.ListUploads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new.txt", list[0].FileID)

	require.NoError(t, repo.DeleteUpload(ctx, "new.txt"))
	list, err = repo.ListUploads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "old.txt", list[0].FileID)
}

func TestUploadsRepo_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	rec := core.UploadRecord{FileID: "f1", OriginalName: "a.txt", StoredName: "a", StoredPath: "/a"}
	require.NoError(t, repo.AddUpload(ctx, rec))
	rec.OriginalName = "b.txt"
	require.NoError(t, repo.AddUpload(ctx, rec))

	got, err := repo.GetUploadRecord(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "b.txt", got.OriginalName)
}
