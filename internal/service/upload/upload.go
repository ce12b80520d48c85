// Package upload copies local files into the upload directory and records
// them in the registry so they can be attached by id.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/log"
)

type Store struct {
	dir  string
	repo core.UploadRepository
	now  func() time.Time
}

func NewStore(dir string, repo core.UploadRepository) *Store {
	return &Store{dir: dir, repo: repo, now: time.Now}
}

// Add copies the file at path into the upload directory under a fresh
// uuid-based name and registers it. An empty mimeType is detected.
func (s *Store) Add(ctx context.Context, path, mimeType string) (core.UploadRecord, error) {
	src, err := os.Open(path)
	if err != nil {
		return core.UploadRecord{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return core.UploadRecord{}, fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		return core.UploadRecord{}, fmt.Errorf("%s is a directory", path)
	}

	if mimeType == "" {
		if mimeType, err = detectMime(src, path); err != nil {
			return core.UploadRecord{}, err
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return core.UploadRecord{}, fmt.Errorf("create upload dir: %w", err)
	}

	id := uuid.NewString()
	storedName := id + strings.ToLower(filepath.Ext(path))
	storedPath := filepath.Join(s.dir, storedName)

	size, err := copyFile(storedPath, src)
	if err != nil {
		return core.UploadRecord{}, err
	}

	rec := core.UploadRecord{
		FileID:       id,
		OriginalName: filepath.Base(path),
		StoredName:   storedName,
		StoredPath:   storedPath,
		MimeType:     mimeType,
		Size:         size,
		UploadedAt:   s.now(),
	}
	if err := s.repo.AddUpload(ctx, rec); err != nil {
		_ = os.Remove(storedPath)
		return core.UploadRecord{}, fmt.Errorf("register upload: %w", err)
	}

	log.FromCtx(ctx).Debug().Str("file_id", id).Str("path", storedPath).Msg("upload stored")
	return rec, nil
}

// Remove deletes the record and its stored file. A file already gone is not
// an error.
func (s *Store) Remove(ctx context.Context, fileID string) error {
	rec, err := s.repo.GetUploadRecord(ctx, fileID)
	if err != nil {
		return fmt.Errorf("lookup upload: %w", err)
	}
	if err := s.repo.DeleteUpload(ctx, fileID); err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	if rec.StoredPath != "" {
		if err := os.Remove(rec.StoredPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.FromCtx(ctx).Warn().Err(err).Str("file_id", fileID).Msg("failed to remove stored file")
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context, limit int) ([]core.UploadRecord, error) {
	return s.repo.ListUploads(ctx, limit)
}

// detectMime trusts the extension first and sniffs the content otherwise.
// The reader is rewound afterwards.
func detectMime(f *os.File, path string) (string, error) {
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); mt != "" {
		return baseType(mt), nil
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	if n == 0 {
		return "application/octet-stream", nil
	}
	return baseType(http.DetectContentType(head[:n])), nil
}

func baseType(mt string) string {
	if base, _, err := mime.ParseMediaType(mt); err == nil {
		return base
	}
	return mt
}

func copyFile(dst string, src io.Reader) (int64, error) {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create stored file: %w", err)
	}
	n, err := io.Copy(out, src)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return 0, fmt.Errorf("copy upload: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("close stored file: %w", err)
	}
	return n, nil
}
