package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/tuskctx/internal/core"
)

type UploadsRepo struct {
	db *sql.DB
}

var _ core.UploadRepository = (*UploadsRepo)(nil)

func NewUploadsRepo(db *sql.DB) *UploadsRepo {
	return &UploadsRepo{db: db}
}

// NewFileID returns a fresh upload id.
func NewFileID() string {
	return uuid.NewString()
}

func (r *UploadsRepo) AddUpload(ctx context.Context, rec core.UploadRecord) error {
	if rec.FileID == "" {
		return errors.New("upload file id is required")
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now()
	}

	query := `INSERT INTO uploads (file_id, original_name, stored_name, stored_path, mime_type, size, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			original_name = excluded.original_name,
			stored_name = excluded.stored_name,
			stored_path = excluded.stored_path,
			mime_type = excluded.mime_type,
			size = excluded.size,
			uploaded_at = excluded.uploaded_at`
	_, err := r.db.ExecContext(ctx, query,
		rec.FileID, rec.OriginalName, rec.StoredName, rec.StoredPath, rec.MimeType, rec.Size, rec.UploadedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

func (r *UploadsRepo) GetUploadRecord(ctx context.Context, fileID string) (*core.UploadRecord, error) {
	query := `SELECT file_id, original_name, stored_name, stored_path, mime_type, size, uploaded_at
		FROM uploads WHERE file_id = ?`

	rec, err := scanUpload(r.db.QueryRowContext(ctx, query, fileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to query upload: %w", err)
	}
	return rec, nil
}

func (r *UploadsRepo) ListUploads(ctx context.Context, limit int) ([]core.UploadRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT file_id, original_name, stored_name, stored_path, mime_type, size, uploaded_at
		FROM uploads ORDER BY uploaded_at DESC, file_id LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	var records []core.UploadRecord
	for rows.Next() {
		rec, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *UploadsRepo) DeleteUpload(ctx context.Context, fileID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM uploads WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (*core.UploadRecord, error) {
	var rec core.UploadRecord
	var uploadedAt int64
	if err := row.Scan(&rec.FileID, &rec.OriginalName, &rec.StoredName, &rec.StoredPath, &rec.MimeType, &rec.Size, &uploadedAt); err != nil {
		return nil, err
	}
	rec.UploadedAt = time.UnixMilli(uploadedAt)
	return &rec, nil
}
