package core

import (
	"context"
	"errors"
	"time"
)

var ErrUploadNotFound = errors.New("upload not found")

type UploadRecord struct {
	FileID       string    `json:"fileId"`
	OriginalName string    `json:"originalName"`
	StoredName   string    `json:"storedName"`
	StoredPath   string    `json:"storedPath"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// UploadRegistry looks up upload records. GetUploadRecord returns
// ErrUploadNotFound when the id is unknown.
type UploadRegistry interface {
	GetUploadRecord(ctx context.Context, fileID string) (*UploadRecord, error)
}

type UploadRepository interface {
	UploadRegistry
	AddUpload(ctx context.Context, rec UploadRecord) error
	ListUploads(ctx context.Context, limit int) ([]UploadRecord, error)
	DeleteUpload(ctx context.Context, fileID string) error
}
