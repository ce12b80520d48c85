package core

import "context"

// AttachmentRef is caller-supplied and untrusted; only FileID is required.
type AttachmentRef struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

type DocumentInsight struct {
	Excerpt   string            `json:"excerpt"`
	WordCount int               `json:"wordCount"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type AttachmentAnalysis struct {
	FileID       string           `json:"fileId"`
	OriginalName string           `json:"originalName"`
	MimeType     string           `json:"mimeType"`
	Size         int64            `json:"size"`
	Kind         string           `json:"kind"`
	Summary      string           `json:"summary"`
	Caption      string           `json:"caption,omitempty"`
	Width        int              `json:"width,omitempty"`
	Height       int              `json:"height,omitempty"`
	Document     *DocumentInsight `json:"document,omitempty"`
	Warnings     []string         `json:"warnings"`
	Provider     string           `json:"provider,omitempty"`
	PreviewURL   string           `json:"previewUrl,omitempty"`
	DownloadURL  string           `json:"downloadUrl,omitempty"`
}

const (
	AttachmentKindImage    = "image"
	AttachmentKindDocument = "document"
	AttachmentKindOther    = "other"
)

type AttachmentContext struct {
	ContextText string               `json:"contextText"`
	Analyses    []AttachmentAnalysis `json:"analyses"`
	Notes       []string             `json:"notes"`
}

type ImageInsight struct {
	Caption  string
	Width    int
	Height   int
	Provider string
	Warnings []string
}

type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, rec UploadRecord) ImageInsight
}

type ParsedDocument struct {
	Text      string
	Excerpt   string
	WordCount int
	Warnings  []string
	Metadata  map[string]string
}

type DocumentParser interface {
	IsSupported(mimeType, fileName string) bool
	Parse(ctx context.Context, rec UploadRecord) (ParsedDocument, error)
}
