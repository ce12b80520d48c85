// Package vision turns image bytes into a text caption using a
// vision-capable model.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"
)

var (
	ErrNotConfigured = errors.New("vision provider not configured")
	ErrImageTooLarge = errors.New("image exceeds size limit")
	ErrEmptyCaption  = errors.New("empty caption")
)

// Error carries a user-facing message while still matching one of the
// sentinel errors with errors.Is.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Image is a stored upload. Data is read lazily and at most once, so a
// chain of captioners that reject the image by size never touches the disk.
type Image struct {
	Name     string
	MimeType string
	Size     int64

	load func() ([]byte, error)
}

func NewImage(name, mimeType string, size int64, path string) *Image {
	return &Image{
		Name:     name,
		MimeType: mimeType,
		Size:     size,
		load:     sync.OnceValues(func() ([]byte, error) { return os.ReadFile(path) }),
	}
}

func NewImageFromBytes(name, mimeType string, data []byte) *Image {
	return &Image{
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(data)),
		load:     func() ([]byte, error) { return data, nil },
	}
}

func (i *Image) Data() ([]byte, error) {
	data, err := i.load()
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

func (i *Image) DataURL() (string, error) {
	data, err := i.Data()
	if err != nil {
		return "", err
	}
	mime := i.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Captioner is one strategy in the caption chain.
type Captioner interface {
	Name() string
	Caption(ctx context.Context, img *Image) (string, error)
}

// FormatKB renders a byte count in whole kilobytes.
func FormatKB(n int64) string {
	return fmt.Sprintf("%dKB", (n+512)/1024)
}
