package attachment

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/internal/providers/vision"
	"github.com/sandevgo/tuskctx/pkg/conv"
	"github.com/sandevgo/tuskctx/pkg/log"
)

const (
	metadataNotice = "由于未启用图像识别接口，仅提供基础信息。"
	readFailed     = "读取图片内容失败，无法提供描述。"
)

// ImageAnalyzer tries each captioner in order and stops at the first
// caption. When all of them fail the caption is built from metadata.
type ImageAnalyzer struct {
	captioners []vision.Captioner
	timeout    time.Duration
}

var _ core.ImageAnalyzer = (*ImageAnalyzer)(nil)

func NewImageAnalyzer(timeout time.Duration, captioners ...vision.Captioner) *ImageAnalyzer {
	return &ImageAnalyzer{captioners: captioners, timeout: timeout}
}

func (a *ImageAnalyzer) AnalyzeImage(ctx context.Context, rec core.UploadRecord) core.ImageInsight {
	logger := log.FromCtx(ctx).With().Str("file_id", rec.FileID).Logger()
	mimeType := resolveMimeType(rec)

	var w warnings
	insight := core.ImageInsight{}

	info, err := os.Stat(rec.StoredPath)
	if err != nil {
		w.add("读取图片失败：" + err.Error())
		insight.Caption = readFailed
		insight.Warnings = w.list()
		logger.Warn().Err(err).Msg("image unreadable")
		return insight
	}
	size := rec.Size
	if size <= 0 {
		size = info.Size()
	}

	insight.Width, insight.Height = dimensions(rec.StoredPath)

	img := vision.NewImage(displayName(rec), mimeType, size, rec.StoredPath)

	var unconfigured []string
	for _, c := range a.captioners {
		caption, err := a.caption(ctx, c, img)
		if err == nil {
			insight.Caption = caption
			insight.Provider = c.Name()
			insight.Warnings = w.list()
			return insight
		}

		if errors.Is(err, vision.ErrNotConfigured) {
			unconfigured = append(unconfigured, err.Error())
			continue
		}
		logger.Warn().Err(err).Str("provider", c.Name()).Msg("image caption failed, trying next")
		w.add(captionFailure(c.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}

	for _, msg := range unconfigured {
		w.add(msg)
	}
	insight.Caption = metadataCaption(rec, mimeType, size, insight.Width, insight.Height)
	insight.Warnings = w.list()
	return insight
}

func (a *ImageAnalyzer) caption(ctx context.Context, c vision.Captioner, img *vision.Image) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return c.Caption(ctx, img)
}

func captionFailure(provider string, err error) string {
	var ve *vision.Error
	if errors.As(err, &ve) {
		return ve.Msg
	}
	return fmt.Sprintf("调用 %s 图像识别接口失败：%v", provider, err)
}

// dimensions decodes only the image header. Unknown formats yield zeros.
func dimensions(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func metadataCaption(rec core.UploadRecord, mimeType string, size int64, width, height int) string {
	if mimeType == "" {
		mimeType = "未知类型"
	}
	parts := []string{
		"文件名：" + displayName(rec),
		"类型：" + mimeType,
		"大小：" + conv.FormatBytes(size),
	}
	if width > 0 && height > 0 {
		parts = append(parts, fmt.Sprintf("尺寸：%d×%d", width, height))
	}
	parts = append(parts, metadataNotice)
	return strings.Join(parts, "；")
}

// warnings keeps insertion order and drops repeats.
type warnings struct {
	seen  map[string]struct{}
	items []string
}

func (w *warnings) add(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	if w.seen == nil {
		w.seen = make(map[string]struct{})
	}
	if _, ok := w.seen[msg]; ok {
		return
	}
	w.seen[msg] = struct{}{}
	w.items = append(w.items, msg)
}

func (w *warnings) list() []string {
	if w.items == nil {
		return []string{}
	}
	return w.items
}
