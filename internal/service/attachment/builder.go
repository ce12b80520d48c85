// Package attachment resolves uploaded files referenced by a chat message
// and renders them as a prompt section.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/conv"
	"github.com/sandevgo/tuskctx/pkg/log"
)

type Builder struct {
	registry     core.UploadRegistry
	images       core.ImageAnalyzer
	documents    core.DocumentParser
	publicPrefix string
	concurrency  int
}

type BuilderOptions struct {
	PublicPrefix string
	Concurrency  int
}

func NewBuilder(registry core.UploadRegistry, images core.ImageAnalyzer, documents core.DocumentParser, opts BuilderOptions) *Builder {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PublicPrefix == "" {
		opts.PublicPrefix = "/uploads/"
	}
	return &Builder{
		registry:     registry,
		images:       images,
		documents:    documents,
		publicPrefix: opts.PublicPrefix,
		concurrency:  opts.Concurrency,
	}
}

// entry is one position in the output: either a note or a resolved record.
type entry struct {
	note string
	rec  *core.UploadRecord
	res  result
}

type result struct {
	block    string
	analysis core.AttachmentAnalysis
	note     string
}

// Build never fails. Refs that cannot be used become notes; the rest are
// analysed concurrently and rendered as numbered blocks in input order.
func (b *Builder) Build(ctx context.Context, refs []core.AttachmentRef) core.AttachmentContext {
	out := core.AttachmentContext{
		Analyses: []core.AttachmentAnalysis{},
		Notes:    []string{},
	}
	if len(refs) == 0 {
		return out
	}

	entries := b.resolve(ctx, refs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	number := 0
	for i := range entries {
		if entries[i].rec == nil {
			continue
		}
		number++
		e, n := &entries[i], number
		g.Go(func() error {
			e.res = b.analyze(gctx, n, *e.rec)
			return nil
		})
	}
	_ = g.Wait()

	blocks := make([]string, 0, number)
	for _, e := range entries {
		if e.rec == nil {
			out.Notes = append(out.Notes, e.note)
			continue
		}
		if e.res.note != "" {
			out.Notes = append(out.Notes, e.res.note)
		}
		blocks = append(blocks, e.res.block)
		out.Analyses = append(out.Analyses, e.res.analysis)
	}
	out.ContextText = strings.Join(blocks, "\n\n")
	return out
}

func (b *Builder) resolve(ctx context.Context, refs []core.AttachmentRef) []entry {
	seen := make(map[string]struct{}, len(refs))
	entries := make([]entry, 0, len(refs))

	for _, ref := range refs {
		id := strings.TrimSpace(ref.FileID)
		if id == "" {
			entries = append(entries, entry{note: "附件缺少 fileId，无法关联上传记录。"})
			continue
		}
		if _, dup := seen[id]; dup {
			entries = append(entries, entry{note: fmt.Sprintf("附件 %s 已处理，跳过重复引用。", id)})
			continue
		}
		seen[id] = struct{}{}

		rec, err := b.registry.GetUploadRecord(ctx, id)
		if err != nil && !errors.Is(err, core.ErrUploadNotFound) {
			log.FromCtx(ctx).Warn().Err(err).Str("file_id", id).Msg("upload lookup failed")
		}
		if err != nil || rec == nil {
			entries = append(entries, entry{note: fmt.Sprintf("未找到 ID 为 %s 的上传记录，可能文件已被清理。", id)})
			continue
		}
		entries = append(entries, entry{rec: rec})
	}
	return entries
}

func (b *Builder) analyze(ctx context.Context, n int, rec core.UploadRecord) result {
	mimeType := resolveMimeType(rec)
	name := displayName(rec)

	analysis := core.AttachmentAnalysis{
		FileID:       rec.FileID,
		OriginalName: name,
		MimeType:     mimeType,
		Size:         rec.Size,
		Kind:         core.AttachmentKindOther,
		Warnings:     []string{},
		DownloadURL:  b.publicPrefix + rec.StoredName,
	}

	switch {
	case isImage(mimeType) && b.images != nil:
		insight := b.images.AnalyzeImage(ctx, rec)
		analysis.Kind = core.AttachmentKindImage
		analysis.Caption = insight.Caption
		analysis.Width = insight.Width
		analysis.Height = insight.Height
		analysis.Provider = insight.Provider
		analysis.Warnings = insight.Warnings
		analysis.PreviewURL = analysis.DownloadURL

		lines := []string{header(n, name), basicInfo(mimeType, rec.Size, insight.Width, insight.Height)}
		if insight.Caption != "" {
			lines = append(lines, "图像描述："+insight.Caption)
		}
		lines = appendWarnings(lines, insight.Warnings)
		analysis.Summary = summaryOf(insight.Caption, lines)
		return result{block: strings.Join(lines, "\n"), analysis: analysis}

	case b.documents != nil && b.documents.IsSupported(mimeType, name):
		doc, err := b.documents.Parse(ctx, rec)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("file_id", rec.FileID).Msg("document parse failed")
			analysis.Warnings = []string{err.Error()}
			block := unsupportedBlock(n, name, mimeType, rec.Size, "解析过程发生异常")
			analysis.Summary = block
			return result{
				block:    block,
				analysis: analysis,
				note:     fmt.Sprintf("解析附件 %s 失败：%v", name, err),
			}
		}

		analysis.Kind = core.AttachmentKindDocument
		analysis.Warnings = nonNil(doc.Warnings)
		analysis.Document = &core.DocumentInsight{
			Excerpt:   doc.Excerpt,
			WordCount: doc.WordCount,
			Metadata:  doc.Metadata,
		}

		lines := []string{header(n, name), basicInfo(mimeType, rec.Size, 0, 0)}
		if doc.Excerpt != "" {
			lines = append(lines, "文档内容摘要："+doc.Excerpt)
		}
		lines = appendWarnings(lines, doc.Warnings)
		analysis.Summary = summaryOf(doc.Excerpt, lines)
		return result{block: strings.Join(lines, "\n"), analysis: analysis}

	default:
		reason := mimeType
		if reason == "" {
			reason = "未知类型"
		}
		block := unsupportedBlock(n, name, mimeType, rec.Size, reason)
		analysis.Summary = block
		return result{block: block, analysis: analysis}
	}
}

func header(n int, name string) string {
	return fmt.Sprintf("附件%d：%s", n, name)
}

func basicInfo(mimeType string, size int64, width, height int) string {
	if mimeType == "" {
		mimeType = "未知类型"
	}
	parts := []string{mimeType, "大小 " + conv.FormatBytes(size)}
	if width > 0 && height > 0 {
		parts = append(parts, fmt.Sprintf("尺寸 %d×%d", width, height))
	}
	return "基础信息：" + strings.Join(parts, "，")
}

func unsupportedBlock(n int, name, mimeType string, size int64, reason string) string {
	return strings.Join([]string{
		header(n, name),
		basicInfo(mimeType, size, 0, 0),
		fmt.Sprintf("当前暂不支持自动解析该类型（%s），请根据用户描述自行参考。", reason),
	}, "\n")
}

func appendWarnings(lines, warnings []string) []string {
	if len(warnings) == 0 {
		return lines
	}
	return append(lines, "注意事项："+strings.Join(warnings, "；"))
}

func summaryOf(primary string, lines []string) string {
	if primary != "" {
		return primary
	}
	return strings.Join(lines[1:], "，")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
