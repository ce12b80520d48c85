// Package document extracts plain text and a bounded excerpt from uploaded
// office, pdf and text files.
package document

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sandevgo/tuskctx/internal/config"
	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/log"
	"github.com/sandevgo/tuskctx/pkg/tokens"
)

var (
	ErrUnsupported = errors.New("unsupported document type")
	ErrTooLarge    = errors.New("document exceeds size limit")
)

type format string

const (
	formatText     format = "txt"
	formatMarkdown format = "md"
	formatHTML     format = "html"
	formatPDF      format = "pdf"
	formatDocx     format = "docx"
	formatXlsx     format = "xlsx"
)

var mimeFormats = map[string]format{
	"text/plain":        formatText,
	"text/csv":          formatText,
	"text/markdown":     formatMarkdown,
	"text/x-markdown":   formatMarkdown,
	"text/html":         formatHTML,
	"application/pdf":   formatPDF,
	"application/x-pdf": formatPDF,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": formatDocx,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       formatXlsx,
}

var extFormats = map[string]format{
	".txt":      formatText,
	".csv":      formatText,
	".log":      formatText,
	".md":       formatMarkdown,
	".markdown": formatMarkdown,
	".html":     formatHTML,
	".htm":      formatHTML,
	".pdf":      formatPDF,
	".docx":     formatDocx,
	".xlsx":     formatXlsx,
}

type Parser struct {
	cfg config.DocumentConfig
}

var _ core.DocumentParser = (*Parser)(nil)

func NewParser(cfg *config.DocumentConfig) *Parser {
	c := *cfg
	if c.MaxChars <= 0 {
		c.MaxChars = 6000
	}
	c.MaxSheets = max(1, c.MaxSheets)
	c.MaxRows = max(1, c.MaxRows)
	c.MaxColumns = max(1, c.MaxColumns)
	return &Parser{cfg: c}
}

func resolveFormat(mimeType, fileName string) (format, bool) {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		if f, ok := mimeFormats[strings.ToLower(mt)]; ok {
			return f, true
		}
	}
	f, ok := extFormats[strings.ToLower(filepath.Ext(fileName))]
	return f, ok
}

func (p *Parser) IsSupported(mimeType, fileName string) bool {
	_, ok := resolveFormat(mimeType, fileName)
	return ok
}

func (p *Parser) Parse(ctx context.Context, rec core.UploadRecord) (core.ParsedDocument, error) {
	name := rec.OriginalName
	if name == "" {
		name = rec.StoredName
	}
	f, ok := resolveFormat(rec.MimeType, name)
	if !ok {
		return core.ParsedDocument{}, fmt.Errorf("%w: %s", ErrUnsupported, firstNonEmpty(rec.MimeType, name))
	}

	var (
		doc extracted
		err error
	)
	switch f {
	case formatText, formatMarkdown, formatHTML:
		doc, err = p.readText(rec.StoredPath, f)
	case formatPDF:
		doc, err = p.readPDF(rec.StoredPath)
	case formatDocx:
		doc, err = p.readDocx(rec.StoredPath)
	case formatXlsx:
		doc, err = p.readXlsx(rec.StoredPath)
	}
	if err != nil {
		return core.ParsedDocument{}, fmt.Errorf("parse %s: %w", f, err)
	}

	log.FromCtx(ctx).Debug().
		Str("file_id", rec.FileID).
		Str("format", string(f)).
		Int("chars", tokens.RuneLen(doc.text)).
		Msg("document parsed")

	return p.finish(f, doc), nil
}

// extracted is the raw result of one format reader.
type extracted struct {
	text     string
	warnings []string
	metadata map[string]string
}

var truncationLabels = map[format]string{
	formatText:     "文档",
	formatMarkdown: "文档",
	formatHTML:     "网页",
	formatPDF:      "PDF 内容",
	formatDocx:     "Word 文档",
	formatXlsx:     "Excel 内容",
}

func (p *Parser) finish(f format, doc extracted) core.ParsedDocument {
	text := normalizeWhitespace(doc.text)
	excerpt := buildExcerpt(text, p.cfg.MaxChars)
	truncated := tokens.RuneLen(excerpt) < tokens.RuneLen(text)

	warnings := append([]string(nil), doc.warnings...)
	if truncated {
		warnings = append(warnings, fmt.Sprintf("%s较长，仅截取前 %d 个字符用于上下文。", truncationLabels[f], p.cfg.MaxChars))
	}
	if text == "" {
		warnings = append(warnings, "未能从文档中提取到文本内容。")
	}

	meta := doc.metadata
	if meta == nil {
		meta = make(map[string]string)
	}
	meta["format"] = string(f)
	meta["tokens"] = strconv.Itoa(tokens.Count(text))
	meta["truncated"] = strconv.FormatBool(truncated)

	return core.ParsedDocument{
		Text:      text,
		Excerpt:   excerpt,
		WordCount: len(strings.Fields(text)),
		Warnings:  warnings,
		Metadata:  meta,
	}
}

var (
	crlf       = strings.NewReplacer("\x00", "", "\r\n", "\n", "\t", "  ")
	blankLines = regexp.MustCompile(`\n{3,}`)
)

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(blankLines.ReplaceAllString(crlf.Replace(s), "\n\n"))
}

// buildExcerpt keeps the first maxChars runes, cut back to the last line
// break when that break lies past 60% of the budget.
func buildExcerpt(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	slice := string(runes[:maxChars])
	if i := strings.LastIndex(slice, "\n"); i >= 0 && float64(tokens.RuneLen(slice[:i])) > float64(maxChars)*0.6 {
		return strings.TrimSpace(slice[:i])
	}
	return strings.TrimSpace(slice)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func sizeKB(n int64) int64 {
	return (n + 512) / 1024
}
