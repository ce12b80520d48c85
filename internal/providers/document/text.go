package document

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sandevgo/tuskctx/pkg/conv"
)

// decodeText honours UTF-8 and UTF-16 byte order marks and otherwise reads
// UTF-8, replacing invalid sequences.
func decodeText(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

func (p *Parser) readText(path string, f format) (extracted, error) {
	file, err := os.Open(path)
	if err != nil {
		return extracted{}, err
	}
	defer file.Close()

	var warnings []string
	var r io.Reader = file
	if p.cfg.MaxBytes > 0 {
		r = io.LimitReader(file, p.cfg.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return extracted{}, fmt.Errorf("read: %w", err)
	}
	if p.cfg.MaxBytes > 0 && int64(len(data)) > p.cfg.MaxBytes {
		data = data[:p.cfg.MaxBytes]
		warnings = append(warnings, fmt.Sprintf("文件体积超过解析上限 (%dKB)，仅截取前半部分。", sizeKB(p.cfg.MaxBytes)))
	}

	text, err := decodeText(data)
	if err != nil {
		return extracted{}, err
	}

	switch f {
	case formatMarkdown:
		text, err = conv.MarkdownToText([]byte(text))
	case formatHTML:
		text, err = conv.HTMLToText(bytes.TrimSpace([]byte(text)))
	}
	if err != nil {
		return extracted{}, err
	}
	return extracted{text: text, warnings: warnings}, nil
}
