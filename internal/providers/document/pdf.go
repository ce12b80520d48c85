package document

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ledongthuc/pdf"
)

func (p *Parser) checkSize(path string) error {
	if p.cfg.MaxBytes <= 0 {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > p.cfg.MaxBytes {
		return fmt.Errorf("%w: 文件体积 %dKB 超过解析上限 (%dKB)", ErrTooLarge, sizeKB(info.Size()), sizeKB(p.cfg.MaxBytes))
	}
	return nil
}

func (p *Parser) readPDF(path string) (extracted, error) {
	if err := p.checkSize(path); err != nil {
		return extracted{}, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return extracted{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return extracted{}, fmt.Errorf("extract pdf text: %w", err)
	}
	data, err := io.ReadAll(plain)
	if err != nil {
		return extracted{}, fmt.Errorf("read pdf text: %w", err)
	}

	return extracted{
		text:     string(data),
		metadata: map[string]string{"pages": strconv.Itoa(r.NumPage())},
	}, nil
}
