package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readDocx walks word/document.xml and keeps run text, tabs and breaks.
func (p *Parser) readDocx(path string) (extracted, error) {
	if err := p.checkSize(path); err != nil {
		return extracted{}, err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return extracted{}, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return extracted{}, errors.New("docx: missing word/document.xml")
	}

	// The compressed size says nothing about the body; cap what gets inflated.
	limit := p.cfg.MaxBytes
	if limit > 0 && body.UncompressedSize64 > uint64(limit) {
		return extracted{}, docxTooLarge(int64(body.UncompressedSize64), limit)
	}

	rc, err := body.Open()
	if err != nil {
		return extracted{}, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	var r io.Reader = rc
	lr := &io.LimitedReader{R: rc, N: limit + 1}
	if limit > 0 {
		r = lr
	}

	text, err := docxText(r)
	if limit > 0 && lr.N <= 0 {
		return extracted{}, docxTooLarge(limit+1, limit)
	}
	if err != nil {
		return extracted{}, err
	}
	return extracted{text: text}, nil
}

func docxTooLarge(size, limit int64) error {
	return fmt.Errorf("%w: 文档正文 %dKB 超过解析上限 (%dKB)", ErrTooLarge, sizeKB(size), sizeKB(limit))
}

func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br", "cr":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

const maxCellRunes = 60

func formatRow(row []string, limit int) string {
	if len(row) > limit {
		row = row[:limit]
	}
	cells := make([]string, len(row))
	for i, c := range row {
		c = strings.TrimSpace(c)
		switch r := []rune(c); {
		case c == "":
			cells[i] = "-"
		case len(r) > maxCellRunes:
			cells[i] = string(r[:maxCellRunes-3]) + "..."
		default:
			cells[i] = c
		}
	}
	return strings.Join(cells, " | ")
}

func nonEmptyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func (p *Parser) readXlsx(path string) (extracted, error) {
	if err := p.checkSize(path); err != nil {
		return extracted{}, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return extracted{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var warnings []string
	sheets := f.GetSheetList()
	selected := sheets
	if len(selected) > p.cfg.MaxSheets {
		selected = selected[:p.cfg.MaxSheets]
		warnings = append(warnings, fmt.Sprintf("工作簿包含 %d 个工作表，仅解析前 %d 个。", len(sheets), len(selected)))
	}

	sections := make([]string, 0, len(selected))
	for i, name := range selected {
		rows, err := f.GetRows(name)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("无法读取工作表「%s」，已跳过。", name))
			continue
		}
		rows = nonEmptyRows(rows)

		limited := rows
		if len(limited) > p.cfg.MaxRows {
			limited = limited[:p.cfg.MaxRows]
			warnings = append(warnings, fmt.Sprintf("工作表「%s」共有 %d 行，仅保留前 %d 行。", name, len(rows), p.cfg.MaxRows))
		}

		lines := []string{fmt.Sprintf("工作表%d：%s", i+1, name)}
		if len(limited) == 0 {
			lines = append(lines, "（表格为空）")
			sections = append(sections, strings.Join(lines, "\n"))
			continue
		}

		header := limited[0]
		if len(header) > p.cfg.MaxColumns {
			warnings = append(warnings, fmt.Sprintf("工作表「%s」共有 %d 列，仅展示前 %d 列。", name, len(header), p.cfg.MaxColumns))
		}
		headerLine := formatRow(header, p.cfg.MaxColumns)
		if headerLine == "" {
			headerLine = "(无表头)"
		}
		lines = append(lines, "表头："+headerLine)

		if len(limited) == 1 {
			lines = append(lines, "（无数据行）")
		}
		for j, row := range limited[1:] {
			lines = append(lines, fmt.Sprintf("第%d行：%s", j+1, formatRow(row, p.cfg.MaxColumns)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	return extracted{
		text:     strings.Join(sections, "\n\n"),
		warnings: warnings,
		metadata: map[string]string{
			"sheets":     strconv.Itoa(len(sheets)),
			"sheetNames": strings.Join(selected, ","),
		},
	}, nil
}
