package command

import (
	"fmt"
	"strings"

	"github.com/sandevgo/tuskctx/internal/service/ui"
)

// ResponseFormatter renders command output for the terminal.
type ResponseFormatter struct{}

func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{}
}

func (f *ResponseFormatter) Info(title string) string {
	return ui.TitleStyle.Render(title)
}

func (f *ResponseFormatter) Success(message string) string {
	return ui.UsageStyle.Render("✔ " + message)
}

func (f *ResponseFormatter) Error(err error) string {
	return ui.ErrorStyle.Render("✘ " + err.Error())
}

func (f *ResponseFormatter) Label(label, value string) string {
	return fmt.Sprintf("%s  ›  %s", ui.DescStyle.Render(label), value)
}

func (f *ResponseFormatter) Usage(command string) string {
	return "Usage: " + ui.UsageStyle.Render(command)
}

func (f *ResponseFormatter) List(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("› " + item)
	}
	return sb.String()
}

func (f *ResponseFormatter) Numbered(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}

func (f *ResponseFormatter) Empty(text string) string {
	return ui.DescStyle.Render(text)
}

func (f *ResponseFormatter) Combine(sections ...string) string {
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n")
}
