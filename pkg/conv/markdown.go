package conv

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/inbucket/html2text"
	"github.com/microcosm-cc/bluemonday"
)

var (
	extensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	htmlFlags  = html.CommonFlags
	docPolicy  = bluemonday.UGCPolicy()
)

// MarkdownToHTML renders markdown and strips anything outside the UGC policy.
func MarkdownToHTML(md []byte) string {
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	unsafeHTML := markdown.Render(p.Parse(md), renderer)

	return string(docPolicy.SanitizeBytes(unsafeHTML))
}

// MarkdownToText flattens markdown into readable plain text.
func MarkdownToText(md []byte) (string, error) {
	return htmlToText(MarkdownToHTML(md))
}

// HTMLToText sanitizes raw HTML and renders it as plain text.
func HTMLToText(raw []byte) (string, error) {
	return htmlToText(docPolicy.Sanitize(string(raw)))
}

func htmlToText(safe string) (string, error) {
	text, err := html2text.FromString(safe, html2text.Options{
		OmitLinks:    true,
		PrettyTables: false,
	})
	if err != nil {
		return "", fmt.Errorf("html to text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
