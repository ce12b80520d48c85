package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownToHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		absent   []string
	}{
		{
			name:     "bold text",
			input:    "**bold**",
			contains: []string{"<strong>bold</strong>"},
		},
		{
			name:     "inline code",
			input:    "`code`",
			contains: []string{"<code>code</code>"},
		},
		{
			name:   "script tags sanitized",
			input:  "<script>alert('xss')</script>",
			absent: []string{"<script>", "alert"},
		},
		{
			name:     "link kept without target",
			input:    "[link](https://example.com)",
			contains: []string{`href="https://example.com"`},
			absent:   []string{"target="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToHTML([]byte(tt.input))
			for _, c := range tt.contains {
				assert.Contains(t, got, c)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, got, a)
			}
		})
	}
}

func TestMarkdownToText(t *testing.T) {
	text, err := MarkdownToText([]byte("# 标题\n\n第一段 **重点**。\n\n- 项目一\n- 项目二\n"))
	require.NoError(t, err)

	assert.Contains(t, text, "标题")
	assert.Contains(t, text, "重点")
	assert.Contains(t, text, "项目一")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "<")
}

func TestHTMLToText(t *testing.T) {
	text, err := HTMLToText([]byte(`<html><head><style>p{}</style><script>x()</script></head>
<body><p>Hello <b>world</b></p><p>Second</p></body></html>`))
	require.NoError(t, err)

	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "world")
	assert.Contains(t, text, "Second")
	assert.NotContains(t, text, "x()")
}

func TestHTMLToText_Empty(t *testing.T) {
	text, err := HTMLToText(nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}
