package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/internal/service/chat"
	"github.com/sandevgo/tuskctx/internal/service/knowledge"
)

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, chat.Response{
		Answer:      "杭州的龙井很有名。",
		Warnings:    []string{chat.WarnChatFallback},
		Sources:     []knowledge.Hit{{Snippet: knowledge.Snippet{ID: "tea.md"}}},
		Attachments: &core.AttachmentContext{Notes: []string{"未找到附件 x 的上传记录。"}},
	})

	out := buf.String()
	assert.Contains(t, out, "杭州的龙井很有名。")
	assert.Contains(t, out, "warning: "+chat.WarnChatFallback)
	assert.Contains(t, out, "sources: tea.md")
	assert.Contains(t, out, "! 未找到附件 x 的上传记录。")
}
