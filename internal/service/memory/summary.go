package memory

import (
	"fmt"
	"strings"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/tokens"
)

const (
	summarySystemPrompt = "You are a helpful assistant that writes concise Chinese summaries of conversations."

	firstSummaryInstruction  = "请将以下对话整理成不超过 80 字的摘要，突出长期需记住的事实。"
	updateSummaryInstruction = "已有对话摘要如下：\n%s\n\n请基于该摘要和最近新增的对话更新摘要，保持语言精炼，仅记录对话中长期有用的事实。"
)

func roleLabel(role string) string {
	if role == core.RoleAssistant {
		return "助手"
	}
	return "用户"
}

func buildTranscript(history []core.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		lines = append(lines, roleLabel(m.Role)+"："+content)
	}
	return strings.Join(lines, "\n")
}

// buildSummaryRequest asks for a fresh summary or an update of prev. The
// transcript keeps its most recent part when it exceeds budget tokens.
func buildSummaryRequest(prev string, history []core.Message, facts []core.Fact, budget int) core.ChatRequest {
	instruction := firstSummaryInstruction
	if strings.TrimSpace(prev) != "" {
		instruction = fmt.Sprintf(updateSummaryInstruction, strings.TrimSpace(prev))
	}

	var sb strings.Builder
	sb.WriteString(instruction)

	if len(facts) > 0 {
		sb.WriteString("\n\n已记录的长期事实：")
		for _, f := range facts {
			sb.WriteString("\n- ")
			sb.WriteString(f.Text)
		}
	}

	sb.WriteString("\n\n最近对话：\n")
	sb.WriteString(tokens.TruncateTail(buildTranscript(history), budget))

	return core.ChatRequest{
		Prompt:       sb.String(),
		SystemPrompt: summarySystemPrompt,
	}
}
