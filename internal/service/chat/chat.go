// Package chat runs one conversational turn: it gathers memory, attachment
// and knowledge context, asks the model, and records the exchange.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/internal/service/knowledge"
	"github.com/sandevgo/tuskctx/pkg/log"
)

var ErrEmptyMessage = errors.New("缺少用户输入")

const (
	promptHeader  = "你是一位专业且可靠的中文 AI 助手，请结合记忆与提供的参考资料回答用户问题。"
	systemPrompt  = "You are a helpful assistant."
	fallbackBasis = 120

	WarnChatFallback = "provider.chat failed, used fallback"
)

type Memory interface {
	PrepareContext(ctx context.Context, sessionID, userMessage string) (core.MemoryContext, error)
	RecordInteraction(ctx context.Context, sessionID, userMessage, answer string) (core.RecordResult, error)
}

type Attachments interface {
	Build(ctx context.Context, refs []core.AttachmentRef) core.AttachmentContext
}

type Knowledge interface {
	Search(query string, k int) []knowledge.Hit
}

type Provider interface {
	core.AIProvider
	Name() string
}

type Request struct {
	SessionID   string               `json:"sessionId"`
	Message     string               `json:"message"`
	Attachments []core.AttachmentRef `json:"attachments,omitempty"`
}

type MemoryInfo struct {
	SessionID     string   `json:"sessionId"`
	Summary       string   `json:"summary"`
	FactsUsed     []string `json:"factsUsed"`
	RecentCount   int      `json:"recentCount"`
	TotalMessages int      `json:"totalMessages"`
}

type Response struct {
	Answer      string                  `json:"answer"`
	Provider    string                  `json:"provider"`
	Sources     []knowledge.Hit         `json:"sources"`
	Attachments *core.AttachmentContext `json:"attachments,omitempty"`
	Memory      MemoryInfo              `json:"memory"`
	Warnings    []string                `json:"warnings,omitempty"`
}

type Options struct {
	// SnippetLimit caps the knowledge snippets quoted in the prompt.
	SnippetLimit int
}

type Service struct {
	memory      Memory
	provider    Provider
	attachments Attachments
	knowledge   Knowledge
	opts        Options
	now         func() time.Time
}

// NewService wires the pipeline. attachments and kb may be nil.
func NewService(memory Memory, provider Provider, attachments Attachments, kb Knowledge, opts Options) *Service {
	if opts.SnippetLimit <= 0 {
		opts.SnippetLimit = 3
	}
	return &Service{
		memory:      memory,
		provider:    provider,
		attachments: attachments,
		knowledge:   kb,
		opts:        opts,
		now:         time.Now,
	}
}

func (s *Service) Handle(ctx context.Context, req Request) (Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Response{}, ErrEmptyMessage
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%d", s.now().UnixMilli())
	}
	logger := log.WithSession(ctx, sessionID)

	mem, err := s.memory.PrepareContext(ctx, sessionID, message)
	if err != nil {
		return Response{}, fmt.Errorf("prepare context: %w", err)
	}

	var attachments *core.AttachmentContext
	if len(req.Attachments) > 0 && s.attachments != nil {
		ac := s.attachments.Build(ctx, req.Attachments)
		attachments = &ac
	}

	sources := []knowledge.Hit{}
	if s.knowledge != nil {
		sources = s.knowledge.Search(message, s.opts.SnippetLimit)
	}
	docContext := knowledge.FormatHits(sources)

	attachmentText := ""
	if attachments != nil {
		attachmentText = attachments.ContextText
	}

	resp := Response{
		Provider:    s.provider.Name(),
		Sources:     sources,
		Attachments: attachments,
		Memory: MemoryInfo{
			SessionID:   sessionID,
			Summary:     mem.Summary,
			FactsUsed:   mem.RelevantFacts,
			RecentCount: len(mem.RecentHistory),
		},
	}

	prompt := BuildPrompt(mem, attachmentText, docContext, message)
	out, err := s.provider.Chat(ctx, core.ChatRequest{Prompt: prompt, SystemPrompt: systemPrompt})
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, fmt.Errorf("chat: %w", ctx.Err())
		}
		logger.Warn().Err(err).Str("provider", resp.Provider).Msg("chat failed, using fallback answer")
		resp.Answer = fallbackAnswer(mem, docContext, message)
		resp.Warnings = []string{WarnChatFallback}
		return resp, nil
	}
	resp.Answer = out.Text

	rec, err := s.memory.RecordInteraction(ctx, sessionID, message, out.Text)
	if err != nil {
		return Response{}, fmt.Errorf("record interaction: %w", err)
	}
	resp.Memory.TotalMessages = rec.TotalMessages

	logger.Debug().
		Int("facts", len(mem.RelevantFacts)).
		Int("sources", len(sources)).
		Int("total", rec.TotalMessages).
		Msg("turn recorded")
	return resp, nil
}

// BuildPrompt lays out the sections the model sees. Empty sections are
// omitted; the header and the question are always present.
func BuildPrompt(mem core.MemoryContext, attachmentText, docContext, message string) string {
	sections := []string{promptHeader}

	if mem.Summary != "" {
		sections = append(sections, "会话摘要：\n"+mem.Summary)
	}
	if len(mem.RelevantFacts) > 0 {
		lines := make([]string, len(mem.RelevantFacts))
		for i, f := range mem.RelevantFacts {
			lines[i] = fmt.Sprintf("%d. %s", i+1, f)
		}
		sections = append(sections, "相关长期记忆：\n"+strings.Join(lines, "\n"))
	}
	if attachmentText != "" {
		sections = append(sections, "附件信息：\n"+attachmentText)
	}
	if docContext != "" {
		sections = append(sections, "参考资料：\n"+docContext)
	}
	if len(mem.RecentHistory) > 0 {
		lines := make([]string, 0, len(mem.RecentHistory))
		for _, m := range mem.RecentHistory {
			speaker := "用户"
			if m.Role == core.RoleAssistant {
				speaker = "助手"
			}
			lines = append(lines, speaker+"："+m.Content)
		}
		sections = append(sections, "最近对话：\n"+strings.Join(lines, "\n"))
	}
	sections = append(sections, "用户当前问题：\n"+message)

	return strings.Join(sections, "\n\n")
}

func fallbackAnswer(mem core.MemoryContext, docContext, message string) string {
	var parts []string
	for _, p := range []string{docContext, mem.Summary, strings.Join(mem.RelevantFacts, "；")} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	basis := strings.Join(parts, " / ")
	if basis == "" {
		basis = "暂无有效记忆"
	}
	if r := []rune(basis); len(r) > fallbackBasis {
		basis = string(r[:fallbackBasis])
	}
	return fmt.Sprintf("（模拟回退）基于记忆与资料：%s... 对问题 \"%s\" 的回答是：示例答案。", basis, message)
}
