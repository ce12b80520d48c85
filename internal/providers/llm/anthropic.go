package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sandevgo/tuskctx/internal/core"
)

const anthropicMaxTokens = 1024

// Anthropic answers chat requests through the official SDK. It has no
// embedding endpoint.
type Anthropic struct {
	client anthropic.Client
	model  string
}

var _ core.LLMProvider = (*Anthropic)(nil)

func NewAnthropic(apiKey, model string, opts ...option.RequestOption) *Anthropic {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (a *Anthropic) Name() string {
	return "anthropic"
}

func (a *Anthropic) Chat(ctx context.Context, req core.ChatRequest) (core.ChatResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(anthropicMaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return core.ChatResponse{}, fmt.Errorf("anthropic chat: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}

	return core.ChatResponse{
		Text: strings.TrimSpace(sb.String()),
		Metadata: map[string]string{
			"provider":      a.Name(),
			"model":         string(msg.Model),
			"stop_reason":   string(msg.StopReason),
			"input_tokens":  fmt.Sprint(msg.Usage.InputTokens),
			"output_tokens": fmt.Sprint(msg.Usage.OutputTokens),
		},
	}, nil
}

func (a *Anthropic) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	return nil, ErrEmbeddingUnsupported
}
