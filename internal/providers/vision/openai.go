package vision

import (
	"context"
	"strings"

	"github.com/sandevgo/tuskctx/internal/config"
	"github.com/sandevgo/tuskctx/internal/providers/llm"
	"github.com/sandevgo/tuskctx/pkg/conv"
	"github.com/sandevgo/tuskctx/pkg/retry"
)

const (
	doubaoPrompt = "请用中文详细描述这张图片（文件名：{filename}）的场景、关键元素、出现的文字信息以及可能需要注意的风险点。"

	openAISystemPrompt = "你是一位专业的图像分析助手，请用中文准确描述图片的关键信息。"
	openAIPrompt       = "请详细描述这张图片的场景、重要元素以及可能包含的文字。文件名：{filename}"
)

// ChatCaptioner captions through an OpenAI-style chat completion with an
// image_url content part.
type ChatCaptioner struct {
	name         string
	client       *llm.OpenAICompatible
	configured   bool
	maxBytes     int64
	maxTokens    int
	systemPrompt string
	prompt       string

	missingKey func() error
	tooLarge   func(size, limit int64) error
	empty      func() error
}

var _ Captioner = (*ChatCaptioner)(nil)

func NewDoubao(cfg *config.VisionConfig) *ChatCaptioner {
	client := llm.NewDoubao(llm.Options{
		BaseURL: cfg.DoubaoBaseURL,
		APIKey:  cfg.DoubaoAPIKey,
		Model:   cfg.DoubaoModel,
		Timeout: cfg.Timeout,
		Retrier: retry.NewDefaultRetrier(),
	})
	return &ChatCaptioner{
		name:       "doubao",
		client:     client,
		configured: cfg.DoubaoAPIKey != "",
		maxBytes:   cfg.DoubaoMaxBytes,
		maxTokens:  cfg.MaxTokens,
		prompt:     promptOr(cfg.Prompt, doubaoPrompt),
		missingKey: func() error {
			return newError(ErrNotConfigured, "缺少 DOUBAO_API_KEY，无法调用豆包图像识别接口")
		},
		tooLarge: func(size, limit int64) error {
			return newError(ErrImageTooLarge, "图片体积 %s 超出限制（%s），已跳过豆包识别", FormatKB(size), FormatKB(limit))
		},
		empty: func() error {
			return newError(ErrEmptyCaption, "豆包图像识别返回内容为空")
		},
	}
}

func NewOpenAI(cfg *config.VisionConfig) *ChatCaptioner {
	client := llm.NewOpenAI(llm.Options{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.Timeout,
		Retrier: retry.NewDefaultRetrier(),
	})
	return &ChatCaptioner{
		name:         "openai",
		client:       client,
		configured:   cfg.OpenAIAPIKey != "",
		maxBytes:     cfg.OpenAIMaxBytes,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: openAISystemPrompt,
		prompt:       promptOr(cfg.Prompt, openAIPrompt),
		missingKey: func() error {
			return newError(ErrNotConfigured, "缺少 OPENAI_API_KEY，无法生成详细图像描述。")
		},
		tooLarge: func(size, limit int64) error {
			return newError(ErrImageTooLarge, "图片体积为 %s，超过限制 %s，跳过详细识别。", conv.FormatBytes(size), conv.FormatBytes(limit))
		},
		empty: func() error {
			return newError(ErrEmptyCaption, "图像识别接口返回内容为空")
		},
	}
}

// promptOr uses custom when set. {filename} in a prompt is replaced with the
// image name.
func promptOr(custom, def string) string {
	if strings.TrimSpace(custom) == "" {
		return def
	}
	return custom
}

func (c *ChatCaptioner) Name() string {
	return c.name
}

func (c *ChatCaptioner) Caption(ctx context.Context, img *Image) (string, error) {
	if !c.configured {
		return "", c.missingKey()
	}
	if c.maxBytes > 0 && img.Size > c.maxBytes {
		return "", c.tooLarge(img.Size, c.maxBytes)
	}

	dataURL, err := img.DataURL()
	if err != nil {
		return "", err
	}

	resp, err := c.client.ChatImage(ctx, llm.ImageChatRequest{
		SystemPrompt: c.systemPrompt,
		Text:         renderPrompt(c.prompt, img.Name),
		ImageURL:     dataURL,
		MaxTokens:    c.maxTokens,
	})
	if err != nil {
		return "", err
	}

	caption := strings.TrimSpace(resp.Text)
	if caption == "" {
		return "", c.empty()
	}
	return caption, nil
}

func renderPrompt(prompt, name string) string {
	return strings.ReplaceAll(prompt, "{filename}", name)
}
