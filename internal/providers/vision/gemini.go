package vision

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/sandevgo/tuskctx/internal/config"
)

const geminiPrompt = "请用中文详细描述这张图片（文件名：{filename}）的场景、关键元素以及图片中出现的文字。"

// Gemini captions with the Gemini API. The client is created on first use
// and shared by later calls.
type Gemini struct {
	apiKey   string
	model    string
	prompt   string
	maxBytes int64
	baseURL  string
	client   func() (*genai.Client, error)
}

var _ Captioner = (*Gemini)(nil)

func NewGemini(cfg *config.VisionConfig) *Gemini {
	g := &Gemini{
		apiKey:   cfg.GeminiAPIKey,
		model:    cfg.GeminiModel,
		prompt:   promptOr(cfg.Prompt, geminiPrompt),
		maxBytes: cfg.GeminiMaxBytes,
		baseURL:  cfg.GeminiBaseURL,
	}
	g.client = sync.OnceValues(g.newClient)
	return g
}

func (g *Gemini) newClient() (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

func (g *Gemini) Name() string {
	return "gemini"
}

func (g *Gemini) Caption(ctx context.Context, img *Image) (string, error) {
	if g.apiKey == "" {
		return "", newError(ErrNotConfigured, "缺少 GEMINI_API_KEY，无法调用 Gemini 图像识别接口")
	}
	if g.maxBytes > 0 && img.Size > g.maxBytes {
		return "", newError(ErrImageTooLarge, "图片体积 %s 超出限制（%s），已跳过 Gemini 识别", FormatKB(img.Size), FormatKB(g.maxBytes))
	}

	data, err := img.Data()
	if err != nil {
		return "", err
	}

	client, err := g.client()
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: renderPrompt(g.prompt, img.Name)},
			{InlineData: &genai.Blob{Data: data, MIMEType: img.MimeType}},
		},
	}}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", newError(ErrEmptyCaption, "Gemini 图像识别返回内容为空")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	caption := strings.TrimSpace(sb.String())
	if caption == "" {
		return "", newError(ErrEmptyCaption, "Gemini 图像识别返回内容为空")
	}
	return caption, nil
}
