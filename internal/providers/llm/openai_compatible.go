package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/retry"
)

// OpenAICompatible speaks the /chat/completions and /embeddings dialect shared
// by OpenAI, OpenRouter, Ollama, Doubao (Volcengine Ark) and most gateways.
type OpenAICompatible struct {
	baseProvider
	name           string
	embeddingModel string
	pathPrefix     string
	authHeader     string
	authPrefix     string
	extraHeaders   map[string]string
}

type OpenAICompatibleConfig struct {
	Name           string
	BaseURL        string
	PathPrefix     string // e.g. "/v1"; empty when BaseURL already carries the version
	APIKey         string
	Model          string
	EmbeddingModel string
	AuthHeader     string // e.g., "Authorization"
	AuthPrefix     string // e.g., "Bearer "
	ExtraHeaders   map[string]string
	Timeout        time.Duration
	Retrier        *retry.Retrier
}

var _ core.LLMProvider = (*OpenAICompatible)(nil)

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	name := cfg.Name
	if name == "" {
		name = "openai-compatible"
	}
	return &OpenAICompatible{
		baseProvider:   newBaseProvider(strings.TrimRight(cfg.BaseURL, "/"), cfg.APIKey, cfg.Model, cfg.Timeout, cfg.Retrier),
		name:           name,
		embeddingModel: cfg.EmbeddingModel,
		pathPrefix:     cfg.PathPrefix,
		authHeader:     cfg.AuthHeader,
		authPrefix:     cfg.AuthPrefix,
		extraHeaders:   cfg.ExtraHeaders,
	}
}

func (o *OpenAICompatible) Name() string {
	return o.name
}

func (o *OpenAICompatible) headers() map[string]string {
	headers := make(map[string]string)
	if o.authHeader != "" && o.apiKey != "" {
		headers[o.authHeader] = o.authPrefix + o.apiKey
	}
	for k, v := range o.extraHeaders {
		headers[k] = v
	}
	return headers
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (o *OpenAICompatible) Chat(ctx context.Context, req core.ChatRequest) (core.ChatResponse, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: core.RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: core.RoleUser, Content: req.Prompt})

	payload := map[string]any{
		"model":    o.model,
		"messages": messages,
	}

	var result chatCompletion
	if err := o.doJSON(ctx, http.MethodPost, o.pathPrefix+"/chat/completions", payload, o.headers(), &result); err != nil {
		return core.ChatResponse{}, fmt.Errorf("%s chat: %w", o.name, err)
	}
	return result.toResponse(o.name)
}

type chatCompletion struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c chatCompletion) toResponse(provider string) (core.ChatResponse, error) {
	if len(c.Choices) == 0 {
		return core.ChatResponse{}, errors.New("empty choices")
	}
	text, err := contentText(c.Choices[0].Message.Content)
	if err != nil {
		return core.ChatResponse{}, err
	}
	return core.ChatResponse{
		Text: strings.TrimSpace(text),
		Metadata: map[string]string{
			"provider":          provider,
			"model":             c.Model,
			"finish_reason":     c.Choices[0].FinishReason,
			"prompt_tokens":     fmt.Sprint(c.Usage.PromptTokens),
			"completion_tokens": fmt.Sprint(c.Usage.CompletionTokens),
		},
	}, nil
}

// contentText accepts either a plain string or an array of content parts.
func contentText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var parts []struct {
		Text    string `json:"text"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("decode content: %w", err)
	}
	var sb strings.Builder
	for _, p := range parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		} else {
			sb.WriteString(p.Content)
		}
	}
	return sb.String(), nil
}

func (o *OpenAICompatible) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	if o.embeddingModel == "" {
		return nil, ErrEmbeddingUnsupported
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	payload := map[string]any{
		"model": o.embeddingModel,
		"input": texts,
	}

	var result struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := o.doJSON(ctx, http.MethodPost, o.pathPrefix+"/embeddings", payload, o.headers(), &result); err != nil {
		return nil, fmt.Errorf("%s embed: %w", o.name, err)
	}
	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("%s embed: expected %d vectors, got %d", o.name, len(texts), len(result.Data))
	}

	sort.Slice(result.Data, func(i, j int) bool { return result.Data[i].Index < result.Data[j].Index })
	vectors := make([][]float32, len(result.Data))
	for i, d := range result.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// ImageChatRequest is a single-turn vision request. ImageURL is usually a
// base64 data URL.
type ImageChatRequest struct {
	SystemPrompt string
	Text         string
	ImageURL     string
	MaxTokens    int
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type partsMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ChatImage sends text plus one image as content parts.
func (o *OpenAICompatible) ChatImage(ctx context.Context, req ImageChatRequest) (core.ChatResponse, error) {
	messages := make([]partsMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, partsMessage{Role: core.RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, partsMessage{
		Role: core.RoleUser,
		Content: []contentPart{
			{Type: "text", Text: req.Text},
			{Type: "image_url", ImageURL: &imageURL{URL: req.ImageURL}},
		},
	})

	payload := map[string]any{
		"model":    o.model,
		"messages": messages,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}

	var result chatCompletion
	if err := o.doJSON(ctx, http.MethodPost, o.pathPrefix+"/chat/completions", payload, o.headers(), &result); err != nil {
		return core.ChatResponse{}, fmt.Errorf("%s vision: %w", o.name, err)
	}
	return result.toResponse(o.name)
}
