package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskctx/pkg/log"
)

const (
	ProviderMock       = "mock"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderDoubao     = "doubao"
	ProviderAnthropic  = "anthropic"
	ProviderCustom     = "custom"
)

type ProviderConfig struct {
	Provider       string `env:"AI_PROVIDER" envDefault:"mock"`
	Model          string `env:"AI_MODEL"`
	EmbeddingModel string `env:"AI_EMBEDDING_MODEL"`
	BaseURL        string `env:"AI_BASE_URL"`
	APIKey         string `env:"AI_API_KEY"`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	DoubaoAPIKey     string `env:"DOUBAO_API_KEY"`
	OllamaBaseURL    string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`

	Timeout    time.Duration `env:"AI_TIMEOUT" envDefault:"60s"`
	MaxRetries int           `env:"AI_MAX_RETRIES" envDefault:"2"`
}

func ParseProviderConfig() (*ProviderConfig, error) {
	c := &ProviderConfig{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse provider config: %w", err)
	}
	return c, nil
}

func NewProviderConfig(ctx context.Context) *ProviderConfig {
	c, err := ParseProviderConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Provider config")
	}
	return c
}

func (c ProviderConfig) GetProvider() string {
	return c.Provider
}

func (c ProviderConfig) GetAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderOpenRouter:
		return c.OpenRouterAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderDoubao:
		return c.DoubaoAPIKey
	}
	return ""
}

func (c ProviderConfig) GetModel() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderOpenRouter:
		return "openai/gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case ProviderOllama:
		return "llama3.1"
	case ProviderDoubao:
		return "doubao-seed-1-6-flash"
	}
	return "mock"
}

func (c ProviderConfig) GetEmbeddingModel() string {
	if c.EmbeddingModel != "" {
		return c.EmbeddingModel
	}
	switch c.Provider {
	case ProviderOpenAI:
		return "text-embedding-3-small"
	case ProviderOpenRouter:
		return "openai/text-embedding-3-small"
	case ProviderOllama:
		return "nomic-embed-text"
	case ProviderDoubao:
		return "doubao-embedding-v1"
	}
	return ""
}

func (c ProviderConfig) GetBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	switch c.Provider {
	case ProviderOllama:
		return c.OllamaBaseURL
	}
	return ""
}
