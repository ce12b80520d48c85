package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskctx/pkg/log"
)

type VisionConfig struct {
	DoubaoAPIKey   string `env:"DOUBAO_API_KEY"`
	DoubaoBaseURL  string `env:"DOUBAO_IMAGE_API_BASE" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	DoubaoModel    string `env:"DOUBAO_IMAGE_MODEL" envDefault:"doubao-seed-1-6-flash"`
	DoubaoMaxBytes int64  `env:"DOUBAO_IMAGE_MAX_BYTES" envDefault:"8388608"`

	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `env:"OPENAI_API_BASE" envDefault:"https://api.openai.com/v1"`
	OpenAIModel    string `env:"OPENAI_IMAGE_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIMaxBytes int64  `env:"IMAGE_ANALYSIS_MAX_BYTES" envDefault:"5242880"`

	GeminiAPIKey   string `env:"GEMINI_API_KEY"`
	GeminiBaseURL  string `env:"GEMINI_API_BASE"`
	GeminiModel    string `env:"GEMINI_VISION_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiMaxBytes int64  `env:"GEMINI_IMAGE_MAX_BYTES" envDefault:"8388608"`

	Prompt    string        `env:"IMAGE_CAPTION_PROMPT"`
	MaxTokens int           `env:"IMAGE_ANALYSIS_MAX_TOKENS" envDefault:"500"`
	Timeout   time.Duration `env:"VISION_TIMEOUT" envDefault:"45s"`
}

func ParseVisionConfig() (*VisionConfig, error) {
	c := &VisionConfig{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse vision config: %w", err)
	}
	return c, nil
}

func NewVisionConfig(ctx context.Context) *VisionConfig {
	c, err := ParseVisionConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Vision config")
	}
	return c
}
