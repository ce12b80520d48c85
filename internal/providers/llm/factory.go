package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/tuskctx/internal/config"
	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/log"
	"github.com/sandevgo/tuskctx/pkg/retry"
)

// NewProvider creates the LLMProvider selected by configuration.
func NewProvider(ctx context.Context, cfg *config.ProviderConfig) (core.LLMProvider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Str("model", cfg.GetModel()).
		Str("embedding_model", cfg.GetEmbeddingModel()).
		Msg("starting llm provider")

	rc := retry.NewDefaultConfig()
	rc.MaxRetries = max(0, cfg.MaxRetries)

	opts := Options{
		BaseURL:        cfg.GetBaseURL(),
		APIKey:         cfg.GetAPIKey(),
		Model:          cfg.GetModel(),
		EmbeddingModel: cfg.GetEmbeddingModel(),
		Timeout:        cfg.Timeout,
		Retrier:        retry.NewRetrier(rc),
	}

	switch cfg.GetProvider() {
	case config.ProviderMock:
		return NewMock(), nil
	case config.ProviderOpenAI:
		return NewOpenAI(opts), nil
	case config.ProviderOpenRouter:
		return NewOpenRouter(opts), nil
	case config.ProviderOllama:
		return NewOllama(opts), nil
	case config.ProviderDoubao:
		return NewDoubao(opts), nil
	case config.ProviderAnthropic:
		return NewAnthropic(opts.APIKey, opts.Model), nil
	case config.ProviderCustom:
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("custom provider requires AI_BASE_URL")
		}
		return NewCustomOpenAI(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
}
