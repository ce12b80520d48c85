package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskctx/internal/config"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.ProviderConfig
		wantName string
		wantErr  bool
	}{
		{name: "mock", cfg: config.ProviderConfig{Provider: config.ProviderMock}, wantName: "mock"},
		{name: "openai", cfg: config.ProviderConfig{Provider: config.ProviderOpenAI, OpenAIAPIKey: "k"}, wantName: "openai"},
		{name: "openrouter", cfg: config.ProviderConfig{Provider: config.ProviderOpenRouter}, wantName: "openrouter"},
		{name: "ollama", cfg: config.ProviderConfig{Provider: config.ProviderOllama, OllamaBaseURL: "http://localhost:11434"}, wantName: "ollama"},
		{name: "doubao", cfg: config.ProviderConfig{Provider: config.ProviderDoubao}, wantName: "doubao"},
		{name: "anthropic", cfg: config.ProviderConfig{Provider: config.ProviderAnthropic}, wantName: "anthropic"},
		{name: "custom", cfg: config.ProviderConfig{Provider: config.ProviderCustom, BaseURL: "http://gw.local"}, wantName: "custom"},
		{name: "custom without url", cfg: config.ProviderConfig{Provider: config.ProviderCustom}, wantErr: true},
		{name: "unknown", cfg: config.ProviderConfig{Provider: "acme"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(context.Background(), &tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}
