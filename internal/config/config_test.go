package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemoryConfig_Defaults(t *testing.T) {
	c, err := ParseMemoryConfig()
	require.NoError(t, err)

	assert.Equal(t, 8, c.MaxHistoryMessages)
	assert.Equal(t, 40, c.MaxStoredVectors)
	assert.Equal(t, 3, c.VectorSimilarityK)
	assert.Equal(t, 6, c.SummaryInterval)
	assert.Equal(t, 16, c.MinFactLength)
	assert.Equal(t, StoreDriverFile, c.StoreDriver)
	assert.Equal(t, 30*time.Second, c.ProviderTimeout)
	assert.Equal(t, filepath.Join("/data", "memory"), c.GetStoreDir("/data"))
}

func TestParseMemoryConfig_Env(t *testing.T) {
	t.Setenv("MEMORY_MAX_HISTORY", "4")
	t.Setenv("MEMORY_VECTOR_K", "5")
	t.Setenv("MEMORY_STORE_DIR", "/var/lib/memory")
	t.Setenv("MEMORY_PROVIDER_TIMEOUT", "5s")

	c, err := ParseMemoryConfig()
	require.NoError(t, err)

	assert.Equal(t, 4, c.MaxHistoryMessages)
	assert.Equal(t, 5, c.VectorSimilarityK)
	assert.Equal(t, "/var/lib/memory", c.GetStoreDir("/data"))
	assert.Equal(t, 5*time.Second, c.ProviderTimeout)
}

func TestParseMemoryConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"history too small", "MEMORY_MAX_HISTORY", "1"},
		{"zero k", "MEMORY_VECTOR_K", "0"},
		{"zero interval", "MEMORY_SUMMARY_INTERVAL", "0"},
		{"unknown driver", "MEMORY_STORE_DRIVER", "redis"},
		{"not a number", "MEMORY_VECTOR_LIMIT", "many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := ParseMemoryConfig()
			assert.Error(t, err)
		})
	}
}

func TestProviderConfig_Resolution(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ProviderConfig
		wantKey   string
		wantModel string
		wantEmbed string
	}{
		{
			name:      "openai uses provider key",
			cfg:       ProviderConfig{Provider: ProviderOpenAI, OpenAIAPIKey: "sk-openai"},
			wantKey:   "sk-openai",
			wantModel: "gpt-4o-mini",
			wantEmbed: "text-embedding-3-small",
		},
		{
			name:      "generic key wins",
			cfg:       ProviderConfig{Provider: ProviderDoubao, APIKey: "generic", DoubaoAPIKey: "doubao", Model: "custom-model"},
			wantKey:   "generic",
			wantModel: "custom-model",
			wantEmbed: "doubao-embedding-v1",
		},
		{
			name:      "anthropic has no embedding model",
			cfg:       ProviderConfig{Provider: ProviderAnthropic, AnthropicAPIKey: "ak"},
			wantKey:   "ak",
			wantModel: "claude-3-5-haiku-latest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKey, tt.cfg.GetAPIKey())
			assert.Equal(t, tt.wantModel, tt.cfg.GetModel())
			assert.Equal(t, tt.wantEmbed, tt.cfg.GetEmbeddingModel())
		})
	}
}

func TestParseDocumentConfig_ClampsCaps(t *testing.T) {
	t.Setenv("DOCUMENT_PARSE_MAX_SHEETS", "0")
	t.Setenv("DOCUMENT_PARSE_MAX_ROWS", "-3")

	c, err := ParseDocumentConfig()
	require.NoError(t, err)

	assert.Equal(t, 1, c.MaxSheets)
	assert.Equal(t, 1, c.MaxRows)
	assert.Equal(t, 12, c.MaxColumns)
	assert.Equal(t, 6000, c.MaxChars)
}

func TestGetHomePath(t *testing.T) {
	t.Setenv("TUSKCTX_HOME", "/opt/tuskctx")
	assert.Equal(t, "/opt/tuskctx", GetHomePath())
}

func TestParseAppConfig(t *testing.T) {
	t.Setenv("TUSKCTX_HOME", "/srv/tuskctx")
	t.Setenv("KNOWLEDGE_URLS", "https://a.example/faq,https://b.example/terms")
	t.Setenv("ATTACHMENT_CONCURRENCY", "0")

	c, err := ParseAppConfig()
	require.NoError(t, err)

	assert.Equal(t, "/srv/tuskctx", c.HomePath)
	assert.Equal(t, filepath.Join("/srv/tuskctx", "uploads"), c.GetUploadDir())
	assert.Equal(t, filepath.Join("/srv/tuskctx", "uploads.db"), c.GetUploadDBPath())
	assert.Equal(t, "/uploads/", c.PublicPrefix)
	assert.Equal(t, []string{"https://a.example/faq", "https://b.example/terms"}, c.KnowledgeURLs)
	assert.Equal(t, 15*time.Second, c.KnowledgeFetchTimeout)
	assert.Equal(t, 1, c.AttachmentConcurrency)
}
