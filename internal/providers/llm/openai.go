package llm

import (
	"regexp"
	"strings"
	"time"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/retry"
)

type Options struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	Timeout        time.Duration
	Retrier        *retry.Retrier
}

func bearer(name, baseURL, prefix string, opts Options, extra map[string]string) *OpenAICompatible {
	return NewOpenAICompatible(OpenAICompatibleConfig{
		Name:           name,
		BaseURL:        baseURL,
		PathPrefix:     prefix,
		APIKey:         opts.APIKey,
		Model:          opts.Model,
		EmbeddingModel: opts.EmbeddingModel,
		AuthHeader:     "Authorization",
		AuthPrefix:     "Bearer ",
		ExtraHeaders:   extra,
		Timeout:        opts.Timeout,
		Retrier:        opts.Retrier,
	})
}

func NewOpenAI(opts Options) *OpenAICompatible {
	base := opts.BaseURL
	if base == "" {
		base = "https://api.openai.com"
	}
	base, prefix := splitVersion(base, "/v1")
	return bearer("openai", base, prefix, opts, nil)
}

func NewOpenRouter(opts Options) *OpenAICompatible {
	return bearer("openrouter", "https://openrouter.ai/api", "/v1", opts, map[string]string{
		"HTTP-Referer": core.TuskRepositoryURL,
		"X-Title":      core.TuskName,
	})
}

func NewOllama(opts Options) *OpenAICompatible {
	base := opts.BaseURL
	if base == "" {
		base = "http://localhost:11434"
	}
	base, prefix := splitVersion(base, "/v1")
	return bearer("ollama", base, prefix, opts, nil)
}

// NewDoubao targets Volcengine Ark, whose base URL already ends in /api/v3.
func NewDoubao(opts Options) *OpenAICompatible {
	base := opts.BaseURL
	if base == "" {
		base = "https://ark.cn-beijing.volces.com/api/v3"
	}
	return bearer("doubao", strings.TrimRight(base, "/"), "", opts, nil)
}

func NewCustomOpenAI(opts Options) *OpenAICompatible {
	base, prefix := splitVersion(opts.BaseURL, "/v1")
	return bearer("custom", base, prefix, opts, nil)
}

var versionSuffix = regexp.MustCompile(`/v\d+$`)

// splitVersion keeps a version segment already present in base and otherwise
// appends def.
func splitVersion(base, def string) (string, string) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if versionSuffix.MatchString(base) {
		return base, ""
	}
	return base, def
}
