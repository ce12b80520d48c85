package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/retry"
)

func fastRetrier(n int) *retry.Retrier {
	return retry.NewRetrier(&retry.Config{MaxRetries: n, BackoffFactor: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond})
}

func TestOpenAICompatible_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string        `json:"model"`
			Messages []chatMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, core.RoleSystem, body.Messages[0].Role)
		assert.Equal(t, "hello", body.Messages[1].Content)

		_, _ = w.Write([]byte(`{"model":"gpt-test","choices":[{"message":{"content":" hi there "},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2}}`))
	}))
	defer srv.Close()

	p := NewOpenAI(Options{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-test"})
	resp, err := p.Chat(context.Background(), core.ChatRequest{Prompt: "hello", SystemPrompt: "be brief"})
	require.NoError(t, err)

	assert.Equal(t, "hi there", resp.Text)
	assert.Equal(t, "openai", resp.Metadata["provider"])
	assert.Equal(t, "3", resp.Metadata["prompt_tokens"])
}

func TestOpenAICompatible_ChatContentParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":[{"type":"text","text":"图片"},{"type":"text","text":"描述"}]}}]}`))
	}))
	defer srv.Close()

	p := NewDoubao(Options{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	resp, err := p.Chat(context.Background(), core.ChatRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "图片描述", resp.Text)
}

func TestOpenAICompatible_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI(Options{BaseURL: srv.URL, Model: "m", Retrier: fastRetrier(3)})
	resp, err := p.Chat(context.Background(), core.ChatRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAICompatible_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	p := NewOpenAI(Options{BaseURL: srv.URL, Model: "m", Retrier: fastRetrier(3)})
	_, err := p.Chat(context.Background(), core.ChatRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAICompatible_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(Options{BaseURL: srv.URL, Model: "m"}).Chat(context.Background(), core.ChatRequest{Prompt: "x"})
	assert.Error(t, err)
}

func TestOpenAICompatible_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "embed-model", body.Model)
		assert.Equal(t, []string{"a", "b"}, body.Input)

		// Out of order on purpose.
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	p := NewCustomOpenAI(Options{BaseURL: srv.URL + "/v1", Model: "m", EmbeddingModel: "embed-model"})
	vecs, err := p.Embed(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestOpenAICompatible_EmbedUnsupported(t *testing.T) {
	p := NewOpenAI(Options{Model: "m"})
	_, err := p.Embed(context.Background(), "a")
	assert.ErrorIs(t, err, ErrEmbeddingUnsupported)
}

func TestSplitVersion(t *testing.T) {
	tests := []struct {
		base       string
		wantBase   string
		wantPrefix string
	}{
		{"https://api.openai.com", "https://api.openai.com", "/v1"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1", ""},
		{"https://ark.example.com/api/v3", "https://ark.example.com/api/v3", ""},
		{" http://localhost:11434 ", "http://localhost:11434", "/v1"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			base, prefix := splitVersion(tt.base, "/v1")
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantPrefix, prefix)
		})
	}
}
