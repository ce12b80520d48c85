package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskctx/internal/core"
)

type fakeTransport struct {
	status   int
	body     string
	captured []byte
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		f.captured, _ = io.ReadAll(req.Body)
	}
	resp := &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(bytes.NewBufferString(f.body)),
		Header:     make(http.Header),
		Request:    req,
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func TestAnthropic_Chat(t *testing.T) {
	rt := &fakeTransport{
		status: 200,
		body: `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"你好"},{"type":"text","text":"！"}],
			"stop_reason":"end_turn","usage":{"input_tokens":5,"output_tokens":2}}`,
	}
	p := NewAnthropic("test-key", "claude-test",
		option.WithHTTPClient(&http.Client{Transport: rt}),
		option.WithMaxRetries(0),
	)

	resp, err := p.Chat(context.Background(), core.ChatRequest{Prompt: "hi", SystemPrompt: "sys"})
	require.NoError(t, err)
	assert.Equal(t, "你好！", resp.Text)
	assert.Equal(t, "end_turn", resp.Metadata["stop_reason"])
	assert.Equal(t, "5", resp.Metadata["input_tokens"])

	var sent struct {
		Model  string `json:"model"`
		System []struct {
			Text string `json:"text"`
		} `json:"system"`
	}
	require.NoError(t, json.Unmarshal(rt.captured, &sent))
	assert.Equal(t, "claude-test", sent.Model)
	require.Len(t, sent.System, 1)
	assert.Equal(t, "sys", sent.System[0].Text)
}

func TestAnthropic_ChatError(t *testing.T) {
	rt := &fakeTransport{status: 400, body: `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`}
	p := NewAnthropic("k", "m", option.WithHTTPClient(&http.Client{Transport: rt}), option.WithMaxRetries(0))

	_, err := p.Chat(context.Background(), core.ChatRequest{Prompt: "hi"})
	assert.Error(t, err)
}

func TestAnthropic_EmbedUnsupported(t *testing.T) {
	_, err := NewAnthropic("k", "m").Embed(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmbeddingUnsupported)
}
