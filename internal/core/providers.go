package core

import "context"

type AIProvider interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// Embedder returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts ...string) ([][]float32, error)
}

type LLMProvider interface {
	AIProvider
	Embedder
	Name() string
}
