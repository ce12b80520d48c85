package llm

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/sandevgo/tuskctx/internal/core"
)

const mockDimensions = 256

// Mock is an offline provider. Chat echoes the tail of the prompt; Embed
// hashes word and character features into a fixed-size vector, so texts that
// share words land close together.
type Mock struct{}

var _ core.LLMProvider = Mock{}

func NewMock() Mock {
	return Mock{}
}

func (Mock) Name() string {
	return "mock"
}

func (Mock) Chat(ctx context.Context, req core.ChatRequest) (core.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return core.ChatResponse{}, err
	}
	question := req.Prompt
	if i := strings.LastIndex(question, "用户当前问题："); i >= 0 {
		question = strings.TrimSpace(question[i+len("用户当前问题："):])
	}
	runes := []rune(question)
	if len(runes) > 200 {
		runes = runes[len(runes)-200:]
	}
	return core.ChatResponse{
		Text:     "（模拟回答）" + string(runes),
		Metadata: map[string]string{"provider": "mock"},
	}, nil
}

func (Mock) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashEmbedding(t)
	}
	return out, nil
}

func hashEmbedding(text string) []float32 {
	vec := make([]float64, mockDimensions)
	add := func(feature string) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(feature))
		sum := h.Sum32()
		sign := 1.0
		if sum&1 == 1 {
			sign = -1.0
		}
		vec[int(sum>>1)%mockDimensions] += sign
	}

	lower := strings.ToLower(text)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		add("w:" + w)
	}
	for _, r := range lower {
		if unicode.Is(unicode.Han, r) {
			add("c:" + string(r))
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	res := make([]float32, mockDimensions)
	if norm == 0 {
		return res
	}
	for i, v := range vec {
		res[i] = float32(v / norm)
	}
	return res
}
