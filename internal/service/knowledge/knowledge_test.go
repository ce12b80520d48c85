package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskctx/pkg/tokens"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		cfg      ChunkerConfig
		expected []string
	}{
		{name: "empty input", text: "", cfg: DefaultChunkerConfig(), expected: nil},
		{name: "whitespace only", text: "   \n\t   ", cfg: DefaultChunkerConfig(), expected: nil},
		{
			name:     "sentences fit in one chunk",
			text:     "Hello world. How are you?",
			cfg:      ChunkerConfig{MaxTokens: 50},
			expected: []string{"Hello world. How are you?"},
		},
		{
			name:     "paragraphs joined",
			text:     "Para one.\n\nPara two.",
			cfg:      ChunkerConfig{MaxTokens: 50},
			expected: []string{"Para one. Para two."},
		},
		{
			name:     "cjk sentences joined without spaces",
			text:     "你好世界。这是一个测试。",
			cfg:      ChunkerConfig{MaxTokens: 50},
			expected: []string{"你好世界。这是一个测试。"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ChunkText(tt.text, tt.cfg)
			var got []string
			for _, c := range chunks {
				got = append(got, c.Text)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestChunkText_RespectsBudget(t *testing.T) {
	text := strings.Repeat("This sentence is about memory. ", 40) + strings.Repeat("字", 500)
	cfg := ChunkerConfig{MaxTokens: 30, OverlapTokens: 5}

	chunks := ChunkText(text, cfg)
	require.Greater(t, len(chunks), 2)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.NotEmpty(t, c.Text)
		// Overlap may push a chunk past the budget by at most one sentence.
		assert.LessOrEqual(t, tokens.Count(c.Text), cfg.MaxTokens+cfg.OverlapTokens+10)
	}
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t,
		[]string{"Hello world.", "How are you?", "I am fine."},
		splitSentences("Hello world. How are you? I am fine."))
	assert.Equal(t,
		[]string{"第一句。", "第二句！", "第三句"},
		splitSentences("第一句。第二句！第三句"))
}

func TestQueryTerms(t *testing.T) {
	assert.Equal(t, []string{"go", "语言", "并发"}, queryTerms("go 语言, 并发 a"))
	assert.Equal(t, []string{"西湖", "湖龙", "龙井"}, queryTerms("西湖龙井"))
}

func TestIndex_Search(t *testing.T) {
	x := NewIndex()
	x.Add("tea", "", "西湖龙井是一种绿茶，产于杭州。")
	x.Add("cat", "", "橘猫通常性格温顺。")
	x.Add("go", "", "Go has goroutines and channels for concurrency.")

	hits := x.Search("西湖龙井", 3)
	require.Len(t, hits, 1)
	assert.Equal(t, "tea", hits[0].ID)
	assert.Equal(t, 1.0, hits[0].Score)

	hits = x.Search("Goroutines CHANNELS", 3)
	require.Len(t, hits, 1)
	assert.Equal(t, "go", hits[0].ID)

	assert.Empty(t, x.Search("量子力学", 3))
	assert.Empty(t, x.Search("", 3))
	assert.Empty(t, x.Search("猫", 0))
}

func TestIndex_SearchOrdersByScore(t *testing.T) {
	x := NewIndex()
	x.Add("partial", "", "apples are tasty")
	x.Add("full", "", "red apples and green pears")

	hits := x.Search("red apples", 5)
	require.Len(t, hits, 2)
	assert.Equal(t, "full", hits[0].ID)
	assert.Equal(t, "partial", hits[1].ID)
	assert.Less(t, hits[1].Score, hits[0].Score)
}

func TestIndex_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("退货政策：七天无理由退货。"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.md"), []byte("# 配送\n\n全国包邮，三天送达。"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.bin"), []byte("ignored"), 0o644))

	x := NewIndex()
	n, err := x.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, x.Len())

	hits := x.Search("包邮", 3)
	require.Len(t, hits, 1)
	assert.Equal(t, "sub/b.md", hits[0].ID)
	assert.NotContains(t, hits[0].Text, "#")

	_, err = x.LoadDir(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFormatHits(t *testing.T) {
	out := FormatHits([]Hit{{Snippet: Snippet{Text: "一"}}, {Snippet: Snippet{Text: "二"}}})
	assert.Equal(t, "资料1：一\n\n资料2：二", out)
	assert.Empty(t, FormatHits(nil))
}
