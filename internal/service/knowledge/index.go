// Package knowledge keeps reference snippets in memory and finds the ones
// that share terms with a question.
package knowledge

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/sandevgo/tuskctx/pkg/conv"
	"github.com/sandevgo/tuskctx/pkg/log"
)

type Snippet struct {
	ID     string `json:"id"`
	Source string `json:"source,omitempty"`
	Text   string `json:"text"`
}

type Hit struct {
	Snippet
	Score float64 `json:"score"`
}

type Index struct {
	mu       sync.RWMutex
	snippets []Snippet
	chunker  ChunkerConfig
}

func NewIndex() *Index {
	return &Index{chunker: DefaultChunkerConfig()}
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.snippets)
}

// Add chunks text and stores each chunk under id, or id#n when the text
// spans several chunks. It returns the number of snippets stored.
func (x *Index) Add(id, source, text string) int {
	chunks := ChunkText(text, x.chunker)
	if len(chunks) == 0 {
		return 0
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for _, c := range chunks {
		sid := id
		if len(chunks) > 1 {
			sid = fmt.Sprintf("%s#%d", id, c.Index+1)
		}
		x.snippets = append(x.snippets, Snippet{ID: sid, Source: source, Text: c.Text})
	}
	return len(chunks)
}

var knowledgeExts = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// LoadDir indexes every text and markdown file below dir. Unreadable files
// are logged and skipped.
func (x *Index) LoadDir(ctx context.Context, dir string) (int, error) {
	logger := log.FromCtx(ctx)
	total := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if d.IsDir() || !knowledgeExts[ext] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skip knowledge file")
			return nil
		}

		text := string(data)
		if ext != ".txt" {
			if text, err = conv.MarkdownToText(data); err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("skip knowledge file")
				return nil
			}
		}

		rel, _ := filepath.Rel(dir, path)
		total += x.Add(filepath.ToSlash(rel), path, text)
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("load knowledge dir: %w", err)
	}

	logger.Debug().Int("snippets", total).Str("dir", dir).Msg("knowledge loaded")
	return total, nil
}

// Search returns up to k snippets sharing terms with query, best first. A
// snippet containing the whole query scores 1.
func (x *Index) Search(query string, k int) []Hit {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || k <= 0 {
		return []Hit{}
	}
	terms := queryTerms(query)

	x.mu.RLock()
	hits := make([]Hit, 0)
	for _, s := range x.snippets {
		text := strings.ToLower(s.Text)
		score := 0.0
		if strings.Contains(text, query) {
			score = 1
		} else if len(terms) > 0 {
			matched := 0
			for _, t := range terms {
				if strings.Contains(text, t) {
					matched++
				}
			}
			score = float64(matched) / float64(len(terms))
		}
		if score > 0 {
			hits = append(hits, Hit{Snippet: s, Score: score})
		}
	}
	x.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// queryTerms splits on anything that is not a letter or digit. Latin words
// shorter than two runes are dropped; CJK runs become bigrams.
func queryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	words := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		var latin, cjk []rune
		flushLatin := func() {
			if len(latin) >= 2 {
				add(string(latin))
			}
			latin = latin[:0]
		}
		flushCJK := func() {
			switch {
			case len(cjk) == 1:
				add(string(cjk))
			case len(cjk) > 1:
				for i := 0; i+1 < len(cjk); i++ {
					add(string(cjk[i : i+2]))
				}
			}
			cjk = cjk[:0]
		}
		for _, r := range w {
			if isCJK(r) {
				flushLatin()
				cjk = append(cjk, r)
			} else {
				flushCJK()
				latin = append(latin, r)
			}
		}
		flushLatin()
		flushCJK()
	}
	return terms
}

// FormatHits renders hits as a numbered reference list for a prompt.
func FormatHits(hits []Hit) string {
	blocks := make([]string, len(hits))
	for i, h := range hits {
		blocks[i] = fmt.Sprintf("资料%d：%s", i+1, h.Text)
	}
	return strings.Join(blocks, "\n\n")
}
