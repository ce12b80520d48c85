package knowledge

import (
	"strings"
	"unicode"

	"github.com/sandevgo/tuskctx/pkg/tokens"
)

type Chunk struct {
	Text      string
	TokenSize int
	Index     int
}

type ChunkerConfig struct {
	MaxTokens     int
	OverlapTokens int
}

// DefaultChunkerConfig keeps snippets small enough that a handful of them fit
// in a prompt next to the memory sections.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxTokens:     300,
		OverlapTokens: 40,
	}
}

func ChunkText(text string, cfg ChunkerConfig) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)

	var chunks []Chunk
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Text:      strings.TrimSpace(current.String()),
			TokenSize: currentTokens,
			Index:     len(chunks),
		})
		current.Reset()
		currentTokens = 0
	}

	for i, sentence := range sentences {
		sentenceTokens := tokens.Count(sentence)

		// A sentence larger than the budget is cut on token boundaries.
		if sentenceTokens > cfg.MaxTokens {
			flush()
			for _, part := range splitLong(sentence, cfg.MaxTokens) {
				chunks = append(chunks, Chunk{
					Text:      strings.TrimSpace(part),
					TokenSize: tokens.Count(part),
					Index:     len(chunks),
				})
			}
			continue
		}

		if currentTokens+sentenceTokens > cfg.MaxTokens && current.Len() > 0 {
			flush()
			overlap := overlapBefore(sentences, i, cfg.OverlapTokens)
			current.WriteString(overlap)
			currentTokens = tokens.Count(overlap)
		}

		if current.Len() > 0 {
			current.WriteString(separator(current.String(), sentence))
		}
		current.WriteString(sentence)
		currentTokens += sentenceTokens
	}
	flush()

	return chunks
}

func splitLong(text string, maxTokens int) []string {
	var parts []string
	for text != "" {
		head := tokens.TruncateHead(text, maxTokens)
		if head == "" {
			// A single rune above the budget still has to go somewhere.
			r := []rune(text)
			head = string(r[:1])
		}
		parts = append(parts, head)
		text = text[len(head):]
	}
	return parts
}

var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true, '．': true, '…': true, '；': true,
}

func splitSentences(text string) []string {
	var sentences []string
	for _, para := range splitParagraphs(text) {
		var current strings.Builder
		runes := []rune(para)

		for i, r := range runes {
			current.WriteRune(r)
			if !sentenceEnders[r] {
				continue
			}
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) || isCJK(runes[i+1]) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}

		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 && text != "" {
		return []string{text}
	}
	return sentences
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		// Single newlines inside a paragraph are soft wraps.
		p = strings.TrimSpace(strings.ReplaceAll(p, "\n", " "))
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func overlapBefore(sentences []string, idx, target int) string {
	if idx == 0 || target <= 0 {
		return ""
	}

	var overlap []string
	count := 0
	for i := idx - 1; i >= 0 && count < target; i-- {
		overlap = append([]string{sentences[i]}, overlap...)
		count += tokens.Count(sentences[i])
	}

	var sb strings.Builder
	for _, s := range overlap {
		if sb.Len() > 0 {
			sb.WriteString(separator(sb.String(), s))
		}
		sb.WriteString(s)
	}
	return sb.String()
}

// separator joins CJK sentences without a space.
func separator(prev, next string) string {
	last, _ := lastRune(prev)
	first := []rune(next)
	if isCJK(last) || isCJKPunct(last) || (len(first) > 0 && isCJK(first[0])) {
		return ""
	}
	return " "
}

func lastRune(s string) (rune, bool) {
	r := []rune(s)
	if len(r) == 0 {
		return 0, false
	}
	return r[len(r)-1], true
}

func isCJKPunct(r rune) bool {
	return strings.ContainsRune("。！？．…；，：", r)
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
