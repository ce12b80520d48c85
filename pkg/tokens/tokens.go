package tokens

import (
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

func tokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		tiktoken.SetBpeLoader(newBpeLoader())
		tk, tkErr = tiktoken.GetEncoding("cl100k_base")
	})
	if tkErr != nil {
		return nil
	}
	return tk
}

// Warm loads the encoding ahead of the first Count. It reports whether the
// exact tokenizer is available; Count falls back to an estimate otherwise.
func Warm() bool {
	return tokenizer() != nil
}

// Count returns the cl100k token count of text. When the encoding cannot be
// loaded (offline, no cache) it falls back to an estimate: one token per CJK
// rune and one per four other runes.
func Count(text string) int {
	if text == "" {
		return 0
	}
	if enc := tokenizer(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return estimate(text)
}

func estimate(text string) int {
	cjk, other := 0, 0
	for _, r := range text {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			cjk++
		} else {
			other++
		}
	}
	return cjk + (other+3)/4
}

// TruncateTail keeps the last part of text that fits within limit tokens.
func TruncateTail(text string, limit int) string {
	if limit <= 0 || Count(text) <= limit {
		return text
	}
	// Binary search on the rune offset.
	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi) / 2
		if Count(string(runes[mid:])) <= limit {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return string(runes[lo:])
}

// RuneLen is a convenience for user-facing length checks.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// TruncateHead keeps the first part of text that fits within limit tokens.
func TruncateHead(text string, limit int) string {
	if limit <= 0 || Count(text) <= limit {
		return text
	}
	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if Count(string(runes[:mid])) <= limit {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:lo])
}
