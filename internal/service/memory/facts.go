package memory

import (
	"math"
	"sort"
	"strings"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/tokens"
)

// factCandidate returns the trimmed user message when it is at least
// minLength runes long and is not a question.
func factCandidate(userMessage string, minLength int) (string, bool) {
	text := strings.TrimSpace(userMessage)
	if text == "" || tokens.RuneLen(text) < minLength {
		return "", false
	}
	if strings.HasSuffix(text, "?") || strings.HasSuffix(text, "？") {
		return "", false
	}
	return text, true
}

// cosineSimilarity returns 0 for mismatched or zero-length vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type scoredFact struct {
	fact  core.Fact
	order int
	score float64
}

// rankFacts returns up to k fact texts most similar to query. Ties go to the
// newest fact. Identical texts are returned once.
func rankFacts(facts []core.Fact, query []float32, k int, minSimilarity float64) []string {
	scored := make([]scoredFact, 0, len(facts))
	for i, f := range facts {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		score := cosineSimilarity(query, f.Embedding)
		if minSimilarity != 0 && score < minSimilarity {
			continue
		}
		scored = append(scored, scoredFact{fact: f, order: i, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.fact.CreatedAt.Equal(b.fact.CreatedAt) {
			return a.fact.CreatedAt.After(b.fact.CreatedAt)
		}
		return a.order > b.order
	})

	seen := make(map[string]struct{}, len(scored))
	out := make([]string, 0, min(k, len(scored)))
	for _, s := range scored {
		if len(out) == k {
			break
		}
		if _, dup := seen[s.fact.Text]; dup {
			continue
		}
		seen[s.fact.Text] = struct{}{}
		out = append(out, s.fact.Text)
	}
	return out
}

func trimHistory(history []core.Message, limit int) []core.Message {
	if len(history) <= limit {
		return history
	}
	return append([]core.Message(nil), history[len(history)-limit:]...)
}

func trimFacts(facts []core.Fact, limit int) []core.Fact {
	if len(facts) <= limit {
		return facts
	}
	return append([]core.Fact(nil), facts[len(facts)-limit:]...)
}
