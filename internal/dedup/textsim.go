package dedup

import (
	"crypto/md5" //nolint:gosec // content fingerprinting, not security
	"encoding/hex"
	"math"
	"strings"
	"unicode"
)

// Text normalization and similarity primitives. The quality scorer reuses
// CosineSimilarity to compute uniqueness of a rewrite against its original.

// defaultStopWords covers the function words that dominate both Russian
// and English news prose and carry no signal for duplicate detection.
var defaultStopWords = map[string]struct{}{}

func init() {
	words := []string{
		"в", "на", "с", "по", "для", "от", "до", "из", "к", "и", "или", "но",
		"что", "как", "где", "когда", "почему", "который", "которая", "которое",
		"это", "его", "ее", "их", "был", "была", "было", "были", "есть",
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
		"of", "is", "are", "was", "were", "be", "has", "have", "had", "with",
		"that", "this", "it", "as", "by", "from",
	}
	for _, w := range words {
		defaultStopWords[w] = struct{}{}
	}
}

// NormalizeText lowercases, strips punctuation, and removes stop words and
// short tokens so that superficial edits hash and compare identically.
func NormalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, word := range fields {
		if _, stop := defaultStopWords[word]; stop {
			continue
		}
		if len([]rune(word)) <= 2 {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// ContentHash fingerprints normalized content for the exact-duplicate index.
func ContentHash(text string) string {
	sum := md5.Sum([]byte(NormalizeText(text))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// termFrequencies builds a term-frequency vector over normalized text.
func termFrequencies(text string) map[string]float64 {
	freqs := make(map[string]float64)
	for _, word := range strings.Fields(NormalizeText(text)) {
		freqs[word]++
	}
	return freqs
}

// CosineSimilarity computes the cosine of the term-frequency vectors of
// two texts, in [0, 1]. Empty texts yield 0.
func CosineSimilarity(a, b string) float64 {
	fa := termFrequencies(a)
	fb := termFrequencies(b)
	if len(fa) == 0 || len(fb) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for term, wa := range fa {
		normA += wa * wa
		if wb, ok := fb[term]; ok {
			dot += wa * wb
		}
	}
	for _, wb := range fb {
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// JaccardWords computes word-set overlap of two texts after normalization.
func JaccardWords(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(NormalizeText(text)) {
		set[word] = struct{}{}
	}
	return set
}
