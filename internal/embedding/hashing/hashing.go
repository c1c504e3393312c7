package hashing

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/zeebo/xxh3"

	"lograg/internal/embedding"
)

// DefaultDimension matches the output size of common sentence-embedding
// models so vector files stay interchangeable in size.
const DefaultDimension = 384

const trigramWeight = 0.5

// Embedder maps text to a fixed-size vector by hashing word and character
// trigram features into buckets. It needs no corpus preparation and no
// network, so identical text always yields an identical vector.
type Embedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEmbedder creates a hashing embedder. dimension <= 0 selects
// DefaultDimension.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}_]+`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hashing" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the hashed feature vector for text. All weights are
// non-negative, so cosine similarity between two outputs is in [0, 1].
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimension)
	counts := make(map[uint64]float64)
	for _, tok := range e.tokenize(text) {
		counts[xxh3.HashString("w:"+tok)]++
		for _, g := range trigrams(tok) {
			counts[xxh3.HashString("c:"+g)] += trigramWeight
		}
	}
	if len(counts) == 0 {
		return vec, nil
	}
	for h, c := range counts {
		// sublinear term frequency
		vec[h%uint64(e.dimension)] += 1 + math.Log(c)
	}
	return embedding.Normalize(vec), nil
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(text, -1)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		for _, part := range splitCamel(t) {
			lower := strings.ToLower(part)
			if _, isStop := e.stopwords[lower]; isStop {
				continue
			}
			out = append(out, lower)
		}
	}
	return out
}

// splitCamel returns the word itself followed by its camel-case parts, so
// "TimeoutException" also contributes "Timeout" and "Exception".
func splitCamel(word string) []string {
	runes := []rune(word)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	if start == 0 {
		return []string{word}
	}
	parts = append(parts, string(runes[start:]))
	return append([]string{word}, parts...)
}

// trigrams returns the character trigrams of tok with boundary markers.
func trigrams(tok string) []string {
	runes := []rune("<" + tok + ">")
	if len(runes) < 3 {
		return nil
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
