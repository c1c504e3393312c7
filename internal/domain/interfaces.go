package domain

import (
	"context"
	"fmt"
	"strings"
)

// LogRecord is the metadata of a single historical log event: timestamp,
// source, service, component, layer, level, message, stack, host and tags.
// Records are loaded once and never mutated.
type LogRecord map[string]any

// Field returns the attribute under key rendered as a string. Missing keys
// yield "".
func (r LogRecord) Field(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, " ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(t)
	}
}

// Tags returns the ordered tag list of the record.
func (r LogRecord) Tags() []string {
	switch t := r["tags"].(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, p := range t {
			out = append(out, fmt.Sprint(p))
		}
		return out
	}
	return nil
}

// IndexedVector pairs an embedding with the record it was computed from.
type IndexedVector struct {
	ID     string
	Vector []float64
	Record LogRecord
}

// SearchResult is a read view of a stored record with its similarity score.
type SearchResult struct {
	Score  float64   `json:"score"`
	Record LogRecord `json:"metadata"`
}

// ExplainResponse is the outcome of an explain request. When Available is
// false, Reason says why and Explanation is empty.
type ExplainResponse struct {
	Available   bool           `json:"llm_available"`
	Explanation string         `json:"llm_explanation,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Results     []SearchResult `json:"similar_logs"`
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// VectorStore ranks stored vectors against a query vector.
type VectorStore interface {
	Search(query []float64, k int) ([]SearchResult, error)
	Len() int
	Dimension() int
}

// Generator is a text-generation backend.
type Generator interface {
	// Available reports whether the backend is reachable and serves the
	// configured model. It never fails.
	Available(ctx context.Context) bool
	// Generate returns the generated text, or a non-nil error describing
	// why generation failed.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Sanitizer neutralizes prompt-injection phrases in untrusted text.
type Sanitizer interface {
	Sanitize(text string) string
}
