// Package cached memoizes query embeddings.
package cached

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"lograg/internal/embedding"
	"lograg/internal/metrics"
)

// Embedder wraps another embedder with a fixed-size LRU cache keyed by text.
// Cached vectors are shared and must not be modified by callers.
type Embedder struct {
	next  embedding.Embedder
	cache *lru.Cache[string, []float64]
}

// New wraps next with a cache holding up to size vectors.
func New(next embedding.Embedder, size int) (*Embedder, error) {
	c, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Embedder{next: next, cache: c}, nil
}

func (e *Embedder) Name() string { return e.next.Name() }

func (e *Embedder) Dimension() int { return e.next.Dimension() }

// Embed returns the cached vector for text, computing it on a miss. Errors
// are not cached.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := e.cache.Get(text); ok {
		metrics.EmbeddingCacheLookups.WithLabelValues("hit").Inc()
		return v, nil
	}
	metrics.EmbeddingCacheLookups.WithLabelValues("miss").Inc()
	v, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(text, v)
	return v, nil
}

// Len returns the number of cached vectors.
func (e *Embedder) Len() int { return e.cache.Len() }
