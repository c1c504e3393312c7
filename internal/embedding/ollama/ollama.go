package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/ollama/ollama/api"

	"lograg/internal/embedding"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "all-minilm"
)

// Config configures the Ollama embedder.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Embedder computes embeddings with a model served by Ollama.
type Embedder struct {
	client    *api.Client
	model     string
	dimension atomic.Int64
}

// NewEmbedder creates an embedder for the Ollama instance at cfg.BaseURL.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url: %w", err)
	}
	return &Embedder{
		client: api.NewClient(u, &http.Client{Timeout: cfg.Timeout}),
		model:  cfg.Model,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "ollama" }

// Dimension returns the dimensionality of the produced embedding vectors,
// known after the first successful call.
func (e *Embedder) Dimension() int { return int(e.dimension.Load()) }

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, embedding.ErrEmptyEmbedding
	}
	src := resp.Embeddings[0]
	vec := make([]float64, len(src))
	for i, x := range src {
		vec[i] = float64(x)
	}
	e.dimension.CompareAndSwap(0, int64(len(vec)))
	return vec, nil
}
