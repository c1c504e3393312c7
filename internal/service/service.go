package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"lograg/internal/domain"
	"lograg/internal/metrics"
	"lograg/internal/prompt"
)

// DefaultTopK is the number of similar logs retrieved per query.
const DefaultTopK = 3

const (
	ReasonNoResults      = "no similar logs found"
	ReasonLLMUnavailable = "LLM backend unavailable"
	ReasonLLMEmpty       = "malformed LLM response: empty response"
)

// ErrEmptyQuery rejects a request before any retrieval work.
var ErrEmptyQuery = errors.New("query must not be empty")

// RetrievalError means the query could not be embedded or ranked, so not
// even the historical logs can be returned.
type RetrievalError struct {
	Stage string
	Err   error
}

func (e *RetrievalError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *RetrievalError) Unwrap() error { return e.Err }

// Health is a point-in-time view of the service's dependencies.
type Health struct {
	Status        string `json:"status"`
	VectorsLoaded int    `json:"vectors_loaded"`
	LLMAvailable  bool   `json:"llm_available"`
}

// Service composes retrieval, sanitization, prompt building and generation.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	embedder  domain.Embedder
	store     domain.VectorStore
	sanitizer domain.Sanitizer
	llm       domain.Generator
	topK      int
	logger    *zap.Logger
}

// New wires a service. topK < 1 selects DefaultTopK.
func New(embedder domain.Embedder, store domain.VectorStore, sanitizer domain.Sanitizer, llm domain.Generator, topK int, logger *zap.Logger) *Service {
	if topK < 1 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embedder:  embedder,
		store:     store,
		sanitizer: sanitizer,
		llm:       llm,
		topK:      topK,
		logger:    logger.Named("service"),
	}
}

// TopK returns the configured result count.
func (s *Service) TopK() int { return s.topK }

// Search returns up to TopK stored logs most similar to query.
func (s *Service) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Stage: "embed query", Err: err}
	}
	res, err := s.store.Search(vec, s.topK)
	if err != nil {
		return nil, &RetrievalError{Stage: "search store", Err: err}
	}
	return res, nil
}

// Explain retrieves similar logs and asks the model for root cause, impact
// and fix. LLM problems are reported in the response, never as an error;
// the similar logs are attached in every outcome that has them.
func (s *Service) Explain(ctx context.Context, query string) (*domain.ExplainResponse, error) {
	results, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		metrics.ExplainTotal.WithLabelValues("no_results").Inc()
		return &domain.ExplainResponse{Reason: ReasonNoResults, Results: []domain.SearchResult{}}, nil
	}

	entries := make([]prompt.Entry, 0, len(results))
	for _, r := range results {
		entries = append(entries, prompt.Entry{
			Service: s.sanitize(r.Record.Field("service")),
			Level:   s.sanitize(r.Record.Field("level")),
			Message: s.sanitize(r.Record.Field("message")),
		})
	}
	p := prompt.Build(s.sanitize(query), entries)

	if !s.llm.Available(ctx) {
		metrics.ExplainTotal.WithLabelValues("llm_unavailable").Inc()
		return &domain.ExplainResponse{Reason: ReasonLLMUnavailable, Results: results}, nil
	}

	text, err := s.llm.Generate(ctx, p)
	if err != nil {
		metrics.ExplainTotal.WithLabelValues("llm_failed").Inc()
		s.logger.Warn("explanation unavailable", zap.Error(err))
		return &domain.ExplainResponse{Reason: err.Error(), Results: results}, nil
	}

	explanation := strings.TrimSpace(text)
	if explanation == "" {
		metrics.ExplainTotal.WithLabelValues("llm_failed").Inc()
		s.logger.Warn("explanation unavailable", zap.String("reason", ReasonLLMEmpty))
		return &domain.ExplainResponse{Reason: ReasonLLMEmpty, Results: results}, nil
	}

	metrics.ExplainTotal.WithLabelValues("explained").Inc()
	return &domain.ExplainResponse{Available: true, Explanation: explanation, Results: results}, nil
}

// Health reports the store size and re-probes the LLM backend.
func (s *Service) Health(ctx context.Context) Health {
	return Health{
		Status:        "ok",
		VectorsLoaded: s.store.Len(),
		LLMAvailable:  s.llm.Available(ctx),
	}
}

func (s *Service) sanitize(text string) string {
	out := s.sanitizer.Sanitize(text)
	if out != text {
		metrics.SanitizedFieldsTotal.Inc()
	}
	return out
}
