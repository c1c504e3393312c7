package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP API
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lograg_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lograg_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"route"},
	)

	// Retrieval
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lograg_search_duration_seconds",
			Help:    "Embedding plus similarity ranking duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
	)

	VectorsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lograg_vectors_loaded",
			Help: "Number of vectors in the active store",
		},
	)

	EmbeddingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lograg_embedding_cache_lookups_total",
			Help: "Query embedding cache lookups",
		},
		[]string{"result"}, // hit/miss
	)

	// Explain outcomes
	ExplainTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lograg_explain_total",
			Help: "Explain requests by outcome",
		},
		[]string{"outcome"}, // explained/no_results/llm_unavailable/llm_failed
	)

	// LLM backend
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lograg_llm_requests_total",
			Help: "Total number of LLM generation requests",
		},
		[]string{"model", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lograg_llm_request_duration_seconds",
			Help:    "LLM generation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5min
		},
		[]string{"model"},
	)

	LLMProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lograg_llm_probes_total",
			Help: "LLM liveness probes by result",
		},
		[]string{"result"}, // available/unavailable
	)

	// Prompt safety
	SanitizedFieldsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lograg_sanitized_fields_total",
			Help: "Prompt-bound fields in which at least one phrase was redacted",
		},
	)
)
