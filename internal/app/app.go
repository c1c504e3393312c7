// Package app assembles configured components for the command binaries.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"lograg/internal/config"
	"lograg/internal/domain"
	"lograg/internal/embedding/cached"
	"lograg/internal/embedding/hashing"
	"lograg/internal/embedding/ollama"
	"lograg/internal/embedding/openai"
	"lograg/internal/llm"
	"lograg/internal/logging"
	"lograg/internal/metrics"
	"lograg/internal/sanitize"
	"lograg/internal/service"
	"lograg/internal/vectorstore"
)

// Logger builds the application logger from config.
func Logger(cfg *config.AppConfig) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
}

// Embedder builds the configured embedder. storeDim sizes the hashing
// embedder when no dimension is configured; pass 0 when there is no store.
func Embedder(cfg *config.AppConfig, storeDim int, logger *zap.Logger) (domain.Embedder, error) {
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "hashing", "":
		dim := cfg.Embedder.Dimension
		if dim == 0 {
			dim = storeDim
		}
		emb = hashing.NewEmbedder(dim)
	case "ollama":
		oc := cfg.Embedder.Ollama
		if oc == nil {
			return nil, fmt.Errorf("ollama embedder config missing")
		}
		e, err := ollama.NewEmbedder(ollama.Config{
			BaseURL: oc.URL,
			Model:   oc.Model,
			Timeout: time.Duration(oc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("ollama embedder init failed: %w", err)
		}
		emb = e
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    oc.BaseURL,
			APIKeyEnv:  oc.APIKeyEnv,
			Model:      oc.Model,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
			MaxRetries: oc.MaxRetries,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
	if cfg.Embedder.CacheSize > 0 {
		c, err := cached.New(emb, cfg.Embedder.CacheSize)
		if err != nil {
			return nil, err
		}
		emb = c
	}
	return emb, nil
}

// Sanitizer builds the prompt sanitizer from the default phrases plus any
// configured extras.
func Sanitizer(cfg *config.AppConfig) (*sanitize.Sanitizer, error) {
	var phrases []string
	if !cfg.Sanitizer.ReplaceDefaults {
		phrases = append(phrases, sanitize.DefaultPatterns...)
	}
	phrases = append(phrases, cfg.Sanitizer.ExtraPatterns...)
	return sanitize.New(phrases, cfg.Sanitizer.Marker)
}

// Gateway builds the LLM gateway.
func Gateway(cfg *config.AppConfig, logger *zap.Logger) *llm.Gateway {
	return llm.NewGateway(llm.Config{
		BaseURL:         cfg.LLM.URL,
		Model:           cfg.LLM.Model,
		ModelPrefix:     cfg.LLM.ModelPrefix,
		ProbeTimeout:    time.Duration(cfg.LLM.ProbeTimeoutSecs) * time.Second,
		GenerateTimeout: time.Duration(cfg.LLM.GenerateTimeoutSecs) * time.Second,
	}, logger)
}

// Components is everything a serving binary needs.
type Components struct {
	Service *service.Service
	Store   *vectorstore.Holder
	LLM     *llm.Gateway
}

// Build loads the vector file and wires the service. A missing or invalid
// vector file is returned as a *vectorstore.LoadError.
func Build(cfg *config.AppConfig, logger *zap.Logger) (*Components, error) {
	store, err := vectorstore.Load(cfg.Store.VectorsFile)
	if err != nil {
		return nil, err
	}
	metrics.VectorsLoaded.Set(float64(store.Len()))
	logger.Info("vectors loaded",
		zap.String("path", cfg.Store.VectorsFile),
		zap.Int("count", store.Len()),
		zap.Int("dimension", store.Dimension()))

	emb, err := Embedder(cfg, store.Dimension(), logger)
	if err != nil {
		return nil, err
	}
	// Remote embedders report their dimension only after the first call;
	// a mismatch then surfaces per request.
	if d := emb.Dimension(); d > 0 && d != store.Dimension() {
		return nil, fmt.Errorf("embedder %s produces %d-dimensional vectors, store has %d", emb.Name(), d, store.Dimension())
	}
	san, err := Sanitizer(cfg)
	if err != nil {
		return nil, fmt.Errorf("build sanitizer: %w", err)
	}
	gw := Gateway(cfg, logger)
	holder := vectorstore.NewHolder(cfg.Store.VectorsFile, store)
	svc := service.New(emb, holder, san, gw, cfg.Store.TopK, logger)
	return &Components{Service: svc, Store: holder, LLM: gw}, nil
}
