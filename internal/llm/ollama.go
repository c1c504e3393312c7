// Package llm talks to a locally hosted Ollama backend.
//
// Gateway performs no retries. Every failure is returned as a *Failure so
// callers can report a specific reason without inspecting transport errors.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lograg/internal/metrics"
)

const (
	DefaultBaseURL         = "http://localhost:11434"
	DefaultModel           = "mistral:latest"
	DefaultModelPrefix     = "mistral"
	DefaultProbeTimeout    = 5 * time.Second
	DefaultGenerateTimeout = 120 * time.Second

	maxErrorBody = 4 << 10
)

// Config configures the gateway. Zero values select the defaults above.
type Config struct {
	BaseURL         string
	Model           string
	ModelPrefix     string
	ProbeTimeout    time.Duration
	GenerateTimeout time.Duration
	HTTPClient      *http.Client
}

// Gateway checks backend liveness and issues generation requests.
type Gateway struct {
	baseURL         string
	model           string
	modelPrefix     string
	probeTimeout    time.Duration
	generateTimeout time.Duration
	client          *http.Client
	logger          *zap.Logger
}

// NewGateway creates a gateway for the given backend.
func NewGateway(cfg Config, logger *zap.Logger) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ModelPrefix == "" {
		cfg.ModelPrefix = strings.SplitN(cfg.Model, ":", 2)[0]
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = DefaultGenerateTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		model:           cfg.Model,
		modelPrefix:     cfg.ModelPrefix,
		probeTimeout:    cfg.ProbeTimeout,
		generateTimeout: cfg.GenerateTimeout,
		client:          cfg.HTTPClient,
		logger:          logger.Named("llm"),
	}
}

// Model returns the configured generation model.
func (g *Gateway) Model() string { return g.model }

// Available probes the model-listing endpoint. It reports true only when the
// backend answers 200 and lists a model whose name starts with the configured
// prefix.
func (g *Gateway) Available(ctx context.Context) bool {
	ok := g.probe(ctx)
	if ok {
		metrics.LLMProbesTotal.WithLabelValues("available").Inc()
	} else {
		metrics.LLMProbesTotal.WithLabelValues("unavailable").Inc()
	}
	return ok
}

func (g *Gateway) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, g.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/tags", nil)
	if err != nil {
		g.logger.Warn("build probe request", zap.Error(err))
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		g.logger.Debug("probe returned non-200", zap.Int("status", resp.StatusCode))
		return false
	}
	var out struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		g.logger.Debug("probe returned undecodable body", zap.Error(err))
		return false
	}
	for _, m := range out.Models {
		if strings.HasPrefix(m.Name, g.modelPrefix) {
			return true
		}
	}
	g.logger.Debug("model not listed", zap.String("prefix", g.modelPrefix), zap.Int("models", len(out.Models)))
	return false
}

// Generate issues a single non-streaming generation request. On failure the
// returned error is always a *Failure.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := g.generate(ctx, prompt)
	metrics.LLMRequestDuration.WithLabelValues(g.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(g.model, string(err.Kind)).Inc()
		g.logger.Warn("generation failed", zap.String("kind", string(err.Kind)), zap.Error(err))
		return "", err
	}
	metrics.LLMRequestsTotal.WithLabelValues(g.model, "ok").Inc()
	return text, nil
}

func (g *Gateway) generate(ctx context.Context, prompt string) (string, *Failure) {
	ctx, cancel := context.WithTimeout(ctx, g.generateTimeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{Model: g.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", &Failure{Kind: KindTransport, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", &Failure{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &Failure{Kind: KindBadStatus, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(ctx, err)
	}
	var out generateResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", &Failure{Kind: KindMalformed, Err: err}
	}
	if out.Response == nil {
		return "", &Failure{Kind: KindMalformed, Err: errors.New("missing response field")}
	}
	if strings.TrimSpace(*out.Response) == "" {
		return "", &Failure{Kind: KindMalformed, Err: errors.New("empty response")}
	}
	return *out.Response, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

func classify(ctx context.Context, err error) *Failure {
	var ne net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return &Failure{Kind: KindConnectionRefused, Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &Failure{Kind: KindTimeout, Err: err}
	case errors.As(err, &ne) && ne.Timeout():
		return &Failure{Kind: KindTimeout, Err: err}
	default:
		return &Failure{Kind: KindTransport, Err: err}
	}
}

// FailureKind distinguishes generation failures.
type FailureKind string

const (
	KindConnectionRefused FailureKind = "connection_refused"
	KindTimeout           FailureKind = "timeout"
	KindBadStatus         FailureKind = "bad_status"
	KindMalformed         FailureKind = "malformed_response"
	KindTransport         FailureKind = "transport"
)

// Failure describes why a generation request produced no text.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Body       string
	Err        error
}

// Error returns the reason reported to callers.
func (f *Failure) Error() string {
	switch f.Kind {
	case KindConnectionRefused:
		return "LLM connection refused"
	case KindTimeout:
		return "LLM timeout"
	case KindBadStatus:
		return fmt.Sprintf("LLM error %d: %s", f.StatusCode, f.Body)
	case KindMalformed:
		return fmt.Sprintf("malformed LLM response: %v", f.Err)
	default:
		if f.Err == nil {
			return "LLM request failed"
		}
		return fmt.Sprintf("LLM request failed: %v", f.Err)
	}
}

func (f *Failure) Unwrap() error { return f.Err }
