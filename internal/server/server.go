// Package server exposes the retrieval and explanation service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lograg/internal/domain"
	"lograg/internal/metrics"
	"lograg/internal/service"
)

// Backend is the service surface the HTTP layer needs.
type Backend interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
	Explain(ctx context.Context, query string) (*domain.ExplainResponse, error)
	Health(ctx context.Context) service.Health
}

// Reloader swaps in a freshly loaded vector file.
type Reloader interface {
	Reload() (int, error)
}

type queryRequest struct {
	Query string `json:"query"`
}

// SearchResponse is the body of a successful POST /search.
type SearchResponse struct {
	Query   string                `json:"query"`
	Results []domain.SearchResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the API routes.
type Handler struct {
	backend  Backend
	reloader Reloader
	logger   *zap.Logger
}

// NewRouter builds the gin engine. reloader may be nil, in which case the
// admin reload route is not registered.
func NewRouter(backend Backend, reloader Reloader, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{backend: backend, reloader: reloader, logger: logger.Named("http")}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(h.logger), Metrics())

	r.GET("/health", h.health)
	r.POST("/search", h.search)
	r.POST("/explain", h.explain)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if reloader != nil {
		r.POST("/admin/reload", h.reload)
	}
	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, h.backend.Health(c.Request.Context()))
}

func (h *Handler) search(c *gin.Context) {
	req, ok := bindQuery(c)
	if !ok {
		return
	}
	results, err := h.backend.Search(c.Request.Context(), req.Query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SearchResponse{Query: req.Query, Results: results})
}

func (h *Handler) explain(c *gin.Context) {
	req, ok := bindQuery(c)
	if !ok {
		return
	}
	resp, err := h.backend.Explain(c.Request.Context(), req.Query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) reload(c *gin.Context) {
	n, err := h.reloader.Reload()
	if err != nil {
		h.logger.Error("vector reload failed", zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	metrics.VectorsLoaded.Set(float64(n))
	h.logger.Info("vectors reloaded", zap.Int("count", n))
	c.JSON(http.StatusOK, gin.H{"vectors_loaded": n})
}

func bindQuery(c *gin.Context) (queryRequest, bool) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return req, false
	}
	return req, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrEmptyQuery) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
