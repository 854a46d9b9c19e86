// Package server provides the HTTP API for docrag.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/docrag/internal/answer"
	"github.com/hyperjump/docrag/internal/config"
	"github.com/hyperjump/docrag/internal/extract"
	"github.com/hyperjump/docrag/internal/indexer"
)

// TextExtractor turns uploaded file bytes into plain text.
type TextExtractor interface {
	ExtractBytes(content []byte, ext string) (string, error)
}

// Server is the HTTP server for the docrag API.
type Server struct {
	engine    *indexer.Engine
	tool      *answer.Tool
	extractor TextExtractor
	config    *config.Config
	logger    *zap.Logger
	registry  prometheus.Registerer
	gatherer  prometheus.Gatherer
	metrics   *serverMetrics
	limiter   *rateLimiter
	stopLimit func()
	server    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRegistry registers server metrics on reg and serves reg on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
		s.gatherer = reg
	}
}

// WithExtractor replaces the PDF extractor used for uploads.
func WithExtractor(ex TextExtractor) Option {
	return func(s *Server) { s.extractor = ex }
}

// NewServer creates a server with the given dependencies.
func NewServer(engine *indexer.Engine, tool *answer.Tool, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		tool:      tool,
		extractor: extract.NewExtractor(".pdf"),
		config:    cfg,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		reg := prometheus.NewRegistry()
		s.registry = reg
		s.gatherer = reg
	}
	s.metrics = newServerMetrics(s.registry)
	if cfg.Server.RateLimitRPS > 0 {
		s.limiter, s.stopLimit = newRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, s.logger)
	}
	if cfg.Server.AuthDisabled {
		s.logger.Warn("authentication disabled for /rag and /bot")
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.config.Server.CORSOrigins))
	r.Use(s.instrument)
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/rag", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleRAGRoot)
		r.Post("/documents/add", s.handleAddDocument)
		r.Delete("/documents/delete/{doc_id}", s.handleDeleteDocument)
		r.Get("/documents/get", s.handleListDocuments)
		r.Post("/query", s.handleQuery)
	})
	r.Route("/bot", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/ask", s.handleAsk)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.stopLimit != nil {
		s.stopLimit()
		s.stopLimit = nil
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
