package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hyperjump/docrag/internal/answer"
	"github.com/hyperjump/docrag/internal/completion"
	"github.com/hyperjump/docrag/internal/config"
	"github.com/hyperjump/docrag/internal/embedding"
	"github.com/hyperjump/docrag/internal/extract"
	"github.com/hyperjump/docrag/internal/indexer"
	"github.com/hyperjump/docrag/internal/storage"
	"github.com/hyperjump/docrag/internal/vector"
)

// Components holds the wired engine and its collaborators.
type Components struct {
	Config    *config.Config
	Logger    *zap.Logger
	Registry  *prometheus.Registry
	Engine    *indexer.Engine
	Extractor *extract.Extractor
}

// initializeComponents builds the engine from cfg and loads persisted state.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	chunker, err := indexer.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}
	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	idx, err := vector.NewVectorIndex(string(vector.IndexTypeFlat), cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}
	backend, err := storage.NewMetadataBackend(cfg.Storage.MetadataBackend, cfg.Storage.MetadataLocation())
	if err != nil {
		return nil, fmt.Errorf("metadata backend: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	engine, err := indexer.NewEngine(chunker, embedder, idx, backend, indexer.Config{
		IndexPath:       cfg.Storage.IndexPath,
		CacheEmbeddings: cfg.Engine.CacheEmbeddings,
		DefaultTopK:     cfg.Search.DefaultTopK,
		MaxTopK:         cfg.Search.MaxTopK,
		QueryCacheSize:  cfg.Search.QueryCacheSize,
	}, indexer.WithLogger(logger), indexer.WithMetrics(reg))
	if err != nil {
		backend.Close()
		return nil, err
	}
	if err := engine.Load(ctx); err != nil {
		engine.Close()
		return nil, fmt.Errorf("load index: %w", err)
	}
	logger.Info("index loaded",
		zap.Int("documents", engine.Stats().Documents),
		zap.Int("chunks", engine.Size()),
		zap.String("metadata", backend.Location()))

	return &Components{
		Config:    cfg,
		Logger:    logger,
		Registry:  reg,
		Engine:    engine,
		Extractor: extract.NewExtractor(),
	}, nil
}

// AnswerTool builds the RAG answer tool. The chat model is only created
// here so commands that never answer need no completion credentials.
func (c *Components) AnswerTool(ctx context.Context) (*answer.Tool, error) {
	cc := c.Config.Completion
	completer, err := completion.New(ctx, completion.Config{
		Provider:    cc.Provider,
		BaseURL:     cc.Endpoint,
		APIKey:      cc.APIKey,
		Model:       cc.Model,
		APIVersion:  cc.APIVersion,
		Temperature: cc.Temperature,
		MaxTokens:   cc.MaxTokens,
		Timeout:     cc.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}
	return answer.NewTool(c.Engine, completer,
		answer.WithTopK(c.Config.Answer.TopK),
		answer.WithLogger(c.Logger)), nil
}

// Close releases the engine.
func (c *Components) Close() error {
	return c.Engine.Close()
}

func newEmbedder(cfg config.EmbeddingConfig) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "mock":
		return embedding.NewMockEmbedder(cfg.Dimensions), nil
	case "azure", "openai":
		return embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			BaseURL:           cfg.Endpoint,
			APIKey:            cfg.APIKey,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			RequestDimensions: cfg.RequestDimensions,
			Azure:             cfg.Provider == "azure",
			APIVersion:        cfg.APIVersion,
			Timeout:           cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
