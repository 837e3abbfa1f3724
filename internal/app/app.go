// Package app wires the knowledge pipeline from configuration. It is shared
// by the HTTP server and the ingest command.
package app

import (
	"context"
	"errors"
	"fmt"

	"hs-compliance/internal/repository"
	"hs-compliance/internal/service"
	"hs-compliance/pkg/config"
	"hs-compliance/pkg/metrics"
	"hs-compliance/pkg/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	EmbeddingProviderGigaChat = "gigachat"
	EmbeddingProviderLocal    = "local"

	CacheBackendFile     = "file"
	CacheBackendPostgres = "postgres"
)

// Model is what the language model offers the rest of the app.
type Model interface {
	service.TextCompleter
	service.Explainer
}

// Components holds everything built from configuration. Close releases
// the model client and the database pool.
type Components struct {
	Knowledge *service.KnowledgeService
	Embedder  service.Embedder
	Completer Model

	llm *service.LLMService
	db  *pgxpool.Pool
}

func Build(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (*Components, error) {
	c := &Components{}

	llm, err := service.NewLLMService(&cfg.GigaChat, m, logger)
	switch {
	case errors.Is(err, service.ErrCompleterUnavailable):
		logger.Warn("GIGACHAT_API_KEY is not set, model-assisted features are disabled")
		c.Completer = service.UnavailableCompleter{}
	case err != nil:
		return nil, fmt.Errorf("failed to initialize LLM service: %w", err)
	default:
		c.llm = llm
		c.Completer = llm
	}

	c.Embedder, err = newEmbedder(cfg, m, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	patterns, err := service.NewPatternExtractor(cfg.Compliance.Policy.Keywords, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize extractor: %w", err)
	}
	extractor := service.NewFallbackExtractor(
		patterns,
		service.NewLLMExtractor(c.Completer, cfg.Compliance.Policy.Keywords, cfg.Knowledge.ExtractChunkSize, logger),
		logger,
	)

	cache, err := c.newCache(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Knowledge = service.NewKnowledgeService(
		&cfg.Knowledge,
		service.NewPDFService(logger),
		extractor,
		service.NewIndexBuilder(c.Embedder, &cfg.Embedding, logger),
		cache,
		m,
		logger,
	)
	return c, nil
}

func (c *Components) Close() {
	if c.llm != nil {
		_ = c.llm.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
}

func newEmbedder(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (service.Embedder, error) {
	switch cfg.Embedding.Provider {
	case EmbeddingProviderLocal:
		logger.Info("Using local hashing embedder", zap.Int("dimensions", cfg.Embedding.Dimensions))
		return service.NewLocalEmbedder(cfg.Embedding.Dimensions), nil
	case EmbeddingProviderGigaChat, "":
		if cfg.GigaChat.APIKey == "" {
			logger.Warn("GIGACHAT_API_KEY is not set, falling back to the local embedder")
			return service.NewLocalEmbedder(cfg.Embedding.Dimensions), nil
		}
		return service.NewGigaChatEmbedder(&cfg.GigaChat, &cfg.Embedding, m, logger), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func (c *Components) newCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.KnowledgeCache, error) {
	switch cfg.Knowledge.CacheBackend {
	case CacheBackendFile, "":
		return repository.NewFileCache(cfg.Knowledge.CacheDir, logger), nil
	case CacheBackendPostgres:
		db, err := postgres.NewPool(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.db = db

		cache := repository.NewPostgresCache(db, logger)
		if err := cache.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare cache schema: %w", err)
		}
		return cache, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Knowledge.CacheBackend)
	}
}
