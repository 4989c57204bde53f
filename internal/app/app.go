// Package app wires configuration into the running components. All components
// are built once at startup and shared by the HTTP, MCP and CLI surfaces.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bull/docqa/internal/chunker"
	"github.com/bull/docqa/internal/config"
	"github.com/bull/docqa/internal/embedding"
	"github.com/bull/docqa/internal/indexer"
	"github.com/bull/docqa/internal/storage"
)

// App holds the initialized components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     storage.VectorStore
	Embedder  embedding.Service
	Pipeline  *indexer.Pipeline
	Retriever *indexer.Retriever
}

// New opens the vector store, ensures the collection and creates the embedding client.
// Failures here are fatal to the caller; nothing is retried lazily later.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	// The collection is sized by the model actually in use.
	cfg.EmbeddingDimensions = embedder.Dimension()

	queryEmbedder := embedding.Service(embedder)
	if cfg.EmbeddingCacheSize > 0 {
		if queryEmbedder, err = embedding.NewCachedEmbedder(embedder, cfg.EmbeddingCacheSize); err != nil {
			return nil, err
		}
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureCollection(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to ensure collection %q: %w", cfg.Collection, err)
	}

	logger.Info("Vector store ready",
		"backend", cfg.VectorStore,
		"collection", cfg.Collection,
		"dimension", cfg.EmbeddingDimensions,
		"distance", cfg.Distance,
		"embedding_provider", cfg.EmbeddingProvider,
		"embedding_model", embedder.Model())

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Embedder:  embedder,
		Pipeline:  indexer.NewPipeline(chunker.NewSplitter(cfg.ChunkMaxLength), embedder, store, logger),
		Retriever: indexer.NewRetriever(queryEmbedder, store, cfg.TopK, logger),
	}, nil
}

// NewEmbedder creates the configured embedding backend behind a rate limiter and
// circuit breaker.
func NewEmbedder(cfg *config.Config) (embedding.Service, error) {
	var backend embedding.Service

	switch cfg.EmbeddingProvider {
	case config.ProviderOllama:
		client, err := embedding.NewOllamaClient(cfg.OllamaHost)
		if err != nil {
			return nil, err
		}
		model, dimension := cfg.EmbeddingModel, cfg.EmbeddingDimensions
		if model == embedding.DefaultModel {
			// OpenAI defaults left in place.
			model = embedding.DefaultOllamaModel
			if dimension == embedding.DefaultDimension {
				dimension = embedding.DefaultOllamaDimension
			}
		}
		backend = embedding.NewOllamaEmbedder(client, embedding.Config{
			Model:     model,
			Dimension: dimension,
		})
	default:
		client, err := embedding.NewClient(embedding.ClientOptions{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			return nil, err
		}
		backend = embedding.NewEmbedder(client, embedding.Config{
			Model:     cfg.EmbeddingModel,
			Dimension: cfg.EmbeddingDimensions,
			BatchSize: cfg.EmbeddingBatchSize,
		})
	}

	return embedding.NewGuarded(backend, embedding.GuardConfig{
		RequestsPerSecond:   cfg.EmbeddingRPS,
		ConsecutiveFailures: cfg.EmbeddingBreakerFailures,
		OpenTimeout:         cfg.EmbeddingBreakerTimeout,
	}), nil
}

// OpenStore creates the configured vector store backend without touching the collection.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.VectorStore, error) {
	coll := cfg.CollectionConfig()

	switch cfg.VectorStore {
	case config.StoreQdrant:
		return storage.NewQdrantStorage(ctx, storage.QdrantConfig{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			APIKey:     cfg.QdrantAPIKey,
			UseTLS:     cfg.QdrantUseTLS,
			Collection: coll,
			Timeout:    cfg.StoreTimeout,
		})
	case config.StoreSQLite:
		return storage.OpenSQLiteStorage(cfg.SQLitePath, coll)
	case config.StoreMemory:
		return storage.NewMemoryStorage(coll), nil
	default:
		return nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
	}
}

// Close releases the vector store.
func (a *App) Close() error {
	return a.Store.Close()
}

// NewLogger returns a text logger at the named level. Unknown levels fall back to info.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}
