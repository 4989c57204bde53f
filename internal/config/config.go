// Package config loads service configuration from defaults, an optional YAML
// file and environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bull/docqa/internal/storage"
)

// Vector store backends.
const (
	StoreQdrant = "qdrant"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Server modes.
const (
	ModeHTTP  = "http"
	ModeStdio = "stdio"
)

// Config holds all settings. Each key maps to an upper-cased environment variable,
// e.g. qdrant_host -> QDRANT_HOST.
type Config struct {
	VectorStore  string        `mapstructure:"vector_store"`
	QdrantHost   string        `mapstructure:"qdrant_host"`
	QdrantPort   int           `mapstructure:"qdrant_port"`
	QdrantAPIKey string        `mapstructure:"qdrant_api_key"`
	QdrantUseTLS bool          `mapstructure:"qdrant_use_tls"`
	SQLitePath   string        `mapstructure:"sqlite_path"`
	Collection   string        `mapstructure:"collection_name"`
	Distance     string        `mapstructure:"distance"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"`

	EmbeddingProvider   string `mapstructure:"embedding_provider"`
	OpenAIAPIKey        string `mapstructure:"openai_api_key"`
	OpenAIBaseURL       string `mapstructure:"openai_base_url"`
	EmbeddingModel      string `mapstructure:"embedding_model"`
	EmbeddingDimensions int    `mapstructure:"embedding_dimensions"`
	EmbeddingBatchSize  int    `mapstructure:"embedding_batch_size"`
	OllamaHost          string `mapstructure:"ollama_host"`

	// Query embedding cache entries; zero disables the cache.
	EmbeddingCacheSize       int           `mapstructure:"embedding_cache_size"`
	EmbeddingRPS             float64       `mapstructure:"embedding_rps"`
	EmbeddingBreakerFailures uint32        `mapstructure:"embedding_breaker_failures"`
	EmbeddingBreakerTimeout  time.Duration `mapstructure:"embedding_breaker_timeout"`

	ChunkMaxLength int `mapstructure:"chunk_max_length"`
	TopK           int `mapstructure:"top_k"`

	GitHubToken string `mapstructure:"github_token"`

	Port           string `mapstructure:"port"`
	ServerMode     string `mapstructure:"server_mode"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	LogLevel       string `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vector_store", StoreQdrant)
	v.SetDefault("qdrant_host", "localhost")
	v.SetDefault("qdrant_port", 6334)
	v.SetDefault("qdrant_api_key", "")
	v.SetDefault("qdrant_use_tls", false)
	v.SetDefault("sqlite_path", "docqa.db")
	v.SetDefault("collection_name", storage.DefaultCollectionName)
	v.SetDefault("distance", string(storage.DistanceCosine))
	v.SetDefault("store_timeout", "10s")

	v.SetDefault("embedding_provider", ProviderOpenAI)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("embedding_dimensions", 1536)
	v.SetDefault("embedding_batch_size", 500)
	v.SetDefault("ollama_host", "")
	v.SetDefault("embedding_cache_size", 1024)
	v.SetDefault("embedding_rps", 0)
	v.SetDefault("embedding_breaker_failures", 5)
	v.SetDefault("embedding_breaker_timeout", "30s")

	v.SetDefault("chunk_max_length", 500)
	v.SetDefault("top_k", 3)

	v.SetDefault("github_token", "")

	v.SetDefault("port", "8080")
	v.SetDefault("server_mode", ModeHTTP)
	v.SetDefault("max_upload_bytes", 32<<20)
	v.SetDefault("log_level", "info")
}

// Load reads configuration. If path is empty, only defaults and the environment are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	c.VectorStore = strings.ToLower(c.VectorStore)
	switch c.VectorStore {
	case StoreQdrant, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown vector_store %q", c.VectorStore)
	}

	c.EmbeddingProvider = strings.ToLower(c.EmbeddingProvider)
	switch c.EmbeddingProvider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unknown embedding_provider %q", c.EmbeddingProvider)
	}

	c.ServerMode = strings.ToLower(c.ServerMode)
	switch c.ServerMode {
	case ModeHTTP, ModeStdio:
	default:
		return fmt.Errorf("unknown server_mode %q", c.ServerMode)
	}

	if _, err := storage.ParseDistance(c.Distance); err != nil {
		return err
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("embedding_dimensions must be positive, got %d", c.EmbeddingDimensions)
	}
	if c.ChunkMaxLength <= 0 {
		return fmt.Errorf("chunk_max_length must be positive, got %d", c.ChunkMaxLength)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.EmbeddingCacheSize < 0 {
		return fmt.Errorf("embedding_cache_size must not be negative, got %d", c.EmbeddingCacheSize)
	}
	if c.Collection == "" {
		return fmt.Errorf("collection_name must not be empty")
	}
	return nil
}

// CollectionConfig returns the collection parameters derived from the embedding settings.
func (c *Config) CollectionConfig() storage.CollectionConfig {
	distance, _ := storage.ParseDistance(c.Distance)
	return storage.CollectionConfig{
		Name:      c.Collection,
		Dimension: c.EmbeddingDimensions,
		Distance:  distance,
	}
}
