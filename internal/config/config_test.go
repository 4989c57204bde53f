package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docqa/internal/storage"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, StoreQdrant, cfg.VectorStore)
	assert.Equal(t, "localhost", cfg.QdrantHost)
	assert.Equal(t, 6334, cfg.QdrantPort)
	assert.Equal(t, "document_chatbot", cfg.Collection)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 500, cfg.ChunkMaxLength)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes)
	assert.Equal(t, ProviderOpenAI, cfg.EmbeddingProvider)
	assert.Equal(t, 1024, cfg.EmbeddingCacheSize)
	assert.Equal(t, uint32(5), cfg.EmbeddingBreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.EmbeddingBreakerTimeout)

	coll := cfg.CollectionConfig()
	assert.Equal(t, storage.DistanceCosine, coll.Distance)
	assert.Equal(t, 1536, coll.Dimension)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("QDRANT_HOST", "qdrant.internal")
	t.Setenv("QDRANT_PORT", "7334")
	t.Setenv("VECTOR_STORE", "SQLite")
	t.Setenv("EMBEDDING_DIMENSIONS", "384")
	t.Setenv("STORE_TIMEOUT", "2s")
	t.Setenv("EMBEDDING_PROVIDER", "Ollama")
	t.Setenv("EMBEDDING_RPS", "2.5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "qdrant.internal", cfg.QdrantHost)
	assert.Equal(t, 7334, cfg.QdrantPort)
	assert.Equal(t, StoreSQLite, cfg.VectorStore)
	assert.Equal(t, 384, cfg.EmbeddingDimensions)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	assert.Equal(t, ProviderOllama, cfg.EmbeddingProvider)
	assert.Equal(t, 2.5, cfg.EmbeddingRPS)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docqa.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collection_name: manuals\ntop_k: 5\ndistance: dot\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "manuals", cfg.Collection)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, storage.DistanceDot, cfg.CollectionConfig().Distance)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"VECTOR_STORE":         "redis",
		"DISTANCE":             "manhattan",
		"EMBEDDING_DIMENSIONS": "0",
		"CHUNK_MAX_LENGTH":     "-1",
		"TOP_K":                "0",
		"SERVER_MODE":          "grpc",
		"EMBEDDING_PROVIDER":   "cohere",
		"EMBEDDING_CACHE_SIZE": "-1",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
