package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ollama/ollama/api"
)

const (
	// DefaultOllamaModel is a local sentence embedding model.
	DefaultOllamaModel = "nomic-embed-text"

	// DefaultOllamaDimension is the vector size of nomic-embed-text.
	DefaultOllamaDimension = 768
)

// ollamaAPI is the subset of api.Client used by OllamaEmbedder.
type ollamaAPI interface {
	Embeddings(ctx context.Context, req *api.EmbeddingRequest) (*api.EmbeddingResponse, error)
}

// OllamaEmbedder embeds texts with a locally served Ollama model, one request per text.
type OllamaEmbedder struct {
	api       ollamaAPI
	model     string
	dimension int
}

// NewOllamaClient connects to host, or to OLLAMA_HOST when host is empty.
func NewOllamaClient(host string) (*api.Client, error) {
	if host == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
		}
		return client, nil
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ollama host: %w", ErrEmbedding, err)
	}
	return api.NewClient(u, http.DefaultClient), nil
}

// NewOllamaEmbedder creates an embedder backed by client.
// Zero values in cfg fall back to DefaultOllamaModel and DefaultOllamaDimension.
func NewOllamaEmbedder(client *api.Client, cfg Config) *OllamaEmbedder {
	return newOllamaEmbedder(client, cfg)
}

func newOllamaEmbedder(client ollamaAPI, cfg Config) *OllamaEmbedder {
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultOllamaDimension
	}
	return &OllamaEmbedder{
		api:       client,
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}
}

// Dimension returns the length of every vector produced by Embed.
func (e *OllamaEmbedder) Dimension() int { return e.dimension }

// Model returns the embedding model name.
func (e *OllamaEmbedder) Model() string { return e.model }

// Embed generates one vector per text in input order. All failures wrap ErrEmbedding.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%w: text %d: %w", ErrEmbedding, i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// embedOne retries while the model is loading or the server is overloaded.
func (e *OllamaEmbedder) embedOne(ctx context.Context, text string) ([]float32, error) {
	var vec []float32

	operation := func() error {
		resp, err := e.api.Embeddings(ctx, &api.EmbeddingRequest{
			Model:     e.model,
			Prompt:    text,
			KeepAlive: &api.Duration{Duration: 60 * time.Minute},
		})
		if err != nil {
			var statusErr api.StatusError
			if errors.As(err, &statusErr) &&
				(statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode == http.StatusServiceUnavailable) {
				return err
			}
			return backoff.Permanent(err)
		}

		if len(resp.Embedding) != e.dimension {
			return backoff.Permanent(fmt.Errorf("embedding has %d dimensions, expected %d",
				len(resp.Embedding), e.dimension))
		}
		vec = toFloat32(resp.Embedding)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return vec, err
}
