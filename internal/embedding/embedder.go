package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultModel is the OpenAI model used for generating embeddings.
	DefaultModel = "text-embedding-3-small"

	// DefaultDimension is the native vector size of text-embedding-3-small.
	DefaultDimension = 1536

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute rate limits.
	// OpenAI supports up to 2048 texts per batch, but smaller batches reduce TPM pressure.
	DefaultBatchSize = 500
)

// ErrEmbedding marks failures to acquire or invoke the embedding model.
var ErrEmbedding = errors.New("embedding failed")

// embeddingsAPI is the subset of openai.EmbeddingService used by Embedder.
type embeddingsAPI interface {
	New(ctx context.Context, body openai.EmbeddingNewParams, opts ...option.RequestOption) (*openai.CreateEmbeddingResponse, error)
}

// Config controls model selection and batching.
type Config struct {
	Model     string
	Dimension int
	BatchSize int
}

// Embedder maps texts to fixed-dimension vectors, one per input and in input order.
// It batches requests and retries with exponential backoff on rate limit errors.
// An Embedder is safe for concurrent use.
type Embedder struct {
	api       embeddingsAPI
	model     string
	dimension int
	batchSize int
}

// NewEmbedder creates a new Embedder with the given client.
// Zero values in cfg fall back to DefaultModel, DefaultDimension and DefaultBatchSize.
func NewEmbedder(client *Client, cfg Config) *Embedder {
	return newEmbedder(&client.client.Embeddings, cfg)
}

func newEmbedder(api embeddingsAPI, cfg Config) *Embedder {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Embedder{
		api:       api,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
	}
}

// Dimension returns the length of every vector produced by Embed.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Model returns the embedding model name.
func (e *Embedder) Model() string {
	return e.model
}

// Embed generates embeddings for the given texts.
// Output order matches input order one-to-one. An empty input returns no vectors
// without calling the API. All failures wrap ErrEmbedding.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		embeddings, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d-%d: %w", ErrEmbedding, i, end, err)
		}
		all = append(all, embeddings...)
	}

	return all, nil
}

// embedBatchWithRetry generates embeddings for a single batch with retry logic.
// Retries with exponential backoff on rate limit errors (HTTP 429).
// Other errors are treated as permanent and fail immediately.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		params := openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(e.model),
		}
		if supportsDimensions(e.model) {
			params.Dimensions = openai.Int(int64(e.dimension))
		}

		resp, err := e.api.New(ctx, params)
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		out, err := e.collect(resp, len(texts))
		if err != nil {
			return backoff.Permanent(err)
		}
		embeddings = out
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// collect places response vectors by their reported index and checks their shape.
func (e *Embedder) collect(resp *openai.CreateEmbeddingResponse, want int) ([][]float32, error) {
	if resp == nil || len(resp.Data) != want {
		got := 0
		if resp != nil {
			got = len(resp.Data)
		}
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, got)
	}

	out := make([][]float32, want)
	for _, data := range resp.Data {
		idx := int(data.Index)
		if idx < 0 || idx >= want || out[idx] != nil {
			return nil, fmt.Errorf("unexpected embedding index %d", data.Index)
		}
		if len(data.Embedding) != e.dimension {
			return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d",
				idx, len(data.Embedding), e.dimension)
		}
		out[idx] = toFloat32(data.Embedding)
	}
	return out, nil
}

// supportsDimensions reports whether the model accepts the dimensions parameter.
// Older models and most OpenAI-compatible servers reject it, so their native size
// must match the configured dimension.
func supportsDimensions(model string) bool {
	return strings.HasPrefix(model, "text-embedding-3")
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts []float64 to []float32.
// OpenAI API returns float64, but storage uses float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
