package embedding

import "context"

// Service is implemented by every embedding backend and wrapper in this package.
// Vectors returned by Embed must be treated as read-only.
type Service interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

var (
	_ Service = (*Embedder)(nil)
	_ Service = (*OllamaEmbedder)(nil)
	_ Service = (*CachedEmbedder)(nil)
	_ Service = (*Guarded)(nil)
)
