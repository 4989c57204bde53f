package embedding

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder remembers the vectors of recently embedded texts.
// Repeated questions skip the model call entirely.
type CachedEmbedder struct {
	next  Service
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps next with an LRU cache holding up to size texts.
func NewCachedEmbedder(next Service, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: cache}, nil
}

func (c *CachedEmbedder) Dimension() int { return c.next.Dimension() }
func (c *CachedEmbedder) Model() string  { return c.next.Model() }

// Embed serves cached vectors and embeds the misses in a single call.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var missing []string
	var missingAt []int
	for i, text := range texts {
		if vec, ok := c.cache.Get(text); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingAt = append(missingAt, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := c.next.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbedding, len(vectors), len(missing))
	}

	for j, vec := range vectors {
		out[missingAt[j]] = vec
		c.cache.Add(missing[j], vec)
	}
	return out, nil
}

// Len reports the number of cached texts.
func (c *CachedEmbedder) Len() int { return c.cache.Len() }
