package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryStorage is an in-process VectorStore using brute-force similarity.
// It is used for local runs and tests; contents are lost on exit.
type MemoryStorage struct {
	mu      sync.RWMutex
	cfg     CollectionConfig
	created bool
	points  map[string]Point
}

var _ VectorStore = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty store for the given collection parameters.
func NewMemoryStorage(cfg CollectionConfig) *MemoryStorage {
	if cfg.Name == "" {
		cfg.Name = DefaultCollectionName
	}
	if cfg.Distance == "" {
		cfg.Distance = DistanceCosine
	}
	return &MemoryStorage{cfg: cfg, points: make(map[string]Point)}
}

func (s *MemoryStorage) EnsureCollection(ctx context.Context) error {
	if s.cfg.Dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", s.cfg.Dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = true
	return nil
}

func (s *MemoryStorage) Upsert(ctx context.Context, points []Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.created {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, s.cfg.Name)
	}
	if err := checkDimensions(points, s.cfg.Dimension); err != nil {
		return err
	}

	for _, p := range points {
		p.Vector = slices.Clone(p.Vector)
		s.points[p.ID] = p
	}
	return nil
}

func (s *MemoryStorage) Search(ctx context.Context, vector []float32, k int) ([]ScoredPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.created {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, s.cfg.Name)
	}
	if err := checkQuery(vector, s.cfg.Dimension); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]ScoredPoint, 0, len(s.points))
	for _, p := range s.points {
		hits = append(hits, ScoredPoint{
			Point: Point{ID: p.ID, Payload: p.Payload},
			Score: score(s.cfg.Distance, vector, p.Vector),
		})
	}
	return topK(hits, k), nil
}

func (s *MemoryStorage) Count(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.points)), nil
}

func (s *MemoryStorage) Health(ctx context.Context) error { return nil }

func (s *MemoryStorage) Close() error { return nil }
