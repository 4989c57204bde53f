package storage

import (
	"context"
	"fmt"
	"strings"
)

// DefaultCollectionName is the collection used when none is configured.
const DefaultCollectionName = "document_chatbot"

// Distance is the similarity metric of a collection.
type Distance string

const (
	DistanceCosine Distance = "cosine"
	DistanceDot    Distance = "dot"
	DistanceEuclid Distance = "euclid"
)

// ParseDistance parses a metric name, case-insensitively.
func ParseDistance(s string) (Distance, error) {
	switch d := Distance(strings.ToLower(strings.TrimSpace(s))); d {
	case DistanceCosine, DistanceDot, DistanceEuclid:
		return d, nil
	case "":
		return DistanceCosine, nil
	default:
		return "", fmt.Errorf("unknown distance metric %q", s)
	}
}

// CollectionConfig describes a named vector index. It is fixed once created.
type CollectionConfig struct {
	Name      string
	Dimension int
	Distance  Distance
}

// Payload is the non-vector metadata attached to a point.
type Payload struct {
	Text   string
	Source string
}

// Point is an indexed chunk. Upserting an existing ID overwrites it.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// ScoredPoint is a search hit. Vector is not populated.
type ScoredPoint struct {
	Point
	Score float64
}

// PointID derives the identity key of a chunk from its source and position.
func PointID(source string, index int) string {
	return fmt.Sprintf("%s_%d", source, index)
}

// VectorStore is a similarity-searchable collection of points.
type VectorStore interface {
	// EnsureCollection creates the collection if absent and validates its
	// parameters if present. It never drops existing data.
	EnsureCollection(ctx context.Context) error
	// Upsert inserts or overwrites points by ID. Either all points land or an error is returned.
	Upsert(ctx context.Context, points []Point) error
	// Search returns up to topK points ordered by descending similarity.
	Search(ctx context.Context, vector []float32, topK int) ([]ScoredPoint, error)
	// Count returns the number of points in the collection.
	Count(ctx context.Context) (uint64, error)
	Health(ctx context.Context) error
	Close() error
}

func checkDimensions(points []Point, dimension int) error {
	for i, p := range points {
		if len(p.Vector) != dimension {
			return fmt.Errorf("%w: point %d (%s) has %d dimensions, expected %d",
				ErrDimensionMismatch, i, p.ID, len(p.Vector), dimension)
		}
	}
	return nil
}

func checkQuery(vector []float32, dimension int) error {
	if len(vector) != dimension {
		return fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), dimension)
	}
	return nil
}
