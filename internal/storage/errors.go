package storage

import "errors"

var (
	ErrQdrantUnreachable  = errors.New("qdrant server unreachable")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionMismatch = errors.New("collection exists with different parameters")
	ErrDimensionMismatch  = errors.New("embedding dimension mismatch")
)
