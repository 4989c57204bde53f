// Package indexer ingests documents into a vector store and answers queries from it.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bull/docqa/internal/chunker"
	"github.com/bull/docqa/internal/parser"
	"github.com/bull/docqa/internal/storage"
)

// DefaultSource labels documents ingested without a source name.
const DefaultSource = "unknown"

// Embedder maps texts to vectors, one per text and in the same order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// PointWriter persists indexed points.
type PointWriter interface {
	Upsert(ctx context.Context, points []storage.Point) error
}

// Pipeline splits, embeds and stores documents.
// It holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	splitter *chunker.Splitter
	embedder Embedder
	store    PointWriter
	logger   *slog.Logger
}

// NewPipeline creates a new ingestion pipeline with the given components.
func NewPipeline(
	splitter *chunker.Splitter,
	embedder Embedder,
	store PointWriter,
	logger *slog.Logger,
) *Pipeline {
	if splitter == nil {
		splitter = chunker.NewSplitter(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		splitter: splitter,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// IngestFile parses data according to the filename extension and ingests the text.
// An empty source defaults to the base name of filename. Unsupported types fail
// validation before any parsing happens.
func (p *Pipeline) IngestFile(ctx context.Context, filename string, data []byte, source string) (int, error) {
	if source == "" {
		source = filepath.Base(filename)
	}

	docType, err := parser.DetectType(filename)
	if err != nil {
		return 0, stageErr(StageValidate, source, err)
	}

	text, err := parser.ParseType(docType, data)
	if err != nil {
		p.logger.Warn("Failed to parse document", "source", source, "type", docType, "error", err)
		return 0, stageErr(StageParse, source, err)
	}
	p.logger.Debug("Parsed document", "source", source, "type", docType, "size", len(text))

	return p.IngestText(ctx, text, source)
}

// IngestText chunks, embeds and upserts text under source, returning the chunk count.
//
// Point IDs are source_index, so ingesting the same source again overwrites
// matching indices and leaves any higher indices from a longer earlier version.
// Nothing is written unless every chunk was embedded.
func (p *Pipeline) IngestText(ctx context.Context, text, source string) (int, error) {
	start := time.Now()
	if source == "" {
		source = DefaultSource
	}

	chunks := p.splitter.SplitDocument(text, source)
	if len(chunks) == 0 {
		p.logger.Info("Nothing to ingest", "source", source)
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		p.logger.Warn("Failed to embed chunks", "source", source, "chunks", len(chunks), "error", err)
		return 0, stageErr(StageEmbed, source, err)
	}
	if len(vectors) != len(chunks) {
		return 0, stageErr(StageEmbed, source,
			fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	points := make([]storage.Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = storage.Point{
			ID:     storage.PointID(chunk.SourceID, chunk.SequenceIndex),
			Vector: vectors[i],
			Payload: storage.Payload{
				Text:   chunk.Text,
				Source: chunk.SourceID,
			},
		}
	}

	if err := p.store.Upsert(ctx, points); err != nil {
		p.logger.Warn("Failed to store chunks", "source", source, "chunks", len(points), "error", err)
		if errors.Is(err, storage.ErrDimensionMismatch) {
			err = fmt.Errorf("embedding model and collection disagree: %w", err)
		}
		return 0, stageErr(StageStore, source, err)
	}

	p.logger.Info("Ingested document",
		"source", source,
		"chunks", len(chunks),
		"duration", time.Since(start),
	)
	return len(chunks), nil
}
