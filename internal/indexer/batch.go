package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bull/docqa/internal/parser"
)

// Source enumerates and reads documents for batch ingestion.
type Source interface {
	ListFiles(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Progress observes a batch ingestion.
type Progress interface {
	Start(total int)
	Done(path string, err error)
}

// IndexResult contains statistics about a batch ingestion.
type IndexResult struct {
	TotalDocs      int
	TotalChunks    int
	SuccessfulDocs int
	FailedDocs     []FailedDoc
	Duration       time.Duration
}

// FailedDoc represents a document that failed to index.
type FailedDoc struct {
	Path   string
	Reason string
}

// IngestAll ingests every file of src, using its path as the source label.
// A failed document is recorded and skipped; cancellation aborts the batch.
// progress may be nil.
func (p *Pipeline) IngestAll(ctx context.Context, src Source, progress Progress) (*IndexResult, error) {
	start := time.Now()
	result := &IndexResult{}

	paths, err := src.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	result.TotalDocs = len(paths)
	p.logger.Info("Found documents", "count", len(paths))
	if progress != nil {
		progress.Start(len(paths))
	}

	for _, path := range paths {
		chunks, err := p.ingestOne(ctx, src, path)
		if progress != nil {
			progress.Done(path, err)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				result.Duration = time.Since(start)
				return result, ctxErr
			}
			p.logger.Warn("Failed to process document", "path", path, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{
				Path:   path,
				Reason: err.Error(),
			})
			continue
		}
		result.SuccessfulDocs++
		result.TotalChunks += chunks
	}

	result.Duration = time.Since(start)
	p.logger.Info("Indexing complete",
		"successful", result.SuccessfulDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)

	return result, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, src Source, path string) (int, error) {
	data, err := src.Fetch(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	return p.IngestFile(ctx, path, data, path)
}

// DirSource reads supported files from a local directory tree, or a single file.
type DirSource struct {
	Root string
}

// ListFiles returns supported files below Root in lexical order, as slash-separated
// paths relative to Root. A file Root lists only its base name.
func (d DirSource) ListFiles(ctx context.Context) ([]string, error) {
	info, err := os.Stat(d.Root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if !parser.Supported(d.Root) {
			return nil, fmt.Errorf("%s: %w", d.Root, parser.ErrUnsupportedType)
		}
		return []string{filepath.Base(d.Root)}, nil
	}

	var files []string
	err = filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() || !parser.Supported(path) {
			return nil
		}
		rel, err := filepath.Rel(d.Root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Fetch reads one file listed by ListFiles.
func (d DirSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	info, err := os.Stat(d.Root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if path != filepath.Base(d.Root) {
			return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
		}
		return os.ReadFile(d.Root)
	}

	local := filepath.FromSlash(path)
	if !filepath.IsLocal(local) {
		return nil, errors.New("path escapes source root")
	}
	return os.ReadFile(filepath.Join(d.Root, local))
}
