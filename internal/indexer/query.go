package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bull/docqa/internal/storage"
)

const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 3

	// NoRelevantContent is the answer text when the store returns nothing.
	NoRelevantContent = "No relevant content found."
)

// ErrEmptyQuestion is returned for a missing or blank question.
var ErrEmptyQuestion = errors.New("no question provided")

// PointSearcher finds the points nearest to a vector.
type PointSearcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]storage.ScoredPoint, error)
}

// Match is one retrieved chunk.
type Match struct {
	Text   string  `json:"text" yaml:"text"`
	Source string  `json:"source" yaml:"source"`
	Score  float64 `json:"score" yaml:"score"`
}

// Answer is the assembled retrieval result.
type Answer struct {
	// Text is the retrieved chunk texts in ranking order, separated by a blank line,
	// or NoRelevantContent.
	Text string
	// Sources lists each distinct source once, in order of first appearance.
	Sources []string
	Matches []Match
	// Found is false when nothing was retrieved.
	Found bool
}

// Retriever answers questions with raw retrieved text. No re-ranking, filtering
// or generation is applied.
type Retriever struct {
	embedder Embedder
	store    PointSearcher
	topK     int
	logger   *slog.Logger
}

// NewRetriever creates a query pipeline. If topK is 0 or negative, DefaultTopK is used.
func NewRetriever(embedder Embedder, store PointSearcher, topK int, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
		logger:   logger,
	}
}

// Answer embeds the question, retrieves up to topK chunks and concatenates them.
// A topK of 0 or less uses the retriever default. An empty result is not an error.
func (r *Retriever) Answer(ctx context.Context, question string, topK int) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, stageErr(StageValidate, "", ErrEmptyQuestion)
	}
	if topK <= 0 {
		topK = r.topK
	}

	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, stageErr(StageEmbed, "", err)
	}
	if len(vectors) != 1 {
		return nil, stageErr(StageEmbed, "", fmt.Errorf("got %d vectors for one question", len(vectors)))
	}

	hits, err := r.store.Search(ctx, vectors[0], topK)
	if err != nil {
		return nil, stageErr(StageStore, "", err)
	}
	r.logger.Debug("Retrieved chunks", "top_k", topK, "hits", len(hits))

	return assemble(hits), nil
}

// assemble joins hit texts in ranking order and collects distinct sources.
func assemble(hits []storage.ScoredPoint) *Answer {
	if len(hits) == 0 {
		return &Answer{
			Text:    NoRelevantContent,
			Sources: []string{},
			Matches: []Match{},
		}
	}

	texts := make([]string, len(hits))
	matches := make([]Match, len(hits))
	sources := make([]string, 0, len(hits))
	seen := make(map[string]bool, len(hits))

	for i, hit := range hits {
		texts[i] = hit.Payload.Text
		matches[i] = Match{
			Text:   hit.Payload.Text,
			Source: hit.Payload.Source,
			Score:  hit.Score,
		}
		if !seen[hit.Payload.Source] {
			seen[hit.Payload.Source] = true
			sources = append(sources, hit.Payload.Source)
		}
	}

	return &Answer{
		Text:    strings.Join(texts, "\n\n"),
		Sources: sources,
		Matches: matches,
		Found:   true,
	}
}
