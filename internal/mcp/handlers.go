package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docqa/internal/indexer"
)

// makeAskHandler creates the ask tool handler.
// Blank questions are rejected; an empty index yields Found=false, not an error.
func makeAskHandler(asker Asker) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		if input.TopK < 0 {
			return nil, AskOutput{}, fmt.Errorf("top_k must be positive, got %d", input.TopK)
		}

		answer, err := asker.Answer(ctx, input.Question, input.TopK)
		if err != nil {
			return nil, AskOutput{}, fmt.Errorf("ask failed: %w", err)
		}

		return nil, AskOutput{
			Answer:  answer.Text,
			Sources: answer.Sources,
			Matches: toMatches(answer.Matches),
			Found:   answer.Found,
		}, nil
	}
}

// makeIngestTextHandler creates the ingest_text tool handler.
func makeIngestTextHandler(ingester Ingester) func(
	context.Context, *mcp.CallToolRequest, IngestTextInput,
) (*mcp.CallToolResult, IngestTextOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestTextInput) (
		*mcp.CallToolResult, IngestTextOutput, error,
	) {
		source := input.Source
		if source == "" {
			source = indexer.DefaultSource
		}

		chunks, err := ingester.IngestText(ctx, input.Text, source)
		if err != nil {
			return nil, IngestTextOutput{}, fmt.Errorf("ingest failed: %w", err)
		}

		return nil, IngestTextOutput{Source: source, Chunks: chunks}, nil
	}
}

// makeStatusHandler creates the index_status tool handler.
func makeStatusHandler(counter Counter, collection, backend string) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		total, err := counter.Count(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("store_error: failed to count points: %w", err)
		}

		return nil, StatusOutput{
			Collection:  collection,
			Backend:     backend,
			TotalPoints: total,
		}, nil
	}
}

func toMatches(in []indexer.Match) []Match {
	out := make([]Match, len(in))
	for i, m := range in {
		out[i] = Match{Text: m.Text, Source: m.Source, Score: m.Score}
	}
	return out
}
