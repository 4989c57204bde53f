package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docqa/internal/indexer"
)

// Asker answers questions from the index.
type Asker interface {
	Answer(ctx context.Context, question string, topK int) (*indexer.Answer, error)
}

// Ingester indexes raw text.
type Ingester interface {
	IngestText(ctx context.Context, text, source string) (int, error)
}

// Counter reports the number of stored points.
type Counter interface {
	Count(ctx context.Context) (uint64, error)
}

// Server wraps the MCP server with dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Asker    Asker
	Ingester Ingester
	Store    Counter
	// Collection and Backend are reported by index_status.
	Collection string
	Backend    string
	Version    string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "v0.1.0"
	}
	impl := &mcp.Implementation{
		Name:    "docqa",
		Version: version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question with the most similar passages from the indexed documents. Returns the passages verbatim and the distinct sources they came from.",
	}, makeAskHandler(cfg.Asker))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_text",
		Description: "Index raw text under a source label. Re-ingesting a source overwrites chunks with the same position.",
	}, makeIngestTextHandler(cfg.Ingester))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the collection name, storage backend and total number of indexed chunks.",
	}, makeStatusHandler(cfg.Store, cfg.Collection, cfg.Backend))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
