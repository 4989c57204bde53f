// Package main provides the docqa CLI for indexing documents and querying the index.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/docqa/internal/app"
	"github.com/bull/docqa/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Document question-answering index tool",
	Long: `CLI tool for loading documents into the vector index and querying it.

Environment variables:
  VECTOR_STORE     qdrant, sqlite or memory (default: qdrant)
  QDRANT_HOST      Qdrant hostname (default: localhost)
  QDRANT_PORT      Qdrant gRPC port (default: 6334)
  SQLITE_PATH      SQLite database file (default: docqa.db)
  COLLECTION_NAME  Collection name (default: document_chatbot)
  OPENAI_API_KEY   OpenAI API key for embeddings (required)
  GITHUB_TOKEN     GitHub token for higher rate limits (optional)`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(ingestCmd, importCmd, askCmd, syncGitHubCmd, statusCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

// loadApp builds the components from configuration. Logs go to stderr so
// command output on stdout stays clean.
func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.NewLogger(cfg.LogLevel, os.Stderr))
}
