// Package main provides the document question-answering server: the REST API
// and MCP tools over HTTP, or MCP over stdio.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/docqa/internal/api"
	"github.com/bull/docqa/internal/app"
	"github.com/bull/docqa/internal/config"
	mcpserver "github.com/bull/docqa/internal/mcp"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "docqa-server",
	Short: "Serve document upload and retrieval over HTTP and MCP",
	Long: `Serves POST /upload, POST /ask, POST /import_cms, GET /health and /mcp.

With SERVER_MODE=stdio the MCP tools are served over stdin/stdout instead and
the HTTP endpoints keep running in the background.

Configuration comes from the environment (see .env.example) and an optional
YAML file passed with --config.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// stdout carries the MCP stream in stdio mode
	logger := app.NewLogger(cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Printf("startup failed: %v", err)
		return err
	}
	defer a.Close()

	server := mcpserver.NewServer(&mcpserver.Config{
		Asker:      a.Retriever,
		Ingester:   a.Pipeline,
		Store:      a.Store,
		Collection: cfg.Collection,
		Backend:    cfg.VectorStore,
	})

	mux := api.NewMux(api.Options{
		Ingester:       a.Pipeline,
		Asker:          a.Retriever,
		Health:         a.Store,
		MCP:            mcpserver.NewHTTPHandler(server, nil),
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", httpServer.Addr, "mode", cfg.ServerMode)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.ServerMode == config.ModeStdio {
		logger.Info("Starting MCP server (stdio mode)")
		err = server.Run(ctx)
	} else {
		select {
		case <-ctx.Done():
		case err = <-errCh:
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP shutdown", "error", shutdownErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("server error: %v", err)
		return err
	}
	logger.Info("Server stopped")
	return nil
}
