package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	ghclient "github.com/bull/docqa/internal/github"
	"github.com/bull/docqa/internal/indexer"
)

var (
	syncOwner string
	syncRepo  string
	syncPath  string
	syncRef   string

	syncInclude []string
	syncExclude []string
)

var syncGitHubCmd = &cobra.Command{
	Use:   "sync-github",
	Short: "Index documents from a GitHub repository",
	Long: `Fetches every supported document below --path of a GitHub repository and
indexes it with its path relative to --path as the source label.

This command:
1. Connects to the vector store and ensures the collection
2. Resolves the latest commit touching the path
3. Lists and downloads supported documents (pdf, docx, csv, txt, md)
4. Parses, chunks, embeds and stores each document

Documents that fail are reported and skipped. Set GITHUB_TOKEN for higher rate limits.`,
	Args: cobra.NoArgs,
	RunE: runSyncGitHub,
}

func init() {
	syncGitHubCmd.Flags().StringVar(&syncOwner, "owner", "", "repository owner (required)")
	syncGitHubCmd.Flags().StringVar(&syncRepo, "repo", "", "repository name (required)")
	syncGitHubCmd.Flags().StringVar(&syncPath, "path", "", "directory within the repository")
	syncGitHubCmd.Flags().StringVar(&syncRef, "ref", "", "branch, tag or commit (default: default branch)")
	syncGitHubCmd.Flags().StringSliceVar(&syncInclude, "include", nil, "only sync paths matching these globs (** allowed)")
	syncGitHubCmd.Flags().StringSliceVar(&syncExclude, "exclude", nil, "skip paths matching these globs (** allowed)")
	_ = syncGitHubCmd.MarkFlagRequired("owner")
	_ = syncGitHubCmd.MarkFlagRequired("repo")
}

func runSyncGitHub(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Starting sync...")

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	gh, err := ghclient.NewClient(ghclient.ClientOptions{Token: a.Config.GitHubToken})
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	fetcher := ghclient.NewFetcher(gh, syncOwner, syncRepo, syncPath, syncRef)
	src, err := indexer.NewFiltered(fetcher, syncInclude, syncExclude)
	if err != nil {
		return err
	}

	commit, err := fetcher.LatestCommitSHA(ctx)
	if err != nil {
		return err
	}
	a.Logger.Info("Starting indexing", "repo", syncOwner+"/"+syncRepo, "path", syncPath, "commit", commit)

	progress := newBarProgress("syncing")
	result, err := a.Pipeline.IngestAll(ctx, src, progress)
	progress.Finish()
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Sync complete!")
	fmt.Fprintf(out, "Commit: %s\n", commit)
	printResult(out, result)
	fmt.Fprintf(out, "Total time: %s\n", time.Since(start).Round(time.Second))
	return checkResult(result)
}
