package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/docqa/internal/indexer"
)

var (
	ingestSource  string
	ingestInclude []string
	ingestExclude []string
	importSource  string
	importFile    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file-or-directory>",
	Short: "Parse and index local documents",
	Long: `Indexes a single document or every supported document (pdf, docx, csv, txt, md)
below a directory. Each document's source label is its path relative to the
argument. Re-ingesting a source overwrites chunks with the same position.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Index raw text from a file or stdin",
	Args:  cobra.NoArgs,
	RunE:  runImport,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source label for a single file (default: file name)")
	ingestCmd.Flags().StringSliceVar(&ingestInclude, "include", nil, "only ingest paths matching these globs (** allowed)")
	ingestCmd.Flags().StringSliceVar(&ingestExclude, "exclude", nil, "skip paths matching these globs (** allowed)")
	importCmd.Flags().StringVar(&importSource, "source", "CMS", "source label stored with every chunk")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "-", "text file to read, - for stdin")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() && ingestSource != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		chunks, err := a.Pipeline.IngestFile(ctx, path, data, ingestSource)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ingested %s: %d chunks\n", ingestSource, chunks)
		return nil
	}

	src, err := indexer.NewFiltered(indexer.DirSource{Root: path}, ingestInclude, ingestExclude)
	if err != nil {
		return err
	}

	progress := newBarProgress("ingesting")
	result, err := a.Pipeline.IngestAll(ctx, src, progress)
	progress.Finish()
	if err != nil {
		if result != nil {
			printResult(cmd.OutOrStdout(), result)
		}
		return err
	}

	printResult(cmd.OutOrStdout(), result)
	fmt.Fprintf(cmd.OutOrStdout(), "Total time: %s\n", time.Since(start).Round(time.Millisecond))
	return checkResult(result)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var r io.Reader = cmd.InOrStdin()
	if importFile != "-" {
		f, err := os.Open(importFile)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	chunks, err := a.Pipeline.IngestText(ctx, string(text), importSource)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported CMS content: %s (%d chunks)\n", importSource, chunks)
	return nil
}

// checkResult fails a batch in which documents were found but none was ingested.
func checkResult(result *indexer.IndexResult) error {
	if result.TotalDocs > 0 && result.SuccessfulDocs == 0 {
		return fmt.Errorf("all %d documents failed", result.TotalDocs)
	}
	return nil
}

func printResult(w io.Writer, result *indexer.IndexResult) {
	fmt.Fprintf(w, "Documents: %d/%d\n", result.SuccessfulDocs, result.TotalDocs)
	fmt.Fprintf(w, "Chunks: %d\n", result.TotalChunks)
	fmt.Fprintf(w, "Duration: %s\n", result.Duration.Round(time.Millisecond))

	if len(result.FailedDocs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failed documents:")
		for _, failed := range result.FailedDocs {
			fmt.Fprintf(w, "  - %s: %s\n", failed.Path, failed.Reason)
		}
	}
}
