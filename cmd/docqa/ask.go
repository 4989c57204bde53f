package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bull/docqa/internal/indexer"
)

var (
	askTopK   int
	askOutput string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Retrieve the passages most similar to a question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default: top_k setting)")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "text", "output format: text, json or yaml")
}

// askResult is the machine-readable ask output.
type askResult struct {
	Answer  string          `json:"answer" yaml:"answer"`
	Sources []string        `json:"sources" yaml:"sources"`
	Matches []indexer.Match `json:"matches" yaml:"matches"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askTopK < 0 {
		return fmt.Errorf("--top-k must be positive")
	}
	switch askOutput {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", askOutput)
	}

	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.Retriever.Answer(ctx, strings.Join(args, " "), askTopK)
	if err != nil {
		return err
	}

	return writeAnswer(cmd.OutOrStdout(), answer, askOutput)
}

func writeAnswer(w io.Writer, answer *indexer.Answer, format string) error {
	result := askResult{
		Answer:  answer.Text,
		Sources: answer.Sources,
		Matches: answer.Matches,
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	}

	fmt.Fprintln(w, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Sources: %s\n", strings.Join(answer.Sources, ", "))
	}
	return nil
}
