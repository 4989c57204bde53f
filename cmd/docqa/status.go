package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vector store health and the number of indexed chunks",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Store.Health(ctx); err != nil {
		return fmt.Errorf("vector store unhealthy: %w", err)
	}
	total, err := a.Store.Count(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backend:    %s\n", a.Config.VectorStore)
	fmt.Fprintf(out, "Collection: %s\n", a.Config.Collection)
	fmt.Fprintf(out, "Dimension:  %d\n", a.Config.EmbeddingDimensions)
	fmt.Fprintf(out, "Distance:   %s\n", a.Config.Distance)
	fmt.Fprintf(out, "Points:     %d\n", total)
	return nil
}
