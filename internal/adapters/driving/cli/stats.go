package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	Long:  `Show counts of sources, documents, chunks, and indexed vectors.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if statsSvc == nil {
		return errServiceMissing("stats service")
	}

	ctx := context.Background()
	stats, err := statsSvc.Corpus(ctx)
	if err != nil {
		return fmt.Errorf("load corpus stats: %w", err)
	}

	cmd.Println("Corpus Statistics")
	cmd.Println("=================")
	cmd.Printf("  Sources: %d\n", stats.Sources)
	cmd.Printf("  Documents: %d\n", stats.Documents)
	cmd.Printf("  Chunks: %d\n", stats.Chunks)
	cmd.Printf("  Vectors: %d\n", stats.Vectors)

	if len(stats.ByCategory) > 0 {
		cmd.Println()
		cmd.Println("By category:")
		for _, category := range slices.Sorted(maps.Keys(stats.ByCategory)) {
			cmd.Printf("  %s: %d\n", category, stats.ByCategory[category])
		}
	}

	if len(stats.ByContentType) > 0 {
		cmd.Println()
		cmd.Println("By content type:")
		for _, contentType := range slices.Sorted(maps.Keys(stats.ByContentType)) {
			cmd.Printf("  %s: %d\n", contentType, stats.ByContentType[contentType])
		}
	}

	if stats.Documents == 0 {
		cmd.Println()
		cmd.Println("The knowledge base is empty. Run 'recall sync' to index your sources.")
	}

	return nil
}
