package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

var (
	contextBudget int
	contextLimit  int
)

var contextCmd = &cobra.Command{
	Use:   "context <query>",
	Short: "Assemble retrieved passages into a context block",
	Long: `Retrieves the most relevant chunks for a query and assembles them
into a single block suitable for pasting into an LLM prompt. The block
is capped at a token budget, estimated at four characters per token.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().IntVar(&contextBudget, "budget", 0, "token budget (0 = default)")
	contextCmd.Flags().IntVarP(&contextLimit, "limit", "n", 0, "maximum passages considered (0 = configured default)")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if searchSvc == nil {
		return errServiceMissing("search service")
	}

	block, err := searchSvc.BuildContext(context.Background(), args[0], domain.SearchOptions{
		Limit:    contextLimit,
		MinScore: -1,
	}, contextBudget)
	if err != nil {
		return fmt.Errorf("assemble context: %w", err)
	}

	if block == "" {
		cmd.Println("No relevant passages found.")
		return nil
	}

	cmd.Println(block)
	return nil
}
