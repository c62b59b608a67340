package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

var (
	searchLimit      int
	searchThreshold  float64
	searchRerank     string
	searchCategories []string
	searchSources    []string
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Long: `Performs semantic search across all indexed documents.
The query is embedded and matched against the local vector index;
results below the similarity threshold are dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = configured default)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", -1, "minimum similarity score (-1 = configured default)")
	searchCmd.Flags().StringVar(&searchRerank, "rerank", "", "override the reranker for this query (on|off)")
	searchCmd.Flags().StringSliceVarP(&searchCategories, "category", "c", nil, "restrict results to categories")
	searchCmd.Flags().StringSliceVar(&searchSources, "source", nil, "restrict results to source IDs")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "emit results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchSvc == nil {
		return errServiceMissing("search service")
	}

	rerank, err := parseRerankMode(searchRerank)
	if err != nil {
		return err
	}

	categories := make([]domain.Category, 0, len(searchCategories))
	for _, name := range searchCategories {
		categories = append(categories, domain.Category(name))
	}

	results, err := searchSvc.Search(context.Background(), args[0], domain.SearchOptions{
		Limit:      searchLimit,
		MinScore:   searchThreshold,
		Rerank:     rerank,
		Categories: categories,
		SourceIDs:  searchSources,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if searchJSON {
		return printResultsJSON(cmd, results)
	}
	return printResultsTable(cmd, results)
}

func parseRerankMode(value string) (domain.RerankMode, error) {
	switch value {
	case "":
		return domain.RerankDefault, nil
	case "on":
		return domain.RerankOn, nil
	case "off":
		return domain.RerankOff, nil
	default:
		return domain.RerankDefault, fmt.Errorf("invalid --rerank value %q (want on or off)", value)
	}
}

func printResultsJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	return nil
}

func printResultsTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No matches.")
		return nil
	}

	noun := "results"
	if len(results) == 1 {
		noun = "result"
	}
	cmd.Printf("%d %s:\n\n", len(results), noun)

	for i, res := range results {
		title := res.Document.Title
		if title == "" {
			title = res.Document.ID
		}

		cmd.Printf("%3d. %s  (score %.2f)\n", i+1, title, res.Score)
		if where := resultLocation(&res); where != "" {
			cmd.Printf("     %s\n", where)
		}
		if len(res.Highlights) > 0 {
			cmd.Printf("     > %s\n", res.Highlights[0])
		}
		cmd.Println()
	}
	return nil
}

// resultLocation joins the document path and source name into one
// locator line, tolerating either being absent.
func resultLocation(res *domain.SearchResult) string {
	switch {
	case res.Document.Path != "" && res.SourceName != "":
		return fmt.Sprintf("%s (%s)", res.Document.Path, res.SourceName)
	case res.Document.Path != "":
		return res.Document.Path
	default:
		return res.SourceName
	}
}
