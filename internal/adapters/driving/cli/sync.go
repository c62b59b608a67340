package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

// pollEvery is how often the progress line refreshes during a sync.
const pollEvery = 500 * time.Millisecond

var syncCmd = &cobra.Command{
	Use:   "sync [source-id]",
	Short: "Sync sources into the local index",
	Long: `Runs ingestion for one source, or for every configured source when
no source ID is given. New and changed files are chunked, embedded and
written to the index; files deleted from a source leave it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrch == nil {
		return errServiceMissing("sync service")
	}

	ctx := context.Background()

	if len(args) == 1 {
		sourceID := args[0]
		cmd.Printf("Synchronising %s...\n", sourceID)

		report, err := syncOne(ctx, cmd, syncOrch, sourceID)
		if err != nil {
			return fmt.Errorf("sync %s: %w", sourceID, err)
		}
		printReport(cmd, report)
		return nil
	}

	cmd.Println("Synchronising every configured source...")

	reports, err := syncOrch.SyncAll(ctx)
	for i := range reports {
		printReport(cmd, &reports[i])
	}
	if err != nil {
		return fmt.Errorf("sync all: %w", err)
	}
	if len(reports) == 0 {
		cmd.Println("No sources configured. Run 'recall source add filesystem' first.")
		return nil
	}

	cmd.Println("Sync complete.")
	return nil
}

// syncOne runs a single source sync, echoing the document count to the
// terminal while the run is in flight.
func syncOne(ctx context.Context, cmd *cobra.Command, orch driving.SyncOrchestrator, sourceID string) (*domain.IngestionReport, error) {
	var (
		report *domain.IngestionReport
		runErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		report, runErr = orch.Sync(ctx, sourceID)
	}()

	tick := time.NewTicker(pollEvery)
	defer tick.Stop()

	shown := 0
	for {
		select {
		case <-done:
			if shown > 0 {
				cmd.Println()
			}
			return report, runErr
		case <-tick.C:
			shown = echoProgress(ctx, cmd, orch, sourceID, shown)
		}
	}
}

// echoProgress rewrites the progress line when the document count has
// moved. Status lookups are best effort; a failing one shows nothing.
func echoProgress(ctx context.Context, cmd *cobra.Command, orch driving.SyncOrchestrator, sourceID string, shown int) int {
	status, err := orch.Status(ctx, sourceID)
	if err != nil || status == nil || status.DocumentsProcessed <= shown {
		return shown
	}
	cmd.Printf("\r%d documents processed", status.DocumentsProcessed)
	return status.DocumentsProcessed
}

// printReport summarises one source's run, including per-document
// failures.
func printReport(cmd *cobra.Command, report *domain.IngestionReport) {
	if report == nil {
		return
	}

	cmd.Printf("%s: %d added, %d updated, %d skipped, %d removed (%d chunks indexed, %s)\n",
		report.SourceID,
		report.Added,
		report.Updated,
		report.Skipped,
		report.Removed,
		report.ChunksIndexed,
		report.Duration().Round(time.Millisecond),
	)

	for i := range report.Failed {
		cmd.Printf("  failed: %s: %s\n", report.Failed[i].Path, report.Failed[i].Reason)
	}
}
