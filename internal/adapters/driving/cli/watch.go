package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchNoSchedule bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch sources and re-sync on change",
	Long: `Watch configured sources for changes and re-sync automatically.

File changes are detected through the operating system and coalesced into
a single re-sync per source. When auto updates are enabled in settings, a
background scheduler also re-syncs all sources on the configured
frequency. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoSchedule, "no-schedule", false, "disable the periodic background sync")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if watcher == nil {
		return errServiceMissing("watcher")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cmd.Println("\nShutting down...")
		cancel()
	}()

	errCh := make(chan error, 2)

	if !watchNoSchedule && scheduler != nil {
		go func() {
			errCh <- scheduler.Start(ctx)
		}()
	}

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	go func() {
		errCh <- watcher.Start(ctx)
	}()

	// First failure wins; cancellation unwinds the other loop.
	err := <-errCh
	cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
