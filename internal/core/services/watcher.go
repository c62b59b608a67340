package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/logger"
)

var _ driving.Watcher = (*Watcher)(nil)

// defaultDebounce coalesces editor save bursts into a single re-sync.
const defaultDebounce = 2 * time.Second

// Watcher re-syncs sources when their files change on disk. Each source
// gets its own debounce window, so a burst of writes triggers one run.
type Watcher struct {
	sourceStore driven.SourceStore
	factory     driven.ConnectorFactory
	syncOrch    driving.SyncOrchestrator
	debounce    time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher. A non-positive debounce falls back to
// the default.
func NewWatcher(
	sourceStore driven.SourceStore,
	factory driven.ConnectorFactory,
	syncOrch driving.SyncOrchestrator,
	debounce time.Duration,
) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		sourceStore: sourceStore,
		factory:     factory,
		syncOrch:    syncOrch,
		debounce:    debounce,
	}
}

// Start begins watching every configured source that supports change
// events. This method blocks until the context is cancelled or Stop is
// called. Returns an error when no source can be watched.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	sources, err := w.sourceStore.List(ctx)
	if err != nil {
		w.reset()
		return fmt.Errorf("list sources: %w", err)
	}

	watching := 0
	for i := range sources {
		if w.watchOne(ctx, stopCh, sources[i]) {
			watching++
		}
	}

	if watching == 0 {
		w.reset()
		return fmt.Errorf("%w: no sources support change watching", domain.ErrNotFound)
	}

	logger.Info("Watching %d source(s) for changes", watching)

	select {
	case <-ctx.Done():
		w.wg.Wait()
		return ctx.Err()
	case <-stopCh:
		w.wg.Wait()
		return nil
	}
}

// Stop shuts down all source watchers.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

func (w *Watcher) reset() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

// watchOne connects a single source's change stream to a watch
// goroutine. Sources that cannot be watched are skipped, not fatal.
func (w *Watcher) watchOne(ctx context.Context, stopCh <-chan struct{}, source domain.Source) bool {
	conn, err := w.factory.Create(ctx, source)
	if err != nil {
		logger.Info("Watch skipped for %s: %v", source.ID, err)
		return false
	}
	if !conn.Capabilities().SupportsWatch {
		conn.Close() //nolint:errcheck
		return false
	}

	changes, err := conn.Watch(ctx)
	if err != nil {
		conn.Close() //nolint:errcheck
		logger.Info("Watch failed for %s: %v", source.ID, err)
		return false
	}

	w.wg.Add(1)
	go w.watchSource(ctx, stopCh, source.ID, conn, changes)
	return true
}

// watchSource consumes change events for one source and schedules a
// re-sync after a quiet period. Each event resets the timer.
func (w *Watcher) watchSource(
	ctx context.Context,
	stopCh <-chan struct{},
	sourceID string,
	conn driven.Connector,
	changes <-chan domain.RawDocumentChange,
) {
	defer w.wg.Done()
	defer conn.Close() //nolint:errcheck

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	pending := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			pending++
			logger.Debug("Change detected (%s): %s", change.Type, change.Document.Path)
			timer.Reset(w.debounce)
		case <-timer.C:
			if err := w.resync(ctx, sourceID, pending); errors.Is(err, domain.ErrSyncInProgress) {
				// The claim is held by a run whose walk may already have
				// passed the changed files. Retry after another window.
				timer.Reset(w.debounce)
				continue
			}
			pending = 0
		}
	}
}

// resync runs a full source sync. The content-hash manifest makes this
// cheap: unchanged documents are skipped, so a run costs roughly one
// walk plus the changed files.
func (w *Watcher) resync(ctx context.Context, sourceID string, pending int) error {
	logger.Info("Re-syncing %s after %d change(s)", sourceID, pending)

	report, err := w.syncOrch.Sync(ctx, sourceID)
	if err != nil {
		if !errors.Is(err, domain.ErrSyncInProgress) {
			logger.Info("Re-sync failed for %s: %v", sourceID, err)
		}
		return err
	}

	logger.Info("Re-synced %s: %d added, %d updated, %d removed",
		sourceID, report.Added, report.Updated, report.Removed)
	return nil
}
