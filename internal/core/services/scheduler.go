package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

var _ driving.Scheduler = (*Scheduler)(nil)

// checkInterval is how often the loop looks for a due task. The task
// interval itself is persisted state, so a coarse check is enough.
const checkInterval = time.Minute

// historyKeep bounds the stored run history per task.
const historyKeep = 100

// Scheduler drives the periodic knowledge-sync task. Task state lives
// in the scheduler store, so an interval missed while the process was
// down triggers a run on the next start.
type Scheduler struct {
	config   domain.SchedulerConfig
	store    driven.SchedulerStore
	syncOrch driving.SyncOrchestrator

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	syncOrch driving.SyncOrchestrator,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		syncOrch: syncOrch,
	}
}

// Start runs the scheduler loop. It blocks until Stop is called or the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	if err := s.reconcileTask(ctx); err != nil {
		log.Printf("scheduler: reconcile task state: %v", err)
	}

	// Catch up a missed interval immediately, then poll
	s.runIfDue(ctx)

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.runIfDue(ctx)
		}
	}
}

// Stop shuts the scheduler down and waits for an in-flight run to
// finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// reconcileTask writes the configured interval and enablement onto the
// persisted task, creating it on first start. A changed interval
// reschedules from now.
func (s *Scheduler) reconcileTask(ctx context.Context) error {
	task, err := s.store.GetTask(ctx, domain.TaskKnowledgeSync)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.SyncTask{
			Name:    domain.TaskKnowledgeSync,
			Every:   s.config.Frequency,
			Enabled: s.config.AutoSync,
			NextRun: time.Now().Add(s.config.Frequency),
		}
	} else {
		if task.Every != s.config.Frequency {
			task.Every = s.config.Frequency
			task.NextRun = time.Now().Add(s.config.Frequency)
		}
		task.Enabled = s.config.AutoSync
	}

	return s.store.SaveTask(ctx, task)
}

// runIfDue executes the knowledge-sync task when its next-run time has
// passed. The run happens on the loop goroutine, so two runs never
// overlap.
func (s *Scheduler) runIfDue(ctx context.Context) {
	task, err := s.store.GetTask(ctx, domain.TaskKnowledgeSync)
	if err != nil {
		log.Printf("scheduler: load task: %v", err)
		return
	}
	if task == nil || !task.Due(time.Now()) {
		return
	}

	s.runSync(ctx, task)
}

// runSync re-syncs every source, then persists the task state and the
// run record. Partial failures still count the documents that landed.
func (s *Scheduler) runSync(ctx context.Context, task *domain.SyncTask) {
	run := &domain.TaskRun{
		Task:      task.Name,
		StartedAt: time.Now(),
	}

	var syncErr error
	if s.syncOrch != nil {
		var reports []domain.IngestionReport
		reports, syncErr = s.syncOrch.SyncAll(ctx)
		for i := range reports {
			run.Documents += reports[i].Processed()
		}
	}

	run.FinishedAt = time.Now()
	if syncErr != nil {
		run.Err = syncErr.Error()
		task.LastError = syncErr.Error()
	} else {
		task.LastError = ""
		task.LastSuccess = run.FinishedAt
	}
	task.LastRun = run.StartedAt
	task.NextRun = run.FinishedAt.Add(task.Every)

	if err := s.store.SaveTask(ctx, task); err != nil {
		log.Printf("scheduler: save task %s: %v", task.Name, err)
	}
	if err := s.store.RecordRun(ctx, run); err != nil {
		log.Printf("scheduler: record run for %s: %v", task.Name, err)
	}
	if err := s.store.PruneRuns(ctx, historyKeep); err != nil {
		log.Printf("scheduler: prune run history: %v", err)
	}
}
