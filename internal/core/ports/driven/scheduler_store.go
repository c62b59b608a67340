package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// SchedulerStore persists recurring-task state and run history so the
// scheduler survives restarts.
type SchedulerStore interface {
	// GetTask retrieves a task by name. Returns nil and no error when
	// the task has never been saved.
	GetTask(ctx context.Context, name string) (*domain.SyncTask, error)

	// SaveTask creates or updates the task keyed by its Name.
	SaveTask(ctx context.Context, task *domain.SyncTask) error

	// RecordRun appends one execution to the task's history.
	RecordRun(ctx context.Context, run *domain.TaskRun) error

	// History returns recent runs for a task, most recent first.
	History(ctx context.Context, task string, limit int) ([]domain.TaskRun, error)

	// PruneRuns keeps only the most recent keep runs per task and
	// deletes the rest.
	PruneRuns(ctx context.Context, keep int) error
}
