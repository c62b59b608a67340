package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// schedulerStore implements driven.SchedulerStore over the sync_tasks
// and task_runs tables. Times are stored as RFC 3339 strings; a NULL
// error column marks a successful run.
type schedulerStore struct {
	db *sql.DB
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

func (s *schedulerStore) GetTask(ctx context.Context, name string) (*domain.SyncTask, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, interval_seconds, enabled, last_run, next_run, last_error, last_success
		FROM sync_tasks WHERE name = ?
	`, name)

	var task domain.SyncTask
	var intervalSeconds int64
	var enabled int
	var lastRun, nextRun, lastError, lastSuccess sql.NullString

	err := row.Scan(&task.Name, &intervalSeconds, &enabled,
		&lastRun, &nextRun, &lastError, &lastSuccess)
	if errors.Is(err, sql.ErrNoRows) {
		// Never-saved tasks are not an error
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan sync task: %w", err)
	}

	task.Every = time.Duration(intervalSeconds) * time.Second
	task.Enabled = enabled == 1
	task.LastRun = timeFromColumn(lastRun)
	task.NextRun = timeFromColumn(nextRun)
	task.LastError = lastError.String
	task.LastSuccess = timeFromColumn(lastSuccess)

	return &task, nil
}

func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.SyncTask) error {
	if task == nil || task.Name == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_tasks (name, interval_seconds, enabled, last_run, next_run, last_error, last_success)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			interval_seconds = excluded.interval_seconds,
			enabled          = excluded.enabled,
			last_run         = excluded.last_run,
			next_run         = excluded.next_run,
			last_error       = excluded.last_error,
			last_success     = excluded.last_success
	`, task.Name, int64(task.Every.Seconds()), flagToInt(task.Enabled),
		timeToColumn(task.LastRun), timeToColumn(task.NextRun),
		emptyToNull(task.LastError), timeToColumn(task.LastSuccess))

	if err != nil {
		return fmt.Errorf("save sync task: %w", err)
	}
	return nil
}

func (s *schedulerStore) RecordRun(ctx context.Context, run *domain.TaskRun) error {
	if run == nil || run.Task == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_runs (task, started_at, finished_at, documents, error)
		VALUES (?, ?, ?, ?, ?)
	`, run.Task,
		run.StartedAt.Format(time.RFC3339),
		run.FinishedAt.Format(time.RFC3339),
		run.Documents,
		emptyToNull(run.Err))

	if err != nil {
		return fmt.Errorf("record task run: %w", err)
	}
	return nil
}

func (s *schedulerStore) History(ctx context.Context, task string, limit int) ([]domain.TaskRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task, started_at, finished_at, documents, error
		FROM task_runs
		WHERE task = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, task, limit)
	if err != nil {
		return nil, fmt.Errorf("query task history: %w", err)
	}
	defer rows.Close()

	var runs []domain.TaskRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.TaskRun
		var startedAt, finishedAt string
		var errMsg sql.NullString

		if err := rows.Scan(&run.Task, &startedAt, &finishedAt, &run.Documents, &errMsg); err != nil {
			return nil, fmt.Errorf("scan task run: %w", err)
		}

		run.StartedAt = timeFromColumn(sql.NullString{String: startedAt, Valid: true})
		run.FinishedAt = timeFromColumn(sql.NullString{String: finishedAt, Valid: true})
		run.Err = errMsg.String
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task history: %w", err)
	}

	return runs, nil
}

func (s *schedulerStore) PruneRuns(ctx context.Context, keep int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM task_runs
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY task ORDER BY started_at DESC, id DESC) AS rn
				FROM task_runs
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("prune task runs: %w", err)
	}
	return nil
}

// timeToColumn renders a time as RFC 3339, or NULL for the zero time.
func timeToColumn(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

// timeFromColumn parses a nullable RFC 3339 column. NULL, empty and
// malformed values map to the zero time.
func timeFromColumn(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// emptyToNull stores empty strings as NULL.
func emptyToNull(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// flagToInt renders a bool as a 0/1 column value.
func flagToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
