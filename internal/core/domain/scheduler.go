package domain

import "time"

// TaskKnowledgeSync is the recurring task that re-syncs every
// configured source.
const TaskKnowledgeSync = "knowledge-sync"

// SyncTask is the persisted state of a recurring background task,
// keyed by name. State survives restarts, so an interval missed while
// the process was down is caught up on the next start.
type SyncTask struct {
	// Name identifies the task, e.g. TaskKnowledgeSync.
	Name string

	// Every is the interval between runs.
	Every time.Duration

	// Enabled gates execution without losing the recorded state.
	Enabled bool

	// LastRun is when the task last started.
	LastRun time.Time

	// NextRun is when the task is next due. Zero means due now.
	NextRun time.Time

	// LastError is the message from the most recent failed run,
	// cleared by the next clean one.
	LastError string

	// LastSuccess is when the task last completed cleanly.
	LastSuccess time.Time
}

// Due reports whether the task should run at now.
func (t *SyncTask) Due(now time.Time) bool {
	if !t.Enabled {
		return false
	}
	return t.NextRun.IsZero() || !t.NextRun.After(now)
}

// TaskRun records one execution of a task.
type TaskRun struct {
	// Task names the task that ran.
	Task string

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// Documents is how many documents the run processed.
	Documents int

	// Err is the failure message, empty on success.
	Err string
}

// Succeeded reports whether the run completed without error.
func (r *TaskRun) Succeeded() bool {
	return r.Err == ""
}

// Duration returns the wall time the run took.
func (r *TaskRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SchedulerConfig holds the scheduler settings, derived from the
// updates.* configuration keys.
type SchedulerConfig struct {
	// AutoSync enables the periodic re-sync (updates.auto_update).
	AutoSync bool

	// Frequency is the re-sync interval (updates.frequency).
	Frequency time.Duration
}

// DefaultSchedulerConfig returns the scheduler defaults: a daily
// re-sync of all sources.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		AutoSync:  true,
		Frequency: 24 * time.Hour,
	}
}
