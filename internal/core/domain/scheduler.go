package domain

import "time"

// ScheduledTask is a periodic job and its run history as persisted between
// process restarts.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration

	// LastRun and NextRun are zero until the task first fires.
	LastRun time.Time
	NextRun time.Time

	// LastError is cleared by the next successful run.
	LastError   string
	LastSuccess time.Time

	Enabled bool
}

// TaskResult is what a single firing of a task produced.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time

	Success bool
	// Skipped is set when the orchestrator was already busy with a bulk scan.
	// A skipped run still counts as a success.
	Skipped bool
	Error   string

	// ItemsProcessed counts records written to the store.
	ItemsProcessed int
}

// SchedulerConfig controls the background loop.
type SchedulerConfig struct {
	// Enabled false means Start is a no-op.
	Enabled bool

	// CheckInterval is the tick on which stored NextRun times are compared
	// against the clock.
	CheckInterval time.Duration

	TaskConfigs map[string]TaskConfig
}

// TaskConfig is the per-task switch and period.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig looks up taskID, falling back to a disabled zero value.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultScanInterval is the period between unattended library scans.
const DefaultScanInterval = 6 * time.Hour

// DefaultSchedulerConfig enables only the library scan, checked once a minute.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:       true,
		CheckInterval: time.Minute,
		TaskConfigs: map[string]TaskConfig{
			TaskIDLibraryScan: {
				Enabled:  true,
				Interval: DefaultScanInterval,
			},
		},
	}
}

// TaskIDLibraryScan names the periodic bulk scan of every configured root.
const TaskIDLibraryScan = "library-scan"
