package driven

import (
	"context"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

// SchedulerStore persists scheduler state across restarts so a scan that ran
// shortly before shutdown is not repeated on startup.
type SchedulerStore interface {
	// GetTask yields (nil, nil) for an unknown ID.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)
	// SaveTask upserts on ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error
	DeleteTask(ctx context.Context, taskID string) error

	RecordResult(ctx context.Context, result *domain.TaskResult) error
	// GetTaskHistory is newest first, at most limit entries.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)
	// PruneHistory drops all but the newest keep results of each task.
	PruneHistory(ctx context.Context, keep int) error
}
