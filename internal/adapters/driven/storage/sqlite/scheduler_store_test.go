package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

// ==================== SchedulerStore Tests ====================

func TestSchedulerStore_SaveAndGetTask(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	now := time.Now().UTC()
	task := &domain.ScheduledTask{
		ID:          domain.TaskIDLibraryScan,
		Name:        "Library Scan",
		Interval:    domain.DefaultScanInterval,
		LastRun:     now.Add(-time.Hour),
		NextRun:     now.Add(5 * time.Hour),
		LastSuccess: now.Add(-time.Hour),
		Enabled:     true,
	}
	require.NoError(t, schedulerStore.SaveTask(ctx, task))

	got, err := schedulerStore.GetTask(ctx, domain.TaskIDLibraryScan)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, task.Name, got.Name)
	assert.Equal(t, task.Interval, got.Interval)
	assert.True(t, got.Enabled)
	assert.True(t, task.LastRun.Equal(got.LastRun))
	assert.True(t, task.NextRun.Equal(got.NextRun))
	assert.True(t, task.LastSuccess.Equal(got.LastSuccess))
	assert.Empty(t, got.LastError)
}

func TestSchedulerStore_GetTask_NotFound(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()

	task, err := schedulerStore.GetTask(context.Background(), "non-existent")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchedulerStore_SaveTask_Update(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	task := &domain.ScheduledTask{ID: "t", Name: "Task", Interval: time.Hour, Enabled: true}
	require.NoError(t, schedulerStore.SaveTask(ctx, task))

	task.LastError = "scan documents: permission denied"
	task.Enabled = false
	task.Interval = 2 * time.Hour
	require.NoError(t, schedulerStore.SaveTask(ctx, task))

	got, err := schedulerStore.GetTask(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "scan documents: permission denied", got.LastError)
	assert.False(t, got.Enabled)
	assert.Equal(t, 2*time.Hour, got.Interval)

	tasks, err := schedulerStore.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSchedulerStore_ZeroTimesStayZero(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	require.NoError(t, schedulerStore.SaveTask(ctx, &domain.ScheduledTask{ID: "new", Name: "New", Interval: time.Hour}))

	got, err := schedulerStore.GetTask(ctx, "new")
	require.NoError(t, err)
	assert.True(t, got.LastRun.IsZero())
	assert.True(t, got.NextRun.IsZero())
	assert.True(t, got.LastSuccess.IsZero())
}

func TestSchedulerStore_ListAndDelete(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	tasks, err := schedulerStore.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, schedulerStore.SaveTask(ctx, &domain.ScheduledTask{ID: id, Name: id, Interval: time.Hour}))
	}

	tasks, err = schedulerStore.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "a", tasks[0].ID)

	require.NoError(t, schedulerStore.DeleteTask(ctx, "a"))
	got, err := schedulerStore.GetTask(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSchedulerStore_NilInputs(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()

	assert.ErrorIs(t, schedulerStore.SaveTask(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, schedulerStore.RecordResult(context.Background(), nil), domain.ErrInvalidInput)
}

func TestSchedulerStore_RecordResultAndHistory(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
		TaskID: domain.TaskIDLibraryScan, StartedAt: now.Add(-2 * time.Hour), EndedAt: now.Add(-2 * time.Hour),
		Success: true, ItemsProcessed: 10,
	}))
	require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
		TaskID: domain.TaskIDLibraryScan, StartedAt: now.Add(-time.Hour), EndedAt: now.Add(-time.Hour),
		Success: true, Skipped: true,
	}))
	require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
		TaskID: domain.TaskIDLibraryScan, StartedAt: now, EndedAt: now.Add(time.Minute),
		Error: "scan images: store unavailable",
	}))

	history, err := schedulerStore.GetTaskHistory(ctx, domain.TaskIDLibraryScan, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.False(t, history[0].Success)
	assert.Equal(t, "scan images: store unavailable", history[0].Error)
	assert.True(t, history[1].Skipped)
	assert.Equal(t, 10, history[2].ItemsProcessed)
	assert.True(t, now.Equal(history[0].StartedAt))

	limited, err := schedulerStore.GetTaskHistory(ctx, domain.TaskIDLibraryScan, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := schedulerStore.GetTaskHistory(ctx, "other", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSchedulerStore_HistoryOrderWithSubsecondTimes(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// A whole second and a half second must still sort by time, not by string length.
	for i, d := range []time.Duration{0, 500 * time.Millisecond} {
		require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
			TaskID: "t", StartedAt: base.Add(d), EndedAt: base.Add(d), ItemsProcessed: i,
		}))
	}

	history, err := schedulerStore.GetTaskHistory(ctx, "t", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].ItemsProcessed)
}

func TestSchedulerStore_PruneHistory(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 10; i++ {
		require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
			TaskID:         domain.TaskIDLibraryScan,
			StartedAt:      now.Add(time.Duration(i) * time.Minute),
			EndedAt:        now.Add(time.Duration(i) * time.Minute),
			Success:        true,
			ItemsProcessed: i + 1,
		}))
	}
	require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{TaskID: "other", StartedAt: now, EndedAt: now}))

	require.NoError(t, schedulerStore.PruneHistory(ctx, 3))

	history, err := schedulerStore.GetTaskHistory(ctx, domain.TaskIDLibraryScan, 100)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 10, history[0].ItemsProcessed)
	assert.Equal(t, 8, history[2].ItemsProcessed)

	other, err := schedulerStore.GetTaskHistory(ctx, "other", 100)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

// ==================== Helper Function Tests ====================

func TestNullableHelpers(t *testing.T) {
	assert.Nil(t, nullableTime(time.Time{}))
	assert.Equal(t, "2024-05-01T12:00:00.000000000Z", nullableTime(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))

	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "x", nullIfEmpty("x"))

	assert.Equal(t, 1, boolToInt(true))
	assert.Equal(t, 0, boolToInt(false))
}
