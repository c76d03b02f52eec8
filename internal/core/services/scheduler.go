package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
	"github.com/custodia-labs/homenet/internal/core/ports/driving"
	"github.com/custodia-labs/homenet/internal/logger"
)

var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention caps stored results per task.
const historyRetention = 100

// Scheduler fires the library scan on a fixed interval.
// It holds no lock around the scan itself: overlapping fires are
// turned into no-ops by the ingest service's busy flag.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SchedulerStore
	ingest driving.IngestService

	mu       sync.Mutex
	started  bool
	stopping chan struct{}
	inflight sync.WaitGroup
}

// NewScheduler returns a stopped scheduler. A non-positive CheckInterval
// becomes one minute.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	ingest driving.IngestService,
) *Scheduler {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &Scheduler{
		config: config,
		store:  store,
		ingest: ingest,
	}
}

// Start blocks until Stop or ctx cancellation. A second concurrent Start
// returns nil straight away.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.stopping = make(chan struct{})
	stopping := s.stopping
	s.mu.Unlock()

	if !s.config.Enabled {
		logger.Info("Scheduler disabled")
		<-stopOrDone(ctx, stopping)
		return ctx.Err()
	}

	if err := s.registerTasks(ctx); err != nil {
		logger.Error("scheduler: registering tasks: %v", err)
	}

	return s.loop(ctx, stopping)
}

// Stop ends the loop and waits for any in-flight scan.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	close(s.stopping)
	s.mu.Unlock()

	s.inflight.Wait()
	return nil
}

func (s *Scheduler) registerTasks(ctx context.Context) error {
	cfg := s.config.GetTaskConfig(domain.TaskIDLibraryScan)
	if !cfg.Enabled {
		return nil
	}
	return s.upsertTask(ctx, domain.TaskIDLibraryScan, "Library Scan", cfg)
}

// upsertTask stores the configured interval for id. A task seen for the
// first time has a zero NextRun and so fires on the first tick; an existing
// task whose interval changed is pushed one new interval out.
func (s *Scheduler) upsertTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case task == nil:
		task = &domain.ScheduledTask{ID: id, Name: name, Interval: cfg.Interval}
	case task.Interval != cfg.Interval:
		task.Interval = cfg.Interval
		task.NextRun = time.Now().Add(cfg.Interval)
	}
	task.Enabled = cfg.Enabled

	return s.store.SaveTask(ctx, task)
}

func (s *Scheduler) loop(ctx context.Context, stopping <-chan struct{}) error {
	s.fireDue(ctx)

	tick := time.NewTicker(s.config.CheckInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopping:
			return nil
		case <-tick.C:
			s.fireDue(ctx)
		}
	}
}

// fireDue launches every enabled task whose NextRun has passed.
func (s *Scheduler) fireDue(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: listing tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if task.Enabled && !task.NextRun.After(now) {
			s.fire(ctx, task)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, task *domain.ScheduledTask) {
	if task.ID != domain.TaskIDLibraryScan {
		logger.Warn("scheduler: no handler for task %s", task.ID)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		result := &domain.TaskResult{TaskID: task.ID, StartedAt: time.Now()}
		var err error
		result.ItemsProcessed, result.Skipped, err = s.scanLibrary(ctx)
		result.EndedAt = time.Now()

		s.record(context.WithoutCancel(ctx), task, result, err)
	}()
}

// record persists a finished run. ctx must outlive the run so a cancelled
// scan still leaves its outcome behind.
func (s *Scheduler) record(ctx context.Context, task *domain.ScheduledTask, result *domain.TaskResult, runErr error) {
	result.Success = runErr == nil
	switch {
	case runErr != nil:
		result.Error = runErr.Error()
		task.LastError = result.Error
	case result.Skipped:
		// No scan ran, so the previous outcome still stands.
	default:
		task.LastError = ""
		task.LastSuccess = result.EndedAt
	}
	task.LastRun = result.StartedAt
	task.NextRun = result.EndedAt.Add(task.Interval)

	if err := s.store.SaveTask(ctx, task); err != nil {
		logger.Error("scheduler: saving task %s: %v", task.ID, err)
	}
	if err := s.store.RecordResult(ctx, result); err != nil {
		logger.Error("scheduler: recording result for %s: %v", task.ID, err)
	}
	if err := s.store.PruneHistory(ctx, historyRetention); err != nil {
		logger.Error("scheduler: pruning history: %v", err)
	}
}

func (s *Scheduler) scanLibrary(ctx context.Context) (processed int, skipped bool, err error) {
	if s.ingest == nil {
		return 0, false, nil
	}

	logger.Info("Scheduled library scan starting")
	run, err := s.ingest.ScanAndIngestAll(ctx)
	if run == nil {
		return 0, false, err
	}
	if run.Skipped {
		logger.Info("Scheduled library scan skipped: scan already running")
		return 0, true, nil
	}
	if n := run.ErrorCount(); n > 0 {
		logger.Warn("Scheduled library scan finished with %d file errors", n)
	}
	return run.Processed(), false, err
}

// stopOrDone closes its result when ctx ends or stop closes, whichever is first.
func stopOrDone(ctx context.Context, stop <-chan struct{}) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		select {
		case <-ctx.Done():
		case <-stop:
		}
	}()
	return out
}
