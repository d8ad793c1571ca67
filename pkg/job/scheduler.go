package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs scheduled tasks in-process. It serves deployments without
// PostgreSQL, where River is unavailable. Tasks registered with WithTask are
// run synchronously through Run.
type Scheduler struct {
	cron     *cron.Cron
	registry *registry
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewScheduler creates a Scheduler from the scheduled tasks in opts.
func NewScheduler(opts ...Option) (*Scheduler, error) {
	cfg := newConfig(opts...)
	s := &Scheduler{
		cron:     cron.New(cron.WithParser(cronParser)),
		registry: cfg.registry,
		logger:   cfg.logger,
	}

	for _, task := range cfg.schedules {
		schedule, err := parseSchedule(task.schedule)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, task.name)
		}
		s.cron.Schedule(schedule, cron.FuncJob(s.runner(task)))
	}
	return s, nil
}

func (s *Scheduler) runner(task scheduled) func() {
	return func() {
		ctx := context.Background()
		if err := task.handler(ctx); err != nil {
			s.logger.ErrorContext(ctx, "scheduled task failed",
				slog.String("task", task.name),
				slog.Any("error", err),
			)
			return
		}
		s.logger.DebugContext(ctx, "scheduled task done", slog.String("task", task.name))
	}
}

// Run executes the named task immediately with payload.
func (s *Scheduler) Run(ctx context.Context, name string, payload []byte) error {
	exec, ok := s.registry.get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return exec.Execute(ctx, payload)
}

// Start begins running schedules in the background.
func (s *Scheduler) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("scheduler started", slog.Int("entries", len(s.cron.Entries())))
	return nil
}

// Stop halts the schedules and waits for running tasks or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	s.started = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartFunc returns Start as a startup hook.
func (s *Scheduler) StartFunc() func(context.Context) error {
	return s.Start
}

// Shutdown returns Stop as a shutdown hook.
func (s *Scheduler) Shutdown() func(context.Context) error {
	return s.Stop
}
