package job

import (
	"context"
	"log/slog"
	"time"
)

type config struct {
	registry   *registry
	queues     map[string]int
	logger     *slog.Logger
	schedules  []scheduled
	maxWorkers int
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		registry: newRegistry(),
		queues:   make(map[string]int),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures a Manager or a Scheduler.
type Option func(*config)

// WithTask registers a task run with a payload of type P.
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry.register(task.Name(), typedTask[P, T]{task: task})
	}
}

// WithScheduledTask registers a task run on its cron schedule.
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		s := scheduled{name: task.Name(), schedule: task.Schedule(), handler: task.Handle}
		c.schedules = append(c.schedules, s)
		c.registry.register(s.name, s)
	}
}

// WithQueue adds a named queue with its own worker count.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if workers > 0 {
			c.queues[name] = workers
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

type enqueueConfig struct {
	scheduledAt time.Time
	queue       string
	maxAttempts int
	uniqueFor   time.Duration
}

// EnqueueOption configures a single enqueued job.
type EnqueueOption func(*enqueueConfig)

// InQueue routes the job to a named queue.
func InQueue(name string) EnqueueOption {
	return func(c *enqueueConfig) { c.queue = name }
}

// ScheduledIn delays the job by d.
func ScheduledIn(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) { c.scheduledAt = time.Now().Add(d) }
}

// MaxAttempts caps retries.
func MaxAttempts(n int) EnqueueOption {
	return func(c *enqueueConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// UniqueFor drops duplicates of the same task and payload enqueued within d.
func UniqueFor(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) { c.uniqueFor = d }
}
