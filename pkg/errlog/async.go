package errlog

import (
	"context"
	"log/slog"
	"time"
)

// EnqueueFunc adds a job for a named task, typically job.Manager.Enqueue
// with its options bound.
type EnqueueFunc func(ctx context.Context, name string, payload any) error

// Async records entries through a job queue. When enqueueing fails the
// entry is written directly to the fallback store.
type Async struct {
	enqueue  EnqueueFunc
	fallback *Store
	logger   *slog.Logger
}

// NewAsync creates a Recorder enqueueing PersistTask jobs through enqueue.
func NewAsync(enqueue EnqueueFunc, fallback *Store) *Async {
	return &Async{enqueue: enqueue, fallback: fallback, logger: fallback.logger}
}

func (a *Async) Record(ctx context.Context, e Entry) error {
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	err := a.enqueue(ctx, PersistTaskName, e)
	if err == nil {
		return nil
	}
	a.logger.WarnContext(ctx, "error log enqueue failed, writing directly", slog.Any("error", err))
	return a.fallback.Record(ctx, e)
}
