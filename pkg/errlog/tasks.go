package errlog

import (
	"context"
	"log/slog"
	"time"
)

const (
	PersistTaskName = "errlog.persist"
	PurgeTaskName   = "errlog.purge"

	// DefaultPurgeSchedule runs the purge every night at 03:00.
	DefaultPurgeSchedule = "0 3 * * *"
)

// PersistTask writes entries enqueued by Async.
type PersistTask struct {
	store *Store
}

// NewPersistTask creates the task writing to store.
func NewPersistTask(store *Store) *PersistTask {
	return &PersistTask{store: store}
}

func (t *PersistTask) Name() string { return PersistTaskName }

func (t *PersistTask) Handle(ctx context.Context, e Entry) error {
	return t.store.Record(ctx, e)
}

// PurgeTask deletes entries older than its retention.
type PurgeTask struct {
	store     *Store
	retention time.Duration
	schedule  string
	logger    *slog.Logger
	now       func() time.Time
}

// NewPurgeTask creates a nightly purge. It panics on a non-positive
// retention since that would wipe the table.
func NewPurgeTask(store *Store, retention time.Duration) *PurgeTask {
	if retention <= 0 {
		panic(ErrInvalidRetention)
	}
	return &PurgeTask{
		store:     store,
		retention: retention,
		schedule:  DefaultPurgeSchedule,
		logger:    store.logger,
		now:       time.Now,
	}
}

// WithSchedule overrides the cron expression.
func (t *PurgeTask) WithSchedule(expr string) *PurgeTask {
	if expr != "" {
		t.schedule = expr
	}
	return t
}

func (t *PurgeTask) Name() string     { return PurgeTaskName }
func (t *PurgeTask) Schedule() string { return t.schedule }

func (t *PurgeTask) Handle(ctx context.Context) error {
	before := t.now().Add(-t.retention)
	n, err := t.store.Purge(ctx, before)
	if err != nil {
		return err
	}
	t.logger.InfoContext(ctx, "error log purged",
		slog.Int64("deleted", n),
		slog.Time("before", before),
	)
	return nil
}
