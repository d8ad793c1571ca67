// Package job runs background work.
//
// Manager is backed by River and needs a postgres pool. It runs typed tasks
// enqueued by the application and periodic tasks on a cron schedule:
//
//	m, err := job.NewManager(pool,
//		job.WithTask[errlog.Entry](errlog.NewPersistTask(store)),
//		job.WithScheduledTask(errlog.NewPurgeTask(store, 30*24*time.Hour)),
//	)
//	err = m.Enqueue(ctx, "errlog.persist", entry)
//
// Tasks need no interface import: any type with Name() and Handle(ctx, P)
// methods qualifies. Scheduled tasks add Schedule() returning a 5-field
// cron expression.
//
// Scheduler runs the same scheduled tasks in-process with robfig/cron, for
// deployments on mysql or sqlite where River is not available.
package job
