package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tela"
	"github.com/dmitrymomot/tela/app"
	"github.com/dmitrymomot/tela/app/controllers"
	"github.com/dmitrymomot/tela/pkg/cache"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/errlog"
	"github.com/dmitrymomot/tela/pkg/job"
	"github.com/dmitrymomot/tela/pkg/logger"
	"github.com/dmitrymomot/tela/pkg/redis"
	"github.com/dmitrymomot/tela/pkg/session"
	"github.com/dmitrymomot/tela/pkg/storage"
)

func serveCmd(envFiles *[]string) *cobra.Command {
	var (
		addr    string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *envFiles, addr, migrate)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default APP_ADDRESS)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply migrations before serving")
	return cmd
}

func serve(ctx context.Context, envFiles []string, addr string, migrate bool) error {
	e, err := setup(ctx, envFiles)
	if err != nil {
		return err
	}
	defer logger.Flush(2 * time.Second)

	if migrate {
		if err := e.migrate(ctx); err != nil {
			e.close(ctx)
			return err
		}
	}
	if addr == "" {
		addr = e.cfg.Address
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(e.dao.DB(), string(e.dao.Dialect())),
	)

	deps := app.Deps{
		DAO:      e.dao,
		Logger:   e.log,
		Registry: reg,
		Checks:   map[string]func(context.Context) error{},
	}
	var (
		startup  []func(context.Context) error
		shutdown []func(context.Context) error
	)

	if e.cfg.Redis.Enabled() {
		client, err := redis.Open(ctx, e.cfg.Redis)
		if err != nil {
			e.close(ctx)
			return err
		}
		deps.Sessions = session.NewRedisStore(client)
		deps.SearchCache = cache.NewRedis[controllers.SearchResults](client, nil, cache.WithPrefix("search"))
		deps.Checks["redis"] = redis.Healthcheck(client)
		shutdown = append(shutdown, redis.Shutdown(client))
	} else {
		e.log.WarnContext(ctx, "REDIS_URL not set, sessions and search cache are kept in memory")
	}

	if e.cfg.Storage.Enabled() {
		st, err := storage.New(e.cfg.Storage)
		if err != nil {
			e.close(ctx)
			return err
		}
		deps.Storage = st
		deps.Checks["storage"] = st.Healthcheck()
	}

	store := errlog.NewStore(e.dao, e.log)
	purge := errlog.NewPurgeTask(store, e.cfg.Errors.Retention).WithSchedule(e.cfg.Errors.Schedule)

	// River needs PostgreSQL. Other dialects record errors synchronously and
	// run the purge from an in-process cron.
	if e.dao.Dialect() == db.Postgres {
		pool, err := db.ConnectPool(ctx, e.cfg.DB)
		if err != nil {
			e.close(ctx)
			return err
		}
		jobs, err := job.NewManager(pool,
			job.WithLogger(e.log),
			job.WithTask[errlog.Entry](errlog.NewPersistTask(store)),
			job.WithScheduledTask(purge),
		)
		if err != nil {
			pool.Close()
			e.close(ctx)
			return err
		}
		deps.Jobs = jobs
		deps.ErrorLog = errlog.NewAsync(func(ctx context.Context, name string, payload any) error {
			return jobs.Enqueue(ctx, name, payload)
		}, store)
		deps.Checks["jobs"] = jobs.Healthcheck()
		startup = append(startup, jobs.StartFunc())
		shutdown = append(shutdown, jobs.Shutdown(), func(context.Context) error {
			pool.Close()
			return nil
		})
	} else {
		sched, err := job.NewScheduler(job.WithLogger(e.log), job.WithScheduledTask(purge))
		if err != nil {
			e.close(ctx)
			return err
		}
		deps.ErrorLog = store
		startup = append(startup, sched.StartFunc())
		shutdown = append(shutdown, sched.Shutdown())
	}

	a, err := app.New(ctx, e.cfg, deps)
	if err != nil {
		e.close(ctx)
		return err
	}

	opts := []tela.RunOption{
		tela.WithContext(ctx),
		tela.Logger(e.log),
		tela.ShutdownTimeout(e.cfg.ShutdownTimeout),
	}
	for _, fn := range startup {
		opts = append(opts, tela.StartupHook(fn))
	}
	for _, fn := range shutdown {
		opts = append(opts, tela.ShutdownHook(fn))
	}
	// The database closes last, after the workers writing to it.
	opts = append(opts, tela.ShutdownHook(e.dao.Shutdown()))

	e.log.InfoContext(ctx, "starting server",
		slog.String("address", addr),
		slog.String("dialect", string(e.dao.Dialect())),
		slog.Bool("debug", e.cfg.Debug),
		slog.String("version", version),
	)
	return a.Run(addr, opts...)
}
