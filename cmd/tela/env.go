package main

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/tela/app"
	"github.com/dmitrymomot/tela/middlewares"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/logger"
)

// env is what every command starts from.
type env struct {
	cfg app.Config
	log *slog.Logger
	dao *db.DAO
}

func setup(ctx context.Context, files []string) (*env, error) {
	cfg, err := app.LoadConfig(files...)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Log, middlewares.RequestIDExtractor())

	dao, err := db.Open(ctx, cfg.DB, db.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, dao: dao}, nil
}

func (e *env) migrate(ctx context.Context) error {
	return db.Migrate(ctx, e.dao, app.Migrations(), e.cfg.DB.MigrationsTable, e.log)
}

func (e *env) close(ctx context.Context) {
	if err := e.dao.Shutdown()(ctx); err != nil {
		e.log.WarnContext(ctx, "database close failed", slog.Any("error", err))
	}
}
