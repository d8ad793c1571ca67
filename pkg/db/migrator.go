package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// Migrate applies the migrations found in the dialect's sub-directory of
// migrations (e.g. "postgres/00001_init.sql").
func Migrate(ctx context.Context, dao *DAO, migrations fs.FS, migrationTable string, log *slog.Logger) error {
	dir, err := fs.Sub(migrations, string(dao.Dialect()))
	if err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	goose.SetBaseFS(dir)
	goose.SetLogger(&gooseLoggerAdapter{log})
	if migrationTable != "" {
		goose.SetTableName(migrationTable)
	}

	if err := goose.SetDialect(gooseDialect(dao.Dialect())); err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	if err := goose.UpContext(ctx, dao.DB(), "."); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	return nil
}

func gooseDialect(d Dialect) string {
	if d == SQLite {
		return "sqlite3"
	}
	return string(d)
}

type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	// goose returns an error after calling Fatalf; exiting here would skip shutdown hooks.
	g.log.Error(fmt.Sprintf(format, args...))
}
