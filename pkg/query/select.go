package query

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/tela/pkg/db"
)

// SelectSQL renders the SELECT statement for the accumulated clauses
// without executing it or clearing the builder.
func (b *Builder) SelectSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	table, err := b.tableName()
	if err != nil {
		return "", nil, err
	}

	fields := "*"
	if len(b.fields) > 0 {
		fields = strings.Join(b.fields, ", ")
	}

	query := "SELECT " + fields + " FROM " + table
	clauses, args := b.renderClauses()
	if clauses != "" {
		query += " " + clauses
	}
	return query, args, nil
}

// Select executes the SELECT statement and returns raw rows.
func (b *Builder) Select(ctx context.Context) ([]db.Row, error) {
	defer b.Reset()

	query, args, err := b.SelectSQL()
	if err != nil {
		return nil, err
	}
	if err := b.before(ctx, query, args); err != nil {
		return nil, err
	}
	rows, err := b.dao.Select(ctx, query, args...)
	b.after(ctx, query, args, err)
	return rows, err
}

// First executes the SELECT statement limited to one row.
// It returns db.ErrNoRows when nothing matches.
func (b *Builder) First(ctx context.Context) (db.Row, error) {
	rows, err := b.Limit(1).Select(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, db.ErrNoRows
	}
	return rows[0], nil
}

// Exists reports whether the SELECT statement matches at least one row.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	if len(b.clauses[ClauseLimit]) == 0 {
		b.Limit(1)
	}
	rows, err := b.Select(ctx)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Count returns the number of rows matched by the joins and WHERE clause.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	defer b.Reset()

	if b.err != nil {
		return 0, b.err
	}
	table, err := b.tableName()
	if err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) AS total FROM " + table
	clauses, args := b.renderClauses(ClauseJoin, ClauseLeftJoin, ClauseRightJoin, ClauseInnerJoin, ClauseWhere)
	if clauses != "" {
		query += " " + clauses
	}
	if err := b.before(ctx, query, args); err != nil {
		return 0, err
	}
	row, err := b.dao.SelectOne(ctx, query, args...)
	b.after(ctx, query, args, err)
	if err != nil {
		return 0, err
	}
	n, _ := asInt64(row["total"])
	return n, nil
}

// before logs the statement in debug mode and stops it on a dry run.
func (b *Builder) before(ctx context.Context, query string, args []any) error {
	if b.debug != DebugDryRun {
		return nil
	}
	b.logger.InfoContext(ctx, "sql dry run",
		slog.String("query", b.dao.Dialect().Rebind(query)),
		slog.Any("args", args),
	)
	return ErrDryRun
}

func (b *Builder) after(ctx context.Context, query string, args []any, err error) {
	if b.debug != DebugLog {
		return
	}
	attrs := []any{
		slog.String("query", b.dao.Dialect().Rebind(query)),
		slog.Any("args", args),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	b.logger.InfoContext(ctx, "sql query", attrs...)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
