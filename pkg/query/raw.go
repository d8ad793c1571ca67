package query

import (
	"context"
	"strings"

	"github.com/dmitrymomot/tela/pkg/db"
)

// Result is the outcome of a raw statement run through Query.
type Result struct {
	Rows         []db.Row
	LastInsertID int64
	RowsAffected int64
}

// Query runs a raw statement, dispatching on its first keyword:
// reads return rows, INSERT returns the generated id, anything else
// returns the number of affected rows.
func (b *Builder) Query(ctx context.Context, query string, args ...any) (Result, error) {
	defer b.Reset()

	if err := b.before(ctx, query, args); err != nil {
		return Result{}, err
	}

	var (
		res Result
		err error
	)
	switch firstKeyword(query) {
	case "":
		err = ErrUnsupportedStatement
	case "SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH", "CALL", "PRAGMA":
		res.Rows, err = b.dao.Select(ctx, query, args...)
	case "INSERT", "REPLACE":
		res.LastInsertID, err = b.dao.Insert(ctx, query, args...)
	case "UPDATE":
		res.RowsAffected, err = b.dao.Update(ctx, query, args...)
	case "DELETE":
		res.RowsAffected, err = b.dao.Delete(ctx, query, args...)
	default:
		res.RowsAffected, err = b.dao.Exec(ctx, query, args...)
	}
	b.after(ctx, query, args, err)
	return res, err
}

// QueryOne runs a raw read statement and returns its first row.
func (b *Builder) QueryOne(ctx context.Context, query string, args ...any) (db.Row, error) {
	res, err := b.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, db.ErrNoRows
	}
	return res.Rows[0], nil
}

// Checksum returns the checksum of the current table (MySQL only).
func (b *Builder) Checksum(ctx context.Context) (int64, error) {
	defer b.Reset()

	table, err := b.tableName()
	if err != nil {
		return 0, err
	}
	return b.dao.Checksum(ctx, table)
}

func firstKeyword(query string) string {
	fields := strings.Fields(strings.TrimLeft(query, "( \t\r\n"))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
