package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Row is one result row keyed by column name.
type Row = map[string]any

// Option configures a DAO.
type Option func(*DAO)

// WithLogger sets the logger used to report failed statements.
func WithLogger(l *slog.Logger) Option {
	return func(d *DAO) {
		if l != nil {
			d.logger = l
		}
	}
}

// DAO executes prepared statements against a database.
// It is safe for concurrent use; transaction state lives in the context.
type DAO struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// New wraps an open *sql.DB.
func New(conn *sql.DB, dialect Dialect, opts ...Option) *DAO {
	d := &DAO{
		db:      conn,
		dialect: dialect,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DB returns the underlying *sql.DB.
func (d *DAO) DB() *sql.DB {
	return d.db
}

// Dialect returns the SQL dialect of the connection.
func (d *DAO) Dialect() Dialect {
	return d.dialect
}

func (d *DAO) conn(ctx context.Context) (querier, *Tx) {
	if tx := txFromContext(ctx); tx != nil && tx.dao == d {
		return tx.tx, tx
	}
	return d.db, nil
}

// Exec runs a statement and returns the number of affected rows.
func (d *DAO) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return d.execAs(ctx, "execute", query, args...)
}

// Select runs a query and returns every row.
func (d *DAO) Select(ctx context.Context, query string, args ...any) ([]Row, error) {
	q, tx := d.conn(ctx)
	rows, err := q.QueryContext(ctx, d.dialect.Rebind(query), args...)
	if err != nil {
		return nil, d.fail(ctx, tx, "select", query, err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, d.fail(ctx, tx, "select", query, err)
	}
	return result, nil
}

// SelectOne runs a query and returns the first row, or ErrNoRows.
func (d *DAO) SelectOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := d.Select(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows[0], nil
}

// Insert runs an INSERT and returns the generated id.
// On postgres the statement must end with a RETURNING clause selecting
// the key; the id is 0 when the key is not numeric.
func (d *DAO) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	if d.dialect.SupportsReturning() && strings.Contains(strings.ToUpper(query), " RETURNING ") {
		row, err := d.SelectOne(ctx, query, args...)
		if err != nil {
			if errors.Is(err, ErrNoRows) {
				return 0, nil
			}
			return 0, err
		}
		for _, v := range row {
			if id, ok := toInt64(v); ok {
				return id, nil
			}
		}
		return 0, nil
	}

	q, tx := d.conn(ctx)
	res, err := q.ExecContext(ctx, d.dialect.Rebind(query), args...)
	if err != nil {
		return 0, d.fail(ctx, tx, "insert", query, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		// Tables without an auto-increment key have no last insert id.
		return 0, nil
	}
	return id, nil
}

// Update runs an UPDATE and returns the number of affected rows.
func (d *DAO) Update(ctx context.Context, query string, args ...any) (int64, error) {
	return d.execAs(ctx, "update", query, args...)
}

// Delete runs a DELETE and returns the number of affected rows.
func (d *DAO) Delete(ctx context.Context, query string, args ...any) (int64, error) {
	return d.execAs(ctx, "delete", query, args...)
}

// CallProcedure calls a stored procedure with positional arguments.
func (d *DAO) CallProcedure(ctx context.Context, name string, args ...any) ([]Row, error) {
	if d.dialect == SQLite {
		return nil, ErrUnsupported
	}
	if !ValidIdentifier(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	return d.Select(ctx, "CALL "+name+"("+placeholders+")", args...)
}

// Checksum returns the table checksum reported by MySQL.
func (d *DAO) Checksum(ctx context.Context, table string) (int64, error) {
	if d.dialect != MySQL {
		return 0, ErrUnsupported
	}
	if !ValidIdentifier(table) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, table)
	}
	row, err := d.SelectOne(ctx, "CHECKSUM TABLE "+table)
	if err != nil {
		return 0, err
	}
	sum, _ := toInt64(row["Checksum"])
	return sum, nil
}

// Healthcheck returns a function that pings the database.
func (d *DAO) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		if err := d.db.PingContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Shutdown returns a function that closes the connection pool.
func (d *DAO) Shutdown() func(context.Context) error {
	return func(context.Context) error {
		return d.db.Close()
	}
}

func (d *DAO) execAs(ctx context.Context, op, query string, args ...any) (int64, error) {
	q, tx := d.conn(ctx)
	res, err := q.ExecContext(ctx, d.dialect.Rebind(query), args...)
	if err != nil {
		return 0, d.fail(ctx, tx, op, query, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, d.fail(ctx, tx, op, query, err)
	}
	return n, nil
}

// fail converts a driver error. Inside a transaction the statement
// failure is reported with the ErrTxStatementFailed sentinel so the caller
// decides whether to roll back.
func (d *DAO) fail(ctx context.Context, tx *Tx, op, query string, err error) error {
	if tx != nil {
		tx.markFailed()
		d.logger.DebugContext(ctx, "statement failed inside transaction",
			slog.String("op", op),
			slog.String("query", query),
			slog.Any("error", err),
		)
		return errors.Join(ErrTxStatementFailed, err)
	}

	d.logger.ErrorContext(ctx, "query failed",
		slog.String("op", op),
		slog.String("query", query),
		slog.Any("error", err),
	)
	return &QueryError{Op: op, Query: query, Err: err}
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			// Text columns arrive as []byte from the mysql driver.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		var i int64
		_, err := fmt.Sscan(n, &i)
		return i, err == nil
	}
	return 0, false
}
