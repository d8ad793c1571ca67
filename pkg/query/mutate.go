package query

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrymomot/tela/pkg/db"
)

// Insert writes one row and returns the generated id.
// Columns are written in sorted order.
func (b *Builder) Insert(ctx context.Context, row db.Row) (int64, error) {
	defer b.Reset()

	query, args, err := b.insertSQL(row)
	if err != nil {
		return 0, err
	}
	if err := b.before(ctx, query, args); err != nil {
		return 0, err
	}
	id, err := b.dao.Insert(ctx, query, args...)
	b.after(ctx, query, args, err)
	return id, err
}

func (b *Builder) insertSQL(row db.Row) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	table, err := b.tableName()
	if err != nil {
		return "", nil, err
	}
	fields, err := sortedFields(row)
	if err != nil {
		return "", nil, err
	}

	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = row[f]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(fields, ", "), placeholders(len(fields)))
	if b.dao.Dialect().SupportsReturning() && len(b.pk) == 1 {
		query += " RETURNING " + b.pk[0]
	}
	return query, args, nil
}

// MultiInsert writes several rows in one statement and returns the number
// of inserted rows. Every row must carry the columns of the first one.
func (b *Builder) MultiInsert(ctx context.Context, rows []db.Row) (int64, error) {
	defer b.Reset()

	query, args, err := b.multiValuesSQL(rows)
	if err != nil {
		return 0, err
	}
	if err := b.before(ctx, query, args); err != nil {
		return 0, err
	}
	n, err := b.dao.Exec(ctx, query, args...)
	b.after(ctx, query, args, err)
	return n, err
}

// MultiUpdate upserts several rows keyed by the primary key.
// Non-key columns of conflicting rows are overwritten.
func (b *Builder) MultiUpdate(ctx context.Context, rows []db.Row) (int64, error) {
	defer b.Reset()

	if len(b.pk) == 0 {
		return 0, ErrMissingPrimaryKey
	}
	query, args, err := b.multiValuesSQL(rows)
	if err != nil {
		return 0, err
	}

	fields, _ := sortedFields(rows[0])
	var updates []string
	for _, f := range fields {
		if slices.Contains(b.pk, f) {
			continue
		}
		updates = append(updates, f)
	}

	switch b.dao.Dialect() {
	case db.MySQL:
		if len(updates) == 0 {
			// MySQL has no DO NOTHING; a self-assignment keeps the row unchanged.
			updates = []string{b.pk[0]}
		}
		sets := make([]string, len(updates))
		for i, f := range updates {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", f, f)
		}
		query += " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	default:
		query += " ON CONFLICT (" + strings.Join(b.pk, ", ") + ")"
		if len(updates) == 0 {
			query += " DO NOTHING"
			break
		}
		sets := make([]string, len(updates))
		for i, f := range updates {
			sets[i] = fmt.Sprintf("%s = excluded.%s", f, f)
		}
		query += " DO UPDATE SET " + strings.Join(sets, ", ")
	}

	if err := b.before(ctx, query, args); err != nil {
		return 0, err
	}
	n, err := b.dao.Exec(ctx, query, args...)
	b.after(ctx, query, args, err)
	return n, err
}

func (b *Builder) multiValuesSQL(rows []db.Row) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if len(rows) == 0 {
		return "", nil, ErrEmptyData
	}
	table, err := b.tableName()
	if err != nil {
		return "", nil, err
	}
	fields, err := sortedFields(rows[0])
	if err != nil {
		return "", nil, err
	}

	group := "(" + placeholders(len(fields)) + ")"
	values := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(fields))
	for i, row := range rows {
		for _, f := range fields {
			v, ok := row[f]
			if !ok {
				return "", nil, fmt.Errorf("%w: row %d has no %q", ErrMissingField, i, f)
			}
			args = append(args, v)
		}
		values[i] = group
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(fields, ", "), strings.Join(values, ", "))
	return query, args, nil
}

// Update writes the non-key columns of row. The WHERE clause comes from
// Where calls when present, otherwise from the primary key values in row.
func (b *Builder) Update(ctx context.Context, row db.Row) (int64, error) {
	defer b.Reset()

	query, args, err := b.updateSQL(row)
	if err != nil {
		return 0, err
	}
	if err := b.before(ctx, query, args); err != nil {
		return 0, err
	}
	n, err := b.dao.Update(ctx, query, args...)
	b.after(ctx, query, args, err)
	return n, err
}

func (b *Builder) updateSQL(row db.Row) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	table, err := b.tableName()
	if err != nil {
		return "", nil, err
	}
	fields, err := sortedFields(row)
	if err != nil {
		return "", nil, err
	}
	joins, args, err := b.mutationJoins()
	if err != nil {
		return "", nil, err
	}

	var sets []string
	for _, f := range fields {
		if slices.Contains(b.pk, f) {
			continue
		}
		sets = append(sets, f+" = ?")
		args = append(args, row[f])
	}
	if len(sets) == 0 {
		return "", nil, ErrEmptyData
	}

	var where string
	if b.hasWhere() {
		clause, whereArgs := b.renderClauses(ClauseWhere)
		where = clause
		args = append(args, whereArgs...)
	} else {
		conds := make([]string, 0, len(b.pk))
		for _, col := range b.pk {
			v, ok := row[col]
			if !ok || v == nil {
				return "", nil, ErrMissingCondition
			}
			conds = append(conds, col+" = ?")
			args = append(args, v)
		}
		if len(conds) == 0 {
			return "", nil, ErrMissingCondition
		}
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	if joins != "" {
		table += " " + joins
	}
	return fmt.Sprintf("UPDATE %s SET %s %s", table, strings.Join(sets, ", "), where), args, nil
}

// Delete removes the rows matched by the WHERE clause, which is required.
// Joins restrict the deleted rows on MySQL.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	defer b.Reset()

	if b.err != nil {
		return 0, b.err
	}
	table, err := b.tableName()
	if err != nil {
		return 0, err
	}
	if !b.hasWhere() {
		return 0, ErrMissingCondition
	}

	joins, args, err := b.mutationJoins()
	if err != nil {
		return 0, err
	}
	where, whereArgs := b.renderClauses(ClauseWhere)
	args = append(args, whereArgs...)

	query := "DELETE FROM " + table + " " + where
	if joins != "" {
		query = "DELETE " + table + " FROM " + table + " " + joins + " " + where
	}
	if err := b.before(ctx, query, args); err != nil {
		return 0, err
	}
	n, err := b.dao.Delete(ctx, query, args...)
	b.after(ctx, query, args, err)
	return n, err
}

func sortedFields(row db.Row) ([]string, error) {
	if len(row) == 0 {
		return nil, ErrEmptyData
	}
	fields := make([]string, 0, len(row))
	for f := range row {
		if !db.ValidIdentifier(f) {
			return nil, fmt.Errorf("%w: column %q", ErrInvalidIdentifier, f)
		}
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields, nil
}
