package model

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrymomot/tela/pkg/attribute"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/query"
	"github.com/dmitrymomot/tela/pkg/sanitizer"
	"github.com/dmitrymomot/tela/pkg/validator"
)

// Save inserts row, or updates it when every primary key column is set.
// It returns the generated id on insert and the affected row count on update.
func (m *Model[E]) Save(ctx context.Context, row db.Row) (int64, error) {
	if m.isUpdate(row) {
		data := m.prepare(row, false)
		for _, col := range m.pk {
			data[col] = row[col]
		}
		return m.Query().Update(ctx, data)
	}
	if err := m.checkRequired(row); err != nil {
		return 0, err
	}
	return m.Query().Insert(ctx, m.prepare(row, false))
}

// InsertMany inserts rows with a single statement.
func (m *Model[E]) InsertMany(ctx context.Context, rows []db.Row) (int64, error) {
	prepared := make([]db.Row, len(rows))
	for i, row := range rows {
		if err := m.checkRequired(row); err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
		prepared[i] = m.prepare(row, false)
	}
	return m.Query().MultiInsert(ctx, prepared)
}

// UpsertMany inserts rows, updating those whose primary key already exists.
func (m *Model[E]) UpsertMany(ctx context.Context, rows []db.Row) (int64, error) {
	prepared := make([]db.Row, len(rows))
	for i, row := range rows {
		prepared[i] = m.prepare(row, true)
	}
	return m.Query().MultiUpdate(ctx, prepared)
}

// Sanitize cleans submitted data with the definition filters. Keys without
// attributes are dropped; extra attributes apply to this call only.
func (m *Model[E]) Sanitize(data map[string]any, extra map[string]attribute.Attributes) (db.Row, error) {
	return sanitizer.New(m.def, sanitizer.WithStrict()).Sanitize(data, extra)
}

// Validate checks data against the definition. id is the primary key value
// of the row being edited: nil for a new row, a map of key columns for a
// composite key.
func (m *Model[E]) Validate(ctx context.Context, data db.Row, id any) (validator.PropertyErrors, error) {
	return validator.New(m.def, validator.WithUniqueChecker(m)).Validate(ctx, data, id)
}

// ValueExists reports whether another row holds value for property.
func (m *Model[E]) ValueExists(ctx context.Context, property string, value any, id any) (bool, error) {
	var cond query.Cond
	switch {
	case id == nil || len(m.pk) == 0:
		cond = query.Eq(property, value)
	case len(m.pk) == 1:
		if property == m.pk[0] {
			return false, nil
		}
		cond = query.And(query.Op(m.pk[0], "!=", id), query.Eq(property, value))
	default:
		keys, ok := id.(map[string]any)
		if !ok {
			return false, fmt.Errorf("%w: composite key expects a map", query.ErrInvalidCondition)
		}
		conds := make([]query.Cond, len(m.pk))
		for i, col := range m.pk {
			conds[i] = query.Eq(col, keys[col])
		}
		cond = query.And(query.Not(query.And(conds...)), query.Eq(property, value))
	}
	return m.Query().WhereCond(cond).Exists(ctx)
}

// PrimaryKeyValue returns the primary key of row: a scalar for a simple
// key, a map for a composite one. ok is false when a column is missing.
func (m *Model[E]) PrimaryKeyValue(row db.Row) (any, bool) {
	if !m.isUpdate(row) {
		return nil, false
	}
	if len(m.pk) == 1 {
		return row[m.pk[0]], true
	}
	keys := make(map[string]any, len(m.pk))
	for _, col := range m.pk {
		keys[col] = row[col]
	}
	return keys, true
}

func (m *Model[E]) isUpdate(row db.Row) bool {
	if len(m.pk) == 0 {
		return false
	}
	for _, col := range m.pk {
		if v, ok := row[col]; !ok || v == nil {
			return false
		}
	}
	return true
}

func (m *Model[E]) checkRequired(row db.Row) error {
	for _, name := range m.def.Filter(attribute.Has("required")) {
		if v, ok := row[name]; !ok || v == nil {
			return fmt.Errorf("%w: %s", ErrMissingRequired, name)
		}
	}
	return nil
}

// prepare maps booleans for the dialect and keeps fillable properties.
// keepPK preserves non-fillable key columns for upserts.
func (m *Model[E]) prepare(row db.Row, keepPK bool) db.Row {
	dialect := m.dao.Dialect()
	out := make(db.Row, len(row))
	for name, value := range row {
		attrs, ok := m.def.Property(name)
		if !ok {
			continue
		}
		if !attrs.Has("fillable") && !(keepPK && slices.Contains(m.pk, name)) {
			continue
		}
		if b, isBool := value.(bool); isBool && attrs.Type() == "boolean" {
			out[name] = dialect.BoolValue(b)
			continue
		}
		out[name] = value
	}
	return out
}
