package model

import (
	"context"
	"slices"

	"github.com/dmitrymomot/tela/pkg/attribute"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/entity"
	"github.com/dmitrymomot/tela/pkg/query"
)

// Scope customizes the select statement of a model query.
type Scope func(b *query.Builder)

// Order adds ORDER BY expressions.
func Order(exprs ...string) Scope {
	return func(b *query.Builder) { b.Order(exprs...) }
}

// Limit restricts the number of rows.
func Limit(n int, offset ...int) Scope {
	return func(b *query.Builder) { b.Limit(n, offset...) }
}

// Fields selects columns instead of *.
func Fields(fields ...string) Scope {
	return func(b *query.Builder) { b.Fields(fields...) }
}

// SelectRows runs a select with the active relations joined and returns raw rows.
func (m *Model[E]) SelectRows(ctx context.Context, scopes ...Scope) ([]db.Row, error) {
	b := m.Query()
	m.joinRelations(b)
	for _, s := range scopes {
		s(b)
	}
	return b.Select(ctx)
}

// Select runs a select and hydrates one entity per row. Has-many relations
// are loaded afterwards.
func (m *Model[E]) Select(ctx context.Context, scopes ...Scope) ([]E, error) {
	rows, err := m.SelectRows(ctx, scopes...)
	if err != nil {
		return nil, err
	}
	out := make([]E, len(rows))
	for i, row := range rows {
		if out[i], err = m.Hydrate(row); err != nil {
			return nil, err
		}
	}
	if err := m.loadHasMany(ctx, rows, out); err != nil {
		return nil, err
	}
	return out, nil
}

// All returns every row of the table.
func (m *Model[E]) All(ctx context.Context, scopes ...Scope) ([]E, error) {
	return m.Select(ctx, scopes...)
}

// Find returns the rows matching cond: a primary key value, a
// query.Cond, a map of equalities or the nested-slice syntax.
func (m *Model[E]) Find(ctx context.Context, cond any, scopes ...Scope) ([]E, error) {
	c, err := query.ParseCond(cond, m.pk)
	if err != nil {
		return nil, err
	}
	return m.Select(ctx, append([]Scope{whereCond(c)}, scopes...)...)
}

// FindAny is Find with a structured condition and an untyped result, used
// to load has-many relations.
func (m *Model[E]) FindAny(ctx context.Context, cond query.Cond) (any, error) {
	return m.Select(ctx, whereCond(cond))
}

// First returns the first row matching cond, or db.ErrNoRows. A nil cond
// returns the first row of the table.
func (m *Model[E]) First(ctx context.Context, cond any, scopes ...Scope) (E, error) {
	var zero E
	list, err := m.Find(ctx, cond, slices.Concat(scopes, []Scope{Limit(1)})...)
	if err != nil {
		return zero, err
	}
	if len(list) == 0 {
		return zero, db.ErrNoRows
	}
	return list[0], nil
}

// Exists reports whether a row matches cond.
func (m *Model[E]) Exists(ctx context.Context, cond any) (bool, error) {
	c, err := query.ParseCond(cond, m.pk)
	if err != nil {
		return false, err
	}
	b := m.Query()
	m.joinRelations(b)
	return b.WhereCond(c).Exists(ctx)
}

// Count returns the number of rows matching cond.
func (m *Model[E]) Count(ctx context.Context, cond any) (int64, error) {
	c, err := query.ParseCond(cond, m.pk)
	if err != nil {
		return 0, err
	}
	b := m.Query()
	m.joinRelations(b)
	return b.WhereCond(c).Count(ctx)
}

// Remove deletes the rows matching cond. A condition is required.
func (m *Model[E]) Remove(ctx context.Context, cond any) (int64, error) {
	c, err := query.ParseCond(cond, m.pk)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, ErrMissingCondition
	}
	return m.Query().WhereCond(c).Delete(ctx)
}

// Search returns the rows where any searchable property contains q.
// Matching ignores case: ILIKE on postgres, LIKE elsewhere.
// Hidden properties are left out of the selected columns.
func (m *Model[E]) Search(ctx context.Context, q string, scopes ...Scope) ([]E, error) {
	fields := m.def.Filter(attribute.Has("search"))
	if len(fields) == 0 {
		return nil, ErrNoSearchFields
	}
	like := query.Like
	if m.dao.Dialect() == db.Postgres {
		like = query.ILike
	}
	pattern := "%" + q + "%"
	conds := make([]query.Cond, len(fields))
	for i, f := range fields {
		conds[i] = like(m.table+"."+f, pattern)
	}
	visible := m.def.Filter(attribute.Match(map[string]any{"hidden": false}))
	for i, f := range visible {
		visible[i] = m.table + "." + f
	}
	base := []Scope{Fields(visible...), whereCond(query.Or(conds...))}
	return m.Select(ctx, append(base, scopes...)...)
}

func whereCond(c query.Cond) Scope {
	return func(b *query.Builder) { b.WhereCond(c) }
}

// Hydrate builds an entity from a row, keeping only the columns the
// definition or the entity know about.
func (m *Model[E]) Hydrate(row db.Row) (E, error) {
	e := m.factory()
	known := make(map[string]any, len(row))
	for k, v := range row {
		if m.def.HasProperty(k) || entity.HasProperty(e, k) {
			known[k] = v
		}
	}
	if err := entity.Hydrate(e, known); err != nil {
		var zero E
		return zero, err
	}
	return e, nil
}

// Properties returns the defined properties of e as a row.
func (m *Model[E]) Properties(e E) db.Row {
	row := make(db.Row, len(m.def.Properties()))
	for _, name := range m.def.Names() {
		if v, ok := entity.Get(e, name); ok {
			row[name] = v
		}
	}
	return row
}

// DefaultEntity returns an entity filled with the `default` attribute of
// every property.
func (m *Model[E]) DefaultEntity() (E, error) {
	e := m.factory()
	if err := entity.Hydrate(e, m.def.Defaults()); err != nil {
		var zero E
		return zero, err
	}
	return e, nil
}
