package model

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/entity"
	"github.com/dmitrymomot/tela/pkg/query"
)

// RelationKind is the cardinality of a relation.
type RelationKind string

const (
	// HasOne joins the related table on every select.
	HasOne RelationKind = "has-one"
	// HasMany loads related rows with one extra query per result.
	HasMany RelationKind = "has-many"
)

// Related is the side of a relation that gets loaded. Every *Model implements it.
type Related interface {
	Table() string
	PrimaryKey() []string
	FindAny(ctx context.Context, cond query.Cond) (any, error)
}

// Relation links a model to another one.
//
// For HasOne, ForeignKey is a column of this table and RelatedKey a column
// of the related table (defaults to its primary key). For HasMany,
// ForeignKey is the column of the related table holding this model's
// primary key.
type Relation struct {
	Name       string
	Kind       RelationKind
	Model      Related
	ForeignKey string
	RelatedKey string
}

func (r Relation) validate() error {
	if r.Name == "" || r.Model == nil || r.ForeignKey == "" {
		return fmt.Errorf("%w: %q needs a name, a model and a foreign key", ErrInvalidRelation, r.Name)
	}
	switch r.Kind {
	case HasOne:
		if r.RelatedKey == "" && len(r.Model.PrimaryKey()) != 1 {
			return fmt.Errorf("%w: %q needs a related key", ErrInvalidRelation, r.Name)
		}
	case HasMany:
	default:
		return fmt.Errorf("%w: %q has unknown kind %q", ErrInvalidRelation, r.Name, r.Kind)
	}
	if !db.ValidIdentifier(r.ForeignKey) || !db.ValidIdentifier(r.Model.Table()) {
		return fmt.Errorf("%w: %q has an invalid identifier", ErrInvalidRelation, r.Name)
	}
	return nil
}

func (r Relation) relatedKey() string {
	if r.RelatedKey != "" {
		return r.RelatedKey
	}
	return r.Model.PrimaryKey()[0]
}

// With returns a copy of the model that loads the named relations.
func (m *Model[E]) With(names ...string) (*Model[E], error) {
	with := make([]Relation, 0, len(names))
	for _, name := range names {
		r, ok := m.relations[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownRelation, name, m.table)
		}
		with = append(with, r)
	}
	cp := *m
	cp.with = with
	return &cp, nil
}

func (m *Model[E]) joinRelations(b *query.Builder) {
	for _, r := range m.with {
		if r.Kind != HasOne {
			continue
		}
		related := r.Model.Table()
		b.LeftJoin(related, fmt.Sprintf("%s.%s = %s.%s", m.table, r.ForeignKey, related, r.relatedKey()))
	}
}

func (m *Model[E]) loadHasMany(ctx context.Context, rows []db.Row, entities []E) error {
	for _, r := range m.with {
		if r.Kind != HasMany {
			continue
		}
		if len(m.pk) != 1 {
			return fmt.Errorf("%w: %q requires a simple primary key", ErrInvalidRelation, r.Name)
		}
		for i, row := range rows {
			related, err := r.Model.FindAny(ctx, query.Eq(r.ForeignKey, row[m.pk[0]]))
			if err != nil {
				return fmt.Errorf("relation %s: %w", r.Name, err)
			}
			if err := entity.SetRelation(entities[i], r.Name, related); err != nil {
				return err
			}
		}
	}
	return nil
}
