// Package model binds a table to an entity type and its property definition.
//
// A Model runs typed queries through the query builder, prepares rows for
// writing (required check, boolean mapping, purge of non-fillable columns),
// and exposes the sanitizer and validator configured from the definition.
//
//	users, err := model.New(dao, model.Config[*User]{
//		Table:      "t_utilisateur",
//		PrimaryKey: []string{"uti_id"},
//		Definition: loader.MustLoad("utilisateur"),
//		New:        func() *User { return &User{} },
//	})
//	list, err := users.Find(ctx, []any{"uti_actif", true})
package model

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/tela/pkg/attribute"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/query"
)

// Config describes the resource a model serves.
type Config[E any] struct {
	Table      string
	PrimaryKey []string
	Definition *attribute.Definition
	// New returns an empty entity, typically a pointer to a struct.
	New       func() E
	Relations []Relation
}

// Model gives typed access to a table.
// It is safe for concurrent use; every call uses its own query builder.
type Model[E any] struct {
	dao       *db.DAO
	table     string
	pk        []string
	def       *attribute.Definition
	factory   func() E
	relations map[string]Relation
	with      []Relation
	logger    *slog.Logger
	debug     query.DebugMode
}

// Option configures a Model.
type Option func(*options)

type options struct {
	logger *slog.Logger
	debug  query.DebugMode
}

// WithLogger sets the logger used for statement debugging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDebug sets the debug mode applied to every statement.
func WithDebug(mode query.DebugMode) Option {
	return func(o *options) { o.debug = mode }
}

// New creates a model.
func New[E any](dao *db.DAO, cfg Config[E], opts ...Option) (*Model[E], error) {
	if cfg.Table == "" {
		return nil, ErrMissingTable
	}
	if cfg.New == nil {
		return nil, ErrMissingFactory
	}
	if cfg.Definition == nil {
		return nil, ErrMissingDefinition
	}

	o := &options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(o)
	}

	m := &Model[E]{
		dao:       dao,
		table:     cfg.Table,
		pk:        slices.Clone(cfg.PrimaryKey),
		def:       cfg.Definition,
		factory:   cfg.New,
		relations: make(map[string]Relation, len(cfg.Relations)),
		logger:    o.logger,
		debug:     o.debug,
	}
	for _, r := range cfg.Relations {
		if err := r.validate(); err != nil {
			return nil, err
		}
		m.relations[r.Name] = r
	}
	return m, nil
}

// MustNew is like New but panics on error.
func MustNew[E any](dao *db.DAO, cfg Config[E], opts ...Option) *Model[E] {
	m, err := New(dao, cfg, opts...)
	if err != nil {
		panic(fmt.Sprintf("model %s: %v", cfg.Table, err))
	}
	return m
}

// Table returns the table name.
func (m *Model[E]) Table() string { return m.table }

// PrimaryKey returns the primary key columns.
func (m *Model[E]) PrimaryKey() []string { return m.pk }

// Definition returns the attribute definition.
func (m *Model[E]) Definition() *attribute.Definition { return m.def }

// DAO returns the database handle.
func (m *Model[E]) DAO() *db.DAO { return m.dao }

// Query returns a builder bound to the model table, for statements the
// model does not cover.
func (m *Model[E]) Query() *query.Builder {
	return query.New(m.dao,
		query.WithTable(m.table),
		query.WithPrimaryKey(m.pk...),
		query.WithLogger(m.logger),
	).Debug(m.debug)
}

// Attributes returns the names of the properties accepted by filter.
func (m *Model[E]) Attributes(filter attribute.Filter) []string {
	return m.def.Filter(filter)
}

// Alias returns the display name of a property.
func (m *Model[E]) Alias(name string) string { return m.def.Alias(name) }
