package controllers

import (
	"github.com/dmitrymomot/tela/pkg/attribute"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/model"
)

// visibleColumns lists the properties of m that are not hidden, in definition order.
func visibleColumns[E any](m *model.Model[E]) []string {
	return m.Definition().Filter(attribute.Match(map[string]any{"hidden": false}))
}

// tableRows converts entities to rows holding only columns.
func tableRows[E any](m *model.Model[E], list []E, columns []string) []db.Row {
	rows := make([]db.Row, len(list))
	for i, e := range list {
		props := m.Properties(e)
		row := make(db.Row, len(columns))
		for _, col := range columns {
			row[col] = props[col]
		}
		rows[i] = row
	}
	return rows
}
