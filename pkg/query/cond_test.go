package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tela/pkg/query"
)

func TestCond_SQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cond     query.Cond
		wantSQL  string
		wantArgs []any
	}{
		{"eq", query.Eq("uti_nom", "Durand"), "uti_nom = ?", []any{"Durand"}},
		{"eq nil", query.Eq("uti_nom", nil), "uti_nom IS NULL", nil},
		{"not eq nil", query.Op("uti_nom", "!=", nil), "uti_nom IS NOT NULL", nil},
		{"operator", query.Op("uti_age", ">=", 18), "uti_age >= ?", []any{18}},
		{"lowercase operator", query.Op("uti_nom", "like", "d%"), "uti_nom LIKE ?", []any{"d%"}},
		{"in", query.Op("uti_id", "IN", []int{1, 2, 3}), "uti_id IN (?, ?, ?)", []any{1, 2, 3}},
		{"not in", query.Op("uti_id", "NOT IN", []string{"a"}), "uti_id NOT IN (?)", []any{"a"}},
		{"empty in", query.Op("uti_id", "IN", []int{}), "1 = 0", nil},
		{"and", query.And(query.Eq("a", 1), query.Eq("b", 2)), "a = ? AND b = ?", []any{1, 2}},
		{
			"nested",
			query.And(query.Eq("a", 1), query.Or(query.Eq("b", 2), query.Eq("c", 3))),
			"a = ? AND (b = ? OR c = ?)",
			[]any{1, 2, 3},
		},
		{"not", query.Not(query.And(query.Eq("k1", 1), query.Eq("k2", 2))), "NOT (k1 = ? AND k2 = ?)", []any{1, 2}},
		{"qualified field", query.Eq("u.uti_id", 1), "u.uti_id = ?", []any{1}},
		{"ilike", query.ILike("uti_nom", "%dur%"), "uti_nom ILIKE ?", []any{"%dur%"}},
		{
			"raw keeps precedence",
			query.And(query.Raw("a = ? OR b = ?", 1, 2), query.Eq("c", 3)),
			"(a = ? OR b = ?) AND c = ?",
			[]any{1, 2, 3},
		},
		{"single raw", query.Or(query.Raw("a IS NULL")), "a IS NULL", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sql, args, err := tt.cond.SQL()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestCond_Invalid(t *testing.T) {
	t.Parallel()

	_, _, err := query.Op("uti_nom", "~", "x").SQL()
	assert.ErrorIs(t, err, query.ErrInvalidOperator)

	_, _, err = query.Eq("uti_nom; DROP TABLE t", "x").SQL()
	assert.ErrorIs(t, err, query.ErrInvalidIdentifier)

	_, _, err = query.And().SQL()
	assert.ErrorIs(t, err, query.ErrInvalidCondition)
}

func TestPK(t *testing.T) {
	t.Parallel()

	c, err := query.PK([]string{"uti_id"}, 5)
	require.NoError(t, err)
	sql, args, err := c.SQL()
	require.NoError(t, err)
	assert.Equal(t, "uti_id = ?", sql)
	assert.Equal(t, []any{5}, args)

	c, err = query.PK([]string{"a", "b"}, []any{1, "x"})
	require.NoError(t, err)
	sql, args, err = c.SQL()
	require.NoError(t, err)
	assert.Equal(t, "a = ? AND b = ?", sql)
	assert.Equal(t, []any{1, "x"}, args)

	_, err = query.PK([]string{"a", "b"}, 1)
	assert.ErrorIs(t, err, query.ErrInvalidCondition)

	_, err = query.PK(nil, 1)
	assert.ErrorIs(t, err, query.ErrMissingPrimaryKey)
}

func TestParseCond(t *testing.T) {
	t.Parallel()

	pk := []string{"uti_id"}
	tests := []struct {
		name     string
		params   any
		wantSQL  string
		wantArgs []any
	}{
		{"scalar primary key", 12, "uti_id = ?", []any{12}},
		{"field value", []any{"uti_nom", "Durand"}, "uti_nom = ?", []any{"Durand"}},
		{"field operator value", []any{"uti_age", "<", 30}, "uti_age < ?", []any{30}},
		{"in list", []any{"uti_id", "IN", []any{1, 2}}, "uti_id IN (?, ?)", []any{1, 2}},
		{
			"nested and",
			[]any{[]any{"uti_nom", "Durand"}, []any{"uti_prenom", "Marie"}},
			"uti_nom = ? AND uti_prenom = ?",
			[]any{"Durand", "Marie"},
		},
		{
			"nested or",
			[]any{[]any{"uti_nom", "Durand"}, "OR", []any{"uti_nom", "Martin"}},
			"uti_nom = ? OR uti_nom = ?",
			[]any{"Durand", "Martin"},
		},
		{
			"deeply nested",
			[]any{[]any{"a", 1}, []any{[]any{"b", 2}, "OR", []any{"c", 3}}},
			"a = ? AND (b = ? OR c = ?)",
			[]any{1, 2, 3},
		},
		{"map", map[string]any{"b": 2, "a": 1}, "a = ? AND b = ?", []any{1, 2}},
		{"string slice", []string{"uti_nom", "Durand"}, "uti_nom = ?", []any{"Durand"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := query.ParseCond(tt.params, pk)
			require.NoError(t, err)
			sql, args, err := c.SQL()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestParseCond_Errors(t *testing.T) {
	t.Parallel()

	c, err := query.ParseCond(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = query.ParseCond([]any{"a", "=", 1, 2}, nil)
	assert.ErrorIs(t, err, query.ErrInvalidCondition)

	_, err = query.ParseCond([]any{[]any{"a", 1}, "XOR", []any{"b", 2}}, nil)
	assert.ErrorIs(t, err, query.ErrInvalidCondition)

	_, err = query.ParseCond([]any{1, 2}, nil)
	assert.ErrorIs(t, err, query.ErrInvalidCondition)
}
