package query

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/dmitrymomot/tela/pkg/db"
)

// Cond is a WHERE condition that renders to SQL with "?" placeholders.
type Cond interface {
	SQL() (string, []any, error)
}

// Operators accepted by Op.
var Operators = []string{"=", "!=", "<", ">", "<=", ">=", "IN", "NOT IN", "LIKE", "ILIKE"}

type compare struct {
	field string
	op    string
	value any
}

// Eq matches rows where field equals value. A nil value renders IS NULL.
func Eq(field string, value any) Cond {
	return compare{field: field, op: "=", value: value}
}

// Op compares field to value with one of Operators. IN and NOT IN expect a slice.
func Op(field, op string, value any) Cond {
	return compare{field: field, op: strings.ToUpper(strings.TrimSpace(op)), value: value}
}

// Like matches field against a LIKE pattern.
func Like(field, pattern string) Cond {
	return compare{field: field, op: "LIKE", value: pattern}
}

// ILike matches field against a case-insensitive pattern. Postgres only.
func ILike(field, pattern string) Cond {
	return compare{field: field, op: "ILIKE", value: pattern}
}

func (c compare) SQL() (string, []any, error) {
	if !db.ValidIdentifier(c.field) {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, c.field)
	}
	if !slices.Contains(Operators, c.op) {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidOperator, c.op)
	}

	switch c.op {
	case "IN", "NOT IN":
		values, ok := toSlice(c.value)
		if !ok {
			values = []any{c.value}
		}
		if len(values) == 0 {
			// Nothing is IN an empty set; everything is NOT IN it.
			if c.op == "IN" {
				return "1 = 0", nil, nil
			}
			return "1 = 1", nil, nil
		}
		return fmt.Sprintf("%s %s (%s)", c.field, c.op, placeholders(len(values))), values, nil
	case "=":
		if c.value == nil {
			return c.field + " IS NULL", nil, nil
		}
	case "!=":
		if c.value == nil {
			return c.field + " IS NOT NULL", nil, nil
		}
	}
	return fmt.Sprintf("%s %s ?", c.field, c.op), []any{c.value}, nil
}

type group struct {
	sep   string
	conds []Cond
}

// And combines conditions with AND. Nested groups and raw fragments are
// parenthesized.
func And(conds ...Cond) Cond {
	return group{sep: " AND ", conds: conds}
}

// Or combines conditions with OR. Nested groups and raw fragments are
// parenthesized.
func Or(conds ...Cond) Cond {
	return group{sep: " OR ", conds: conds}
}

func (g group) SQL() (string, []any, error) {
	parts := make([]string, 0, len(g.conds))
	var args []any
	for _, c := range g.conds {
		if c == nil {
			continue
		}
		s, a, err := c.SQL()
		if err != nil {
			return "", nil, err
		}
		switch c.(type) {
		case group, raw:
			if len(g.conds) > 1 {
				s = "(" + s + ")"
			}
		}
		parts = append(parts, s)
		args = append(args, a...)
	}
	if len(parts) == 0 {
		return "", nil, ErrInvalidCondition
	}
	return strings.Join(parts, g.sep), args, nil
}

type not struct {
	cond Cond
}

// Not negates a condition.
func Not(c Cond) Cond {
	return not{cond: c}
}

func (n not) SQL() (string, []any, error) {
	s, args, err := n.cond.SQL()
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + s + ")", args, nil
}

type raw struct {
	expr string
	args []any
}

// Raw is a trusted SQL fragment with its arguments.
func Raw(expr string, args ...any) Cond {
	return raw{expr: expr, args: args}
}

func (r raw) SQL() (string, []any, error) {
	if strings.TrimSpace(r.expr) == "" {
		return "", nil, ErrInvalidCondition
	}
	return r.expr, r.args, nil
}

// PK builds the condition selecting a row by primary key.
// For composite keys value must be a slice with one value per column, in order.
func PK(pk []string, value any) (Cond, error) {
	switch len(pk) {
	case 0:
		return nil, ErrMissingPrimaryKey
	case 1:
		return Eq(pk[0], value), nil
	}

	values, ok := toSlice(value)
	if !ok || len(values) != len(pk) {
		return nil, fmt.Errorf("%w: composite key expects %d values", ErrInvalidCondition, len(pk))
	}
	conds := make([]Cond, len(pk))
	for i, col := range pk {
		conds[i] = Eq(col, values[i])
	}
	return And(conds...), nil
}

// ParseCond converts the nested-slice condition syntax into a Cond:
//
//	42                                   // primary key
//	[]any{"uti_nom", "Durand"}           // field = value
//	[]any{"uti_age", ">=", 18}           // field op value
//	[]any{[]any{"a", 1}, "OR", []any{"b", 2}}
//	map[string]any{"a": 1, "b": 2}       // a = 1 AND b = 2
//
// A nil params value yields a nil Cond (no condition).
func ParseCond(params any, pk []string) (Cond, error) {
	if params == nil {
		return nil, nil
	}
	if c, ok := params.(Cond); ok {
		return c, nil
	}
	if m, ok := params.(map[string]any); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		conds := make([]Cond, 0, len(keys))
		for _, k := range keys {
			conds = append(conds, Eq(k, m[k]))
		}
		return And(conds...), nil
	}

	items, ok := toSlice(params)
	if !ok {
		return PK(pk, params)
	}
	if len(items) == 0 {
		return nil, nil
	}

	if _, nested := toSlice(items[0]); nested {
		return parseGroup(items, pk)
	}
	return parseComparison(items)
}

func parseGroup(items []any, pk []string) (Cond, error) {
	sep := " AND "
	var conds []Cond
	for _, item := range items {
		if s, ok := item.(string); ok {
			switch strings.ToUpper(strings.TrimSpace(s)) {
			case "OR":
				sep = " OR "
			case "AND":
				sep = " AND "
			default:
				return nil, fmt.Errorf("%w: unexpected separator %q", ErrInvalidCondition, s)
			}
			continue
		}
		c, err := ParseCond(item, pk)
		if err != nil {
			return nil, err
		}
		if c != nil {
			conds = append(conds, c)
		}
	}
	if len(conds) == 0 {
		return nil, ErrInvalidCondition
	}
	return group{sep: sep, conds: conds}, nil
}

func parseComparison(items []any) (Cond, error) {
	field, ok := items[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: field name must be a string", ErrInvalidCondition)
	}
	switch len(items) {
	case 2:
		return Eq(field, items[1]), nil
	case 3:
		op, ok := items[1].(string)
		if !ok {
			return nil, fmt.Errorf("%w: operator must be a string", ErrInvalidCondition)
		}
		return Op(field, op, items[2]), nil
	}
	return nil, fmt.Errorf("%w: expected [field, value] or [field, operator, value]", ErrInvalidCondition)
}

func toSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
