package query

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/dmitrymomot/tela/pkg/db"
)

// Clause names, in the order they are rendered after SELECT ... FROM.
const (
	ClauseJoin      = "join"
	ClauseLeftJoin  = "leftjoin"
	ClauseRightJoin = "rightjoin"
	ClauseInnerJoin = "innerjoin"
	ClauseWhere     = "where"
	ClauseGroup     = "group"
	ClauseOrder     = "order"
	ClauseHaving    = "having"
	ClauseLimit     = "limit"
)

type clauseSpec struct {
	name    string
	keyword string
	sep     string
}

var clauseOrder = []clauseSpec{
	{ClauseJoin, "JOIN", " ON "},
	{ClauseLeftJoin, "LEFT JOIN", " ON "},
	{ClauseRightJoin, "RIGHT JOIN", " ON "},
	{ClauseInnerJoin, "INNER JOIN", " ON "},
	{ClauseWhere, "WHERE", " AND "},
	{ClauseGroup, "GROUP BY", ", "},
	{ClauseOrder, "ORDER BY", ", "},
	{ClauseHaving, "HAVING", " AND "},
	{ClauseLimit, "LIMIT", ", "},
}

func specFor(name string) (clauseSpec, bool) {
	for _, s := range clauseOrder {
		if s.name == name {
			return s, true
		}
	}
	return clauseSpec{}, false
}

// DebugMode controls statement logging.
type DebugMode int

const (
	DebugOff DebugMode = iota
	// DebugLog logs every statement with its arguments after execution.
	DebugLog
	// DebugDryRun logs the statement and skips execution.
	DebugDryRun
)

type entry struct {
	parts []string
	sep   string
	args  []any
}

// Builder accumulates clauses and renders them into parameterized SQL.
// Clauses are cleared after every execution, so a Builder can be reused
// for successive statements but must not be shared between goroutines.
type Builder struct {
	dao          *db.DAO
	logger       *slog.Logger
	defaultTable string
	pk           []string

	table   string
	fields  []string
	clauses map[string][]entry
	debug   DebugMode
	err     error
}

// Option configures a Builder.
type Option func(*Builder)

// WithTable sets the table used when none is selected with Table.
func WithTable(table string) Option {
	return func(b *Builder) {
		b.defaultTable = table
	}
}

// WithPrimaryKey sets the primary key columns used by Update, MultiUpdate and Insert.
func WithPrimaryKey(columns ...string) Option {
	return func(b *Builder) {
		b.pk = columns
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Builder bound to dao.
func New(dao *db.DAO, opts ...Option) *Builder {
	b := &Builder{
		dao:     dao,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		clauses: make(map[string][]entry),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// DAO returns the database handle.
func (b *Builder) DAO() *db.DAO {
	return b.dao
}

// PrimaryKey returns the primary key columns.
func (b *Builder) PrimaryKey() []string {
	return b.pk
}

// Table selects the table for the next statement.
func (b *Builder) Table(name string) *Builder {
	if !db.ValidIdentifier(name) {
		b.fail(fmt.Errorf("%w: table %q", ErrInvalidIdentifier, name))
		return b
	}
	b.table = name
	return b
}

// Fields sets the selected columns. Later calls replace earlier ones.
func (b *Builder) Fields(fields ...string) *Builder {
	b.fields = fields
	return b
}

// Join adds a JOIN table ON condition clause.
func (b *Builder) Join(table, on string) *Builder {
	return b.add(ClauseJoin, entry{parts: []string{table, on}})
}

// LeftJoin adds a LEFT JOIN table ON condition clause.
func (b *Builder) LeftJoin(table, on string) *Builder {
	return b.add(ClauseLeftJoin, entry{parts: []string{table, on}})
}

// RightJoin adds a RIGHT JOIN table ON condition clause.
func (b *Builder) RightJoin(table, on string) *Builder {
	return b.add(ClauseRightJoin, entry{parts: []string{table, on}})
}

// InnerJoin adds an INNER JOIN table ON condition clause.
func (b *Builder) InnerJoin(table, on string) *Builder {
	return b.add(ClauseInnerJoin, entry{parts: []string{table, on}})
}

// Where adds a condition fragment. Successive calls are combined with AND.
func (b *Builder) Where(expr string, args ...any) *Builder {
	return b.add(ClauseWhere, entry{parts: []string{expr}, args: args})
}

// WhereCond adds a structured condition. A nil condition is ignored.
func (b *Builder) WhereCond(c Cond) *Builder {
	if c == nil {
		return b
	}
	expr, args, err := c.SQL()
	if err != nil {
		b.fail(err)
		return b
	}
	return b.Where(expr, args...)
}

// OrWhere adds condition fragments joined with OR as a single group.
func (b *Builder) OrWhere(exprs ...string) *Builder {
	return b.add(ClauseWhere, entry{parts: exprs, sep: " OR "})
}

// Group adds GROUP BY columns.
func (b *Builder) Group(fields ...string) *Builder {
	return b.add(ClauseGroup, entry{parts: fields})
}

// Order adds ORDER BY expressions.
func (b *Builder) Order(exprs ...string) *Builder {
	return b.add(ClauseOrder, entry{parts: exprs})
}

// Having adds a HAVING condition. Successive calls are combined with AND.
func (b *Builder) Having(expr string, args ...any) *Builder {
	return b.add(ClauseHaving, entry{parts: []string{expr}, args: args})
}

// Limit restricts the number of rows, with an optional offset.
// Only the last call is kept.
func (b *Builder) Limit(n int, offset ...int) *Builder {
	expr := fmt.Sprintf("%d", n)
	if len(offset) > 0 && offset[0] > 0 {
		expr += fmt.Sprintf(" OFFSET %d", offset[0])
	}
	b.clauses[ClauseLimit] = []entry{{parts: []string{expr}}}
	return b
}

// Clause adds raw parts to a named clause, joined by the clause's default separator.
func (b *Builder) Clause(name string, parts ...string) *Builder {
	return b.ClauseSep(name, "", parts...)
}

// ClauseSep adds raw parts to a named clause joined by sep.
func (b *Builder) ClauseSep(name, sep string, parts ...string) *Builder {
	name = strings.ToLower(name)
	if _, ok := specFor(name); !ok {
		b.fail(fmt.Errorf("%w: %q", ErrUnknownClause, name))
		return b
	}
	if name == ClauseLimit {
		b.clauses[ClauseLimit] = []entry{{parts: parts, sep: sep}}
		return b
	}
	return b.add(name, entry{parts: parts, sep: sep})
}

// Debug sets the debug mode for the next statement.
func (b *Builder) Debug(mode DebugMode) *Builder {
	b.debug = mode
	return b
}

// Err returns the first error recorded while building.
func (b *Builder) Err() error {
	return b.err
}

// Reset clears every clause, the selected table and the debug mode.
func (b *Builder) Reset() {
	b.table = ""
	b.fields = nil
	b.clauses = make(map[string][]entry)
	b.debug = DebugOff
	b.err = nil
}

func (b *Builder) add(name string, e entry) *Builder {
	b.clauses[name] = append(b.clauses[name], e)
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// tableName returns the selected table, falling back to the default one.
func (b *Builder) tableName() (string, error) {
	if b.table != "" {
		return b.table, nil
	}
	if b.defaultTable != "" {
		return b.defaultTable, nil
	}
	return "", ErrMissingTable
}

var joinClauses = []string{ClauseJoin, ClauseLeftJoin, ClauseRightJoin, ClauseInnerJoin}

// mutationJoins renders the join clauses of an UPDATE or DELETE.
// Only MySQL accepts them in that position.
func (b *Builder) mutationJoins() (string, []any, error) {
	if !slices.ContainsFunc(joinClauses, func(name string) bool { return len(b.clauses[name]) > 0 }) {
		return "", nil, nil
	}
	if b.dao.Dialect() != db.MySQL {
		return "", nil, ErrUnsupportedJoin
	}
	joins, args := b.renderClauses(joinClauses...)
	return joins, args, nil
}

// hasWhere reports whether a WHERE clause has been added.
func (b *Builder) hasWhere() bool {
	return len(b.clauses[ClauseWhere]) > 0
}

// renderClauses linearizes the accumulated clauses in the fixed order.
// Joins render one command per entry; the other clauses merge their entries.
func (b *Builder) renderClauses(names ...string) (string, []any) {
	var (
		commands []string
		args     []any
	)
	for _, spec := range clauseOrder {
		if len(names) > 0 && !slices.Contains(names, spec.name) {
			continue
		}
		entries := b.clauses[spec.name]
		if len(entries) == 0 {
			continue
		}

		switch spec.name {
		case ClauseJoin, ClauseLeftJoin, ClauseRightJoin, ClauseInnerJoin:
			for _, e := range entries {
				commands = append(commands, spec.keyword+" "+e.join(spec.sep))
			}
		case ClauseWhere, ClauseHaving:
			parts := make([]string, 0, len(entries))
			for _, e := range entries {
				s := e.join(spec.sep)
				if len(entries) > 1 {
					s = "(" + s + ")"
				}
				parts = append(parts, s)
				args = append(args, e.args...)
			}
			commands = append(commands, spec.keyword+" "+strings.Join(parts, " AND "))
		default:
			parts := make([]string, 0, len(entries))
			for _, e := range entries {
				parts = append(parts, e.join(spec.sep))
			}
			commands = append(commands, spec.keyword+" "+strings.Join(parts, ", "))
		}
	}
	return strings.Join(commands, " "), args
}

func (e entry) join(defaultSep string) string {
	sep := defaultSep
	if e.sep != "" {
		sep = e.sep
	}
	return strings.Join(e.parts, sep)
}
