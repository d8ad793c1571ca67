package query

import "errors"

var (
	ErrMissingTable         = errors.New("query: no table selected")
	ErrMissingCondition     = errors.New("query: statement requires a WHERE condition")
	ErrMissingField         = errors.New("query: row is missing a field")
	ErrMissingPrimaryKey    = errors.New("query: primary key required")
	ErrEmptyData            = errors.New("query: no data to write")
	ErrInvalidIdentifier    = errors.New("query: invalid identifier")
	ErrInvalidOperator      = errors.New("query: invalid comparison operator")
	ErrInvalidCondition     = errors.New("query: invalid condition")
	ErrUnknownClause        = errors.New("query: unknown clause")
	ErrUnsupportedStatement = errors.New("query: unsupported statement")
	ErrUnsupportedJoin      = errors.New("query: joins in UPDATE or DELETE require mysql")
	ErrDryRun               = errors.New("query: dry run, statement not executed")
)
