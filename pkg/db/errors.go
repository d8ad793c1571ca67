package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrFailedToParseDBConfig    = errors.New("db: failed to parse database configuration")
	ErrFailedToOpenDBConnection = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed        = errors.New("db: healthcheck failed")
	ErrUnknownDriver            = errors.New("db: unknown driver")
	ErrTxStatementFailed        = errors.New("db: statement failed inside transaction")
	ErrTxAlreadyStarted         = errors.New("db: transaction already started")
	ErrNoRows                   = errors.New("db: no rows in result set")
	ErrUnsupported              = errors.New("db: operation not supported by dialect")
	ErrInvalidIdentifier        = errors.New("db: invalid identifier")
	ErrSetDialect               = errors.New("db migrator: failed to set dialect")
	ErrApplyMigrations          = errors.New("db migrator: failed to apply migrations")
)

// QueryError is returned when a statement fails outside of a transaction.
type QueryError struct {
	Op    string
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("db: invalid %s query: %s", e.Op, describe(e.Err))
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// DriverCode returns the driver error code, if the driver exposes one.
func (e *QueryError) DriverCode() string {
	return errorCode(e.Err)
}

// IsConstraintError reports whether err resulted from a constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) || IsForeignKeyConstraintError(err) || IsCheckConstraintError(err)
}

type sqlStateError interface {
	SQLState() string
}

type errorCoder interface {
	Code() string
}

type errorNumberer interface {
	Number() uint16
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"

	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451
	mysqlForeignKeyChild  = 1452
	mysqlCheckConstraint  = 3819
)

// IsUniqueConstraintError reports whether err resulted from a uniqueness violation.
func IsUniqueConstraintError(err error) bool {
	return matchError(err, []string{pgUniqueViolation}, []uint16{mysqlDuplicateEntry},
		"Error 1062", "violates unique constraint", "UNIQUE constraint failed")
}

// IsForeignKeyConstraintError reports whether err resulted from a foreign key violation.
func IsForeignKeyConstraintError(err error) bool {
	return matchError(err, []string{pgForeignKeyViolation}, []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		"Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed")
}

// IsCheckConstraintError reports whether err resulted from a check constraint violation.
func IsCheckConstraintError(err error) bool {
	return matchError(err, []string{pgCheckViolation}, []uint16{mysqlCheckConstraint},
		"Error 3819", "violates check constraint", "CHECK constraint failed")
}

func matchError(err error, states []string, numbers []uint16, fallbacks ...string) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok {
		for _, s := range states {
			if e.SQLState() == s {
				return true
			}
		}
	}
	if e, ok := asError[errorCoder](err); ok {
		for _, s := range states {
			if e.Code() == s {
				return true
			}
		}
	}
	if e, ok := asError[errorNumberer](err); ok {
		for _, n := range numbers {
			if e.Number() == n {
				return true
			}
		}
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		for _, n := range numbers {
			if e.Number == n {
				return true
			}
		}
	}
	msg := err.Error()
	for _, sub := range fallbacks {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

func errorCode(err error) string {
	if e, ok := asError[sqlStateError](err); ok {
		return e.SQLState()
	}
	if e, ok := asError[errorCoder](err); ok {
		return e.Code()
	}
	if e, ok := asError[errorNumberer](err); ok {
		return fmt.Sprint(e.Number())
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return fmt.Sprint(e.Number)
	}
	return ""
}

func describe(err error) string {
	if err == nil {
		return "unknown error"
	}
	if code := errorCode(err); code != "" {
		return code + " - " + err.Error()
	}
	return err.Error()
}

func asError[T any](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}
