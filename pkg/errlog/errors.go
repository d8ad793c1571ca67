package errlog

import "errors"

var (
	ErrInvalidRetention = errors.New("errlog: retention must be positive")
	ErrPersistFailed    = errors.New("errlog: failed to persist entry")
	ErrPurgeFailed      = errors.New("errlog: failed to purge entries")
)
