package app

import "errors"

var (
	ErrInvalidConfig = errors.New("app: invalid configuration")
	ErrMissingDAO    = errors.New("app: database handle is required")
)
