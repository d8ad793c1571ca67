package health

import "errors"

var (
	// ErrCheckFailed is returned by Run's error when one or more checks fail.
	ErrCheckFailed = errors.New("health: check failed")
)
