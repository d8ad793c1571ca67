package cache

import "errors"

var (
	// ErrNotFound is returned for missing and expired keys.
	ErrNotFound = errors.New("cache: not found")

	ErrClosed    = errors.New("cache: closed")
	ErrMarshal   = errors.New("cache: marshal value")
	ErrUnmarshal = errors.New("cache: unmarshal value")
)
