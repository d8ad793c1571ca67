package sanitizer

import "errors"

var (
	ErrUnknownType    = errors.New("sanitizer: unknown property type")
	ErrFormatDateArgs = errors.New("sanitizer: format_date needs source and target layouts")
	ErrFilterArg      = errors.New("sanitizer: invalid filter argument")
	ErrInvalidJSON    = errors.New("sanitizer: invalid JSON for object or array")
)
