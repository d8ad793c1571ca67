package attribute

import "errors"

var (
	ErrMissingDefinition = errors.New("attribute: property file not found")
	ErrInvalidDefinition = errors.New("attribute: invalid property file")
	ErrMissingType       = errors.New("attribute: property requires a type")
	ErrUnknownType       = errors.New("attribute: unknown property type")
)
