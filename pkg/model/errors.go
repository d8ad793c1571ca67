package model

import "errors"

var (
	ErrMissingTable      = errors.New("model: table is required")
	ErrMissingFactory    = errors.New("model: entity factory is required")
	ErrMissingDefinition = errors.New("model: attribute definition is required")
	ErrUnknownRelation   = errors.New("model: unknown relation")
	ErrInvalidRelation   = errors.New("model: invalid relation")
	ErrNoSearchFields    = errors.New("model: no searchable property")
	ErrMissingRequired   = errors.New("model: required property missing")
	ErrMissingCondition  = errors.New("model: condition is required")
)
