package view

import "errors"

var (
	ErrMissingView       = errors.New("view: template not found")
	ErrMissingList       = errors.New("view: list views require a list")
	ErrUnknownModule     = errors.New("view: unknown script module")
	ErrUnknownScriptType = errors.New("view: unknown script type")
	ErrUnknownLocation   = errors.New("view: unknown script location")
	ErrRenderFailed      = errors.New("view: render failed")
)
