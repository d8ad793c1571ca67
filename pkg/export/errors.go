package export

import "errors"

var (
	ErrNoRows    = errors.New("export: nothing to export")
	ErrNoColumns = errors.New("export: no columns")
)
