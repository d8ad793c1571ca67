package middlewares

import (
	"errors"
	"fmt"
)

// ErrCSRFMismatch is wrapped in the 403 returned by the CSRF middleware.
var ErrCSRFMismatch = errors.New("middlewares: csrf token mismatch")

// PanicError is what Recover returns in place of a panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// StackTrace is shown on the debug error page.
func (e *PanicError) StackTrace() []byte { return e.Stack }

// AsPanicError finds a *PanicError in err's chain.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	ok := errors.As(err, &pe)
	return pe, ok
}
