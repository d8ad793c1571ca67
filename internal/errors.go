package internal

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidRoutePattern = errors.New("tela: invalid route pattern")
	ErrNilController       = errors.New("tela: controller factory is nil")
	ErrNoRenderer          = errors.New("tela: view renderer not configured")
)

// HTTPError is an error answered with a specific status. Message is shown
// to the user; Err and Detail only appear in debug mode and the logs.
type HTTPError struct {
	Code    int
	Message string
	Detail  string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

func WithDetail(detail string) HTTPErrorOption {
	return func(e *HTTPError) { e.Detail = detail }
}

// WithError attaches the underlying cause.
func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) { e.Err = err }
}

func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnprocessableEntity, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

// AsHTTPError returns the *HTTPError in err's chain, or nil.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

func IsHTTPError(err error) bool { return AsHTTPError(err) != nil }

// StatusCode maps err to a response status; anything unclassified is a 500.
func StatusCode(err error) int {
	if httpErr := AsHTTPError(err); httpErr != nil && httpErr.Code != 0 {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}
