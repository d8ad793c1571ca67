package internal

import (
	"net/url"
	"strconv"
)

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error triggers the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
//
// Example:
//
//	func Auth(next tela.HandlerFunc) tela.HandlerFunc {
//	    return func(c tela.Context) error {
//	        if !c.IsAuthenticated() {
//	            return c.Redirect(http.StatusFound, "/login")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
type ErrorHandler func(Context, error) error

// Controller exposes the actions reachable through the route table.
// Action names are camelCase; URLs use kebab-case ("mon-action" -> "monAction").
type Controller interface {
	Actions() Actions
}

// Actions maps action names to their implementation.
type Actions map[string]ActionFunc

// ActionFunc handles one controller action.
type ActionFunc func(c Context, args Args) error

// ControllerFactory builds a fresh controller for each request.
type ControllerFactory func() Controller

// Args carries the positional route parameters, in pattern order, and the
// raw request payload (query and form values merged).
type Args struct {
	Params  []string
	Named   map[string]string
	Payload url.Values
}

// Param returns the i-th positional parameter, or "" when absent.
func (a Args) Param(i int) string {
	if i < 0 || i >= len(a.Params) {
		return ""
	}
	return a.Params[i]
}

// ID returns the "id" parameter as an int.
func (a Args) ID() (int, bool) {
	v, ok := a.Named["id"]
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Value returns the first payload value for key.
func (a Args) Value(key string) string {
	return a.Payload.Get(key)
}
