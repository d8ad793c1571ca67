// Package internal provides the core types and implementation for the Tela framework.
//
// This package is internal and should not be used directly. Import "github.com/dmitrymomot/tela"
// instead, which re-exports the public API.
//
// # Core Types
//
//   - App: owns the chi mux, the route table, sessions and the run loop
//   - Router: ordered route table mapping (method, pattern) to a controller action
//   - Controller: exposes named actions; a ControllerFactory builds one per request
//   - Context: request/response access, sessions, alerts, CSRF and rendering
//   - Middleware: wraps the dispatch of controller routes
//   - HTTPError: error carrying the response status
//
// # Routing
//
// Patterns are matched case-insensitively against the request path without
// its leading slash. "{name}" matches [a-zA-Z0-9_-]*, "{name:regex}" uses the
// given expression, and a trailing slash is optional. The first matching
// route wins:
//
//	tela.WithRoutes(func(r *tela.Router) error {
//	    return errors.Join(
//	        r.Get("", "home", controllers.NewHome, "index"),
//	        r.Get("search", "search", search, "search"),
//	        r.Controller("user", "user", users, roleAdmin),
//	    )
//	})
//
// A route without an action takes it from the "action" parameter, falling
// back to "index". Action names are converted from kebab-case to camelCase,
// so "/user/mon-action" calls the "monAction" action. POST forms may carry
// "_method=PUT" or "_method=DELETE" to reach PUT and DELETE routes.
//
// # Authorization
//
// A route lists the roles allowed to reach it. An empty list makes it public.
// The role comes from the session user; the super role configured with
// WithSuperRole passes every check. Failing the check yields 403, an
// unmatched path or unknown action 404.
//
// # Errors
//
// Actions return errors. The default error handler writes details in debug
// mode and the error page otherwise. Errors other than 401, 403 and 404 are
// logged and recorded through WithErrorLog.
//
// # Sessions
//
// Sessions are loaded lazily and saved before the first byte of the response
// is written, so alerts added before a redirect show up on the next page:
//
//	c.AddAlert("User saved", "success")
//	return c.Redirect(http.StatusFound, "/user")
package internal
