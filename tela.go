package tela

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/tela/internal"
	"github.com/dmitrymomot/tela/pkg/errlog"
	"github.com/dmitrymomot/tela/pkg/health"
	"github.com/dmitrymomot/tela/pkg/session"
	"github.com/dmitrymomot/tela/pkg/storage"
	"github.com/dmitrymomot/tela/pkg/view"
)

// Type aliases - public API
type (
	// App owns the HTTP mux, the route table and the server lifecycle.
	App = internal.App

	// Router is the ordered route table.
	Router = internal.Router

	// Route binds a method and URL pattern to a controller action.
	Route = internal.Route

	// Context provides request/response access and helper methods.
	Context = internal.Context

	// Controller exposes named actions.
	Controller = internal.Controller

	// ControllerFactory builds a controller per request.
	ControllerFactory = internal.ControllerFactory

	// Actions maps camelCase action names to their implementation.
	Actions = internal.Actions

	// ActionFunc handles one controller action.
	ActionFunc = internal.ActionFunc

	// Args carries route parameters and the request payload.
	Args = internal.Args

	// HandlerFunc is the signature wrapped by middleware.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps controller dispatch.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from actions.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// SessionOption configures the session manager.
	SessionOption = internal.SessionOption

	// Session is the per-visitor state: user, alerts, CSRF token, values.
	Session = session.Session

	// SessionStore persists sessions.
	SessionStore = session.Store

	// SessionUser identifies the logged in user.
	SessionUser = session.User

	// Enqueuer schedules background jobs.
	Enqueuer = internal.Enqueuer

	// Component is a renderable view.
	Component = internal.Component

	// ResponseWriter wraps http.ResponseWriter with before-write hooks.
	ResponseWriter = internal.ResponseWriter

	// HTTPError carries the response status of an error.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// Extractor pulls a value from the first source that has it.
	Extractor = internal.Extractor

	// ExtractorSource reads a value from the request.
	ExtractorSource = internal.ExtractorSource
)

var (
	ErrInvalidRoutePattern = internal.ErrInvalidRoutePattern
	ErrNilController       = internal.ErrNilController
	ErrNoRenderer          = internal.ErrNoRenderer

	ErrSessionNotConfigured = session.ErrNotConfigured
	ErrSessionNotFound      = session.ErrNotFound
	ErrSessionExpired       = session.ErrExpired
)

// New creates a new application with the given options.
// It panics when a route fails to register.
//
// Example:
//
//	app := tela.New(
//	    tela.WithLogger(log),
//	    tela.WithRenderer(renderer),
//	    tela.WithSession(session.NewRedisStore(rdb)),
//	    tela.WithRoutes(routes),
//	)
//
//	err := app.Run(":8080", tela.ShutdownHook(db.Shutdown(dao)))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// NewRouter creates an empty route table.
func NewRouter() *Router {
	return internal.NewRouter()
}

// App options

// WithRoutes registers routes on the application's route table.
func WithRoutes(fn func(r *Router) error) Option {
	return internal.WithRoutes(fn)
}

// WithMiddleware adds middleware around controller dispatch.
// The first middleware is the outermost.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHTTPMiddleware adds net/http middleware to the outer mux.
func WithHTTPMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return internal.WithHTTPMiddleware(mw...)
}

// WithMount mounts a plain http.Handler ahead of the route table.
func WithMount(pattern string, h http.Handler) Option {
	return internal.WithMount(pattern, h)
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	tela.New(
//	    tela.WithStaticFiles("/static/", assets, "public"),
//	)
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithRenderer sets the view renderer used by Render, View and error pages.
func WithRenderer(r *view.Renderer) Option {
	return internal.WithRenderer(r)
}

// WithErrorHandler replaces the default error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithErrorLog records server errors, for example into the t_log table.
func WithErrorLog(rec errlog.Recorder) Option {
	return internal.WithErrorLog(rec)
}

// WithHealthChecks enables the liveness and readiness endpoints.
//
// Example:
//
//	tela.WithHealthChecks(
//	    tela.WithReadinessCheck("db", db.Healthcheck(dao)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithSession enables sessions backed by store.
func WithSession(store SessionStore, opts ...SessionOption) Option {
	return internal.WithSession(store, opts...)
}

// WithJobs makes Context.Enqueue available.
func WithJobs(e Enqueuer) Option {
	return internal.WithJobs(e)
}

// WithStorage makes Context.Storage available.
func WithStorage(s storage.Storage) Option {
	return internal.WithStorage(s)
}

// WithSuperRole sets the role that passes every route check.
func WithSuperRole(role int) Option {
	return internal.WithSuperRole(role)
}

// WithDebug enables error details, template reloading and disables the CSRF check.
func WithDebug(debug bool) Option {
	return internal.WithDebug(debug)
}

// Health check options

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Session options

func WithSessionCookieName(name string) SessionOption {
	return internal.WithSessionCookieName(name)
}

func WithSessionMaxAge(seconds int) SessionOption {
	return internal.WithSessionMaxAge(seconds)
}

func WithSessionDomain(domain string) SessionOption {
	return internal.WithSessionDomain(domain)
}

func WithSessionSecure(secure bool) SessionOption {
	return internal.WithSessionSecure(secure)
}

func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return internal.WithSessionSameSite(sameSite)
}

// Run options

// Address sets the HTTP server address.
// Defaults to ":8080".
func Address(addr string) RunOption {
	return internal.Address(addr)
}

// Logger sets the server logger. Defaults to the application logger.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets the timeout for graceful shutdown.
// Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook registers a function to run before the server listens.
// The first failing hook aborts startup.
//
// Example:
//
//	tela.StartupHook(jobs.Start)
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook registers a cleanup function to run during shutdown.
// Hooks are called in the order they were registered.
//
// Example:
//
//	tela.ShutdownHook(redis.Shutdown(rdb))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets the base context for the server.
// Cancelling it triggers a graceful shutdown.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Errors

// NewHTTPError returns an error answered with code.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnauthorized(message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrForbidden(message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnprocessable(message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

func WithDetail(detail string) HTTPErrorOption { return internal.WithDetail(detail) }
func WithError(err error) HTTPErrorOption      { return internal.WithError(err) }

// IsHTTPError reports whether err wraps an *HTTPError.
func IsHTTPError(err error) bool { return internal.IsHTTPError(err) }

// AsHTTPError returns the *HTTPError in err's chain, or nil.
func AsHTTPError(err error) *HTTPError { return internal.AsHTTPError(err) }

// StatusCode returns the HTTP status for err, 500 when it carries none.
func StatusCode(err error) int { return internal.StatusCode(err) }

// Helpers

// RequestID returns the request ID assigned by the RequestID middleware.
func RequestID(c Context) string {
	return internal.RequestID(c)
}

// ContextValue returns the value stored with c.Set, or the zero value.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Param returns a route parameter converted to T.
func Param[T internal.Scalar](c Context, name string) T {
	return internal.Param[T](c, name)
}

// Query returns a query parameter converted to T.
func Query[T internal.Scalar](c Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault returns a query parameter converted to T, or def.
func QueryDefault[T internal.Scalar](c Context, name string, def T) T {
	return internal.QueryDefault[T](c, name, def)
}

// ArgValue returns an action payload value converted to T, or def.
func ArgValue[T internal.Scalar](a Args, key string, def T) T {
	return internal.ArgValue[T](a, key, def)
}

// NewExtractor creates an extractor over the given sources.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return internal.NewExtractor(sources...)
}

func FromHeader(name string) ExtractorSource { return internal.FromHeader(name) }
func FromQuery(name string) ExtractorSource  { return internal.FromQuery(name) }
func FromParam(name string) ExtractorSource  { return internal.FromParam(name) }
func FromForm(name string) ExtractorSource   { return internal.FromForm(name) }
func FromSession(key string) ExtractorSource { return internal.FromSession(key) }
