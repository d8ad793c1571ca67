package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tela/pkg/errlog"
	"github.com/dmitrymomot/tela/pkg/health"
	"github.com/dmitrymomot/tela/pkg/logger"
	"github.com/dmitrymomot/tela/pkg/storage"
	"github.com/dmitrymomot/tela/pkg/view"
)

// Server limits.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// App orchestrates the application lifecycle.
// The chi mux serves static files, health probes and extra mounts; every
// other request goes through the route table.
// App is immutable after creation - all configuration is done via New().
type App struct {
	mux             chi.Router
	routes          *Router
	renderer        *view.Renderer
	errorHandler    ErrorHandler
	healthConfig    *healthConfig
	logger          *slog.Logger
	sessionManager  *SessionManager
	jobs            Enqueuer
	storage         storage.Storage
	errorLog        errlog.Recorder
	routeSetups     []func(*Router) error
	middlewares     []Middleware
	httpMiddlewares []func(http.Handler) http.Handler
	staticRoutes    []staticRoute
	mounts          []staticRoute
	superRole       int
	hasSuperRole    bool
	debug           bool
}

// staticRoute represents a handler mount point.
type staticRoute struct {
	handler http.Handler
	pattern string
}

// New creates a new application with the given options.
// It panics when a route cannot be registered.
//
// Example:
//
//	app := tela.New(
//	    tela.WithRenderer(renderer),
//	    tela.WithMiddleware(middlewares.Recover(), middlewares.CSRF()),
//	    tela.WithRoutes(func(r *tela.Router) error {
//	        return r.Controller("user", "user", controllers.NewUser(users), 1)
//	    }),
//	)
func New(opts ...Option) *App {
	a := &App{
		mux:    chi.NewRouter(),
		routes: NewRouter(),
		logger: logger.NewNope(), // Default: noop logger (before options)
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.sessionManager != nil {
		a.sessionManager.SetLogger(a.logger)
	}

	for _, setup := range a.routeSetups {
		if err := setup(a.routes); err != nil {
			panic(fmt.Sprintf("routes: %v", err))
		}
	}

	a.setupRoutes()
	return a
}

// Handler returns the root http.Handler.
func (a *App) Handler() http.Handler {
	return a.mux
}

// Routes returns the registered controller routes in match order.
func (a *App) Routes() []*Route {
	return a.routes.Routes()
}

// Run starts the HTTP server and blocks until shutdown.
//
// Example:
//
//	err := app.Run(":8080",
//	    tela.Logger(log),
//	    tela.StartupHook(jobs.StartFunc()),
//	    tela.ShutdownHook(jobs.Shutdown()),
//	    tela.ShutdownHook(dao.Shutdown()),
//	)
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := runConfig{handler: a.mux, address: addr, logger: a.logger}
	for _, opt := range opts {
		opt(&cfg)
	}
	return runServer(cfg)
}

// setupRoutes configures the mux. Controller routes are served by a
// catch-all handler so the route table keeps its own ordering rules.
func (a *App) setupRoutes() {
	for _, mw := range a.httpMiddlewares {
		a.mux.Use(mw)
	}

	for _, sr := range a.staticRoutes {
		a.mux.Mount(sr.pattern, sr.handler)
	}

	if a.healthConfig != nil {
		a.mux.Get(a.healthConfig.livenessPath, health.Liveness())
		a.mux.Get(a.healthConfig.readinessPath,
			health.Readiness(a.healthConfig.checks, health.WithLogger(a.logger)))
	}

	for _, m := range a.mounts {
		a.mux.Handle(m.pattern, m.handler)
	}

	h := a.dispatch
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}
	a.mux.Handle("/*", a.wrapHandler(h))
}

// wrapHandler converts a HandlerFunc to http.HandlerFunc using the app's error handler.
func (a *App) wrapHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, a)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// handleError handles errors from handlers using the configured error handler.
func (a *App) handleError(c Context, err error) {
	// Check if response has already been written
	if c.Written() {
		a.logger.WarnContext(c, "error after response was written", slog.Any("error", err))
		return
	}

	handler := a.errorHandler
	if handler == nil {
		handler = a.defaultErrorHandler
	}
	if herr := handler(c, err); herr != nil {
		a.logger.ErrorContext(c, "error handler failed", slog.Any("error", herr), slog.Any("cause", err))
		if !c.Written() {
			http.Error(c.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
//
// Example:
//
//	tela.WithReadinessCheck("db", dao.Healthcheck())
func WithReadinessCheck(name string, fn func(context.Context) error) HealthOption {
	return func(c *healthConfig) {
		if fn == nil {
			return
		}
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}
