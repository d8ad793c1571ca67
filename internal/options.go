package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/tela/pkg/errlog"
	"github.com/dmitrymomot/tela/pkg/health"
	"github.com/dmitrymomot/tela/pkg/session"
	"github.com/dmitrymomot/tela/pkg/storage"
	"github.com/dmitrymomot/tela/pkg/view"
)

// Option configures the application.
type Option func(*App)

// WithRoutes registers controller routes. Setups run in order, so routes
// from an earlier call win over later ones.
//
// Example:
//
//	tela.WithRoutes(func(r *tela.Router) error {
//	    return errors.Join(
//	        r.Get("", "home", controllers.NewHome, "index"),
//	        r.Controller("user", "user", controllers.NewUser(users), roleAdmin),
//	    )
//	})
func WithRoutes(fn func(r *Router) error) Option {
	return func(a *App) {
		if fn != nil {
			a.routeSetups = append(a.routeSetups, fn)
		}
	}
}

// WithMiddleware adds middleware around controller dispatch.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHTTPMiddleware adds net/http middleware to the outer mux.
// It wraps every request, including static files and health probes.
func WithHTTPMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(a *App) {
		a.httpMiddlewares = append(a.httpMiddlewares, mw...)
	}
}

// WithMount serves h at pattern on the outer mux, ahead of the route table.
//
// Example:
//
//	tela.WithMount("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func WithMount(pattern string, h http.Handler) Option {
	return func(a *App) {
		if pattern != "" && h != nil {
			a.mounts = append(a.mounts, staticRoute{handler: h, pattern: pattern})
		}
	}
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled. Files are served with default cache headers.
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
	return func(a *App) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}

		fileServer := http.StripPrefix(strings.TrimSuffix(pattern, "/"), http.FileServerFS(subFS))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Block directory listings
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}

			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")

			fileServer.ServeHTTP(w, r)
		})

		a.staticRoutes = append(a.staticRoutes, staticRoute{handler, pattern})
	}
}

// WithRenderer sets the view renderer used by Context.View and error pages.
func WithRenderer(r *view.Renderer) Option {
	return func(a *App) {
		a.renderer = r
	}
}

// WithErrorHandler replaces the default error handler.
// Called when a handler returns a non-nil error.
//
// Example:
//
//	tela.WithErrorHandler(func(c tela.Context, err error) error {
//	    return c.JSON(tela.StatusCode(err), map[string]string{
//	        "error": err.Error(),
//	    })
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithErrorLog persists server errors (everything but 401, 403 and 404)
// through rec.
func WithErrorLog(rec errlog.Recorder) Option {
	return func(a *App) {
		a.errorLog = rec
	}
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
//
// Example:
//
//	tela.WithHealthChecks(
//	    tela.WithReadinessCheck("db", dao.Healthcheck()),
//	    tela.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			checks:        make(health.Checks),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// WithLogger sets the application logger.
//
// Example:
//
//	log := logger.New(cfg.Log, middlewares.RequestIDExtractor())
//	tela.New(
//	    tela.WithLogger(log.With("component", "http")),
//	)
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSession enables server-side session management.
// Sessions are loaded lazily and saved automatically before the response is written.
//
// Example:
//
//	tela.New(
//	    tela.WithSession(session.NewRedisStore(client),
//	        tela.WithSessionMaxAge(86400 * 30),
//	        tela.WithSessionSecure(true),
//	    ),
//	)
func WithSession(store session.Store, opts ...SessionOption) Option {
	return func(a *App) {
		a.sessionManager = NewSessionManager(store, opts...)
	}
}

// WithJobs enables c.Enqueue. Without it c.Enqueue returns job.ErrNotConfigured.
func WithJobs(e Enqueuer) Option {
	return func(a *App) {
		a.jobs = e
	}
}

// WithStorage configures file storage for the application.
// Without it c.Storage returns storage.ErrNotConfigured.
func WithStorage(s storage.Storage) Option {
	return func(a *App) {
		a.storage = s
	}
}

// WithSuperRole sets the role that passes every route's role check.
func WithSuperRole(role int) Option {
	return func(a *App) {
		a.superRole = role
		a.hasSuperRole = true
	}
}

// WithDebug enables debug mode: error details are written to the response
// and CSRF checks always pass.
func WithDebug(debug bool) Option {
	return func(a *App) {
		a.debug = debug
	}
}
