// Package app is the demo application built on tela: a user directory with
// search, login and CSV export over the t_utilisateur and t_droit tables.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/tela"
	"github.com/dmitrymomot/tela/app/controllers"
	"github.com/dmitrymomot/tela/app/models"
	"github.com/dmitrymomot/tela/middlewares"
	"github.com/dmitrymomot/tela/pkg/attribute"
	"github.com/dmitrymomot/tela/pkg/cache"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/errlog"
	"github.com/dmitrymomot/tela/pkg/logger"
	"github.com/dmitrymomot/tela/pkg/model"
	"github.com/dmitrymomot/tela/pkg/session"
	"github.com/dmitrymomot/tela/pkg/storage"
	"github.com/dmitrymomot/tela/pkg/view"
)

// Deps are the services the application runs on. Only DAO is required;
// the others fall back to in-process implementations or stay disabled.
type Deps struct {
	DAO             *db.DAO
	Logger          *slog.Logger
	Sessions        session.Store
	SearchCache     cache.Cache[controllers.SearchResults]
	DefinitionCache cache.Cache[*attribute.Definition]
	Storage         storage.Storage
	Jobs            tela.Enqueuer
	ErrorLog        errlog.Recorder
	Registry        *prometheus.Registry
	// Checks are extra readiness checks, keyed by name.
	Checks map[string]func(context.Context) error
}

var globalScripts = view.Scripts{
	Head: []view.Script{
		{Type: view.ScriptCSS, URL: "https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css"},
		{Type: view.ScriptCSS, URL: "/public/css/app.css"},
	},
	End: []view.Script{
		{Type: view.ScriptJS, URL: "https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/js/bootstrap.bundle.min.js"},
		{Type: view.ScriptJS, URL: "/public/js/main.js"},
	},
}

var dataTables = view.Scripts{
	Head: []view.Script{
		{Type: view.ScriptCSS, URL: "https://cdn.datatables.net/2.1.8/css/dataTables.bootstrap5.min.css"},
	},
	End: []view.Script{
		{Type: view.ScriptJS, URL: "https://cdn.datatables.net/2.1.8/js/dataTables.min.js"},
		{Type: view.ScriptJS, URL: "https://cdn.datatables.net/2.1.8/js/dataTables.bootstrap5.min.js"},
	},
}

// New builds the application. The schema must already be migrated.
func New(ctx context.Context, cfg Config, deps Deps) (*tela.App, error) {
	if deps.DAO == nil {
		return nil, ErrMissingDAO
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNope()
	}

	var loaderOpts []attribute.LoaderOption
	if deps.DefinitionCache != nil {
		loaderOpts = append(loaderOpts, attribute.WithCache(deps.DefinitionCache))
	}
	loader, err := attribute.NewLoader(Properties(), loaderOpts...)
	if err != nil {
		return nil, err
	}
	ms, err := models.New(ctx, deps.DAO, loader, model.WithLogger(log))
	if err != nil {
		return nil, err
	}

	renderer := view.New(Templates(),
		view.WithAppTitle(cfg.AppTitle),
		view.WithBaseURL(cfg.BaseURL),
		view.WithDebug(cfg.Debug),
		view.WithAliases(ms.Alias),
		view.WithScripts(globalScripts),
		view.WithModule("data-tables", dataTables),
	)

	sessions := deps.Sessions
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	searchCache := deps.SearchCache
	if searchCache == nil {
		searchCache = cache.NewMemory[controllers.SearchResults]()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	health := []tela.HealthOption{
		tela.WithReadinessCheck("db", deps.DAO.Healthcheck()),
	}
	for name, check := range deps.Checks {
		health = append(health, tela.WithReadinessCheck(name, check))
	}

	opts := []tela.Option{
		tela.WithLogger(log),
		tela.WithDebug(cfg.Debug),
		tela.WithRenderer(renderer),
		tela.WithSession(sessions,
			tela.WithSessionCookieName(cfg.Session.CookieName),
			tela.WithSessionMaxAge(cfg.Session.MaxAge),
			tela.WithSessionDomain(cfg.Session.Domain),
			tela.WithSessionSecure(cfg.Session.Secure),
			tela.WithSessionSameSite(http.SameSiteLaxMode),
		),
		tela.WithSuperRole(cfg.SuperRole),
		tela.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
			middlewares.Metrics(
				middlewares.WithMetricsRegistry(reg),
				middlewares.WithMetricsNamespace("tela"),
			),
			middlewares.CSRF(),
		),
		tela.WithMount("/metrics", middlewares.MetricsHandler(reg)),
		tela.WithStaticFiles("/public/", publicFS, "public"),
		tela.WithHealthChecks(health...),
		tela.WithRoutes(routes(ms, cfg.Search, searchCache)),
	}
	if deps.Storage != nil {
		opts = append(opts, tela.WithStorage(deps.Storage))
	}
	if deps.Jobs != nil {
		opts = append(opts, tela.WithJobs(deps.Jobs))
	}
	if deps.ErrorLog != nil {
		opts = append(opts, tela.WithErrorLog(deps.ErrorLog))
	}

	return tela.New(opts...), nil
}
