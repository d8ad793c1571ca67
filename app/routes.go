package app

import (
	"errors"

	"github.com/dmitrymomot/tela"
	"github.com/dmitrymomot/tela/app/controllers"
	"github.com/dmitrymomot/tela/app/models"
	"github.com/dmitrymomot/tela/pkg/cache"
)

// routes declares the route table. Order matters: the first match wins, so
// fixed paths come before the generic controller routes.
func routes(ms *models.Models, cfg SearchConfig, searchCache cache.Cache[controllers.SearchResults]) func(r *tela.Router) error {
	search := controllers.NewSearch(controllers.SearchConfig{
		Categories: []controllers.SearchCategory{
			{Name: "user", Searcher: controllers.ModelSearcher("utilisateur", ms.Utilisateurs)},
		},
		MinLength: cfg.MinLength,
		Cache:     searchCache,
		CacheTTL:  cfg.CacheTTL,
	})
	auth := controllers.NewAuth(ms.Utilisateurs)
	users := controllers.NewUser(ms.Utilisateurs)

	return func(r *tela.Router) error {
		return errors.Join(
			r.Get("", "home", controllers.NewHome, "index"),
			r.Get("search", "search", search, "index"),
			r.Post("search", "search", search, "index"),
			r.Get("login", "auth", auth, "login"),
			r.Post("login", "auth", auth, "authenticate"),
			r.Post("logout", "auth", auth, "logout"),
			r.Get("user/export", "user", users, "export", models.RoleAdmin),
			r.Controller("user", "user", users, models.RoleUser),
		)
	}
}
