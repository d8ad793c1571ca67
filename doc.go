// Package tela is a small server-rendered MVC framework.
//
// An application is a route table of controllers, a set of middleware and a
// view renderer. Routes are regular expressions matched in registration
// order; each one names a controller factory, an action and the roles
// allowed to call it.
//
// # Quick Start
//
//	app := tela.New(
//	    tela.WithLogger(log),
//	    tela.WithRenderer(view.New(templates, view.WithAppTitle("Tela"))),
//	    tela.WithSession(session.NewMemoryStore()),
//	    tela.WithSuperRole(2),
//	    tela.WithRoutes(func(r *tela.Router) error {
//	        return errors.Join(
//	            r.Get("", "home", controllers.NewHome, "index"),
//	            r.Controller("user", "user", controllers.NewUser(users), 1),
//	        )
//	    }),
//	)
//
//	if err := app.Run(":8080", tela.ShutdownHook(dao.Shutdown())); err != nil {
//	    log.Error("server stopped", "error", err)
//	}
//
// # Controllers
//
// A controller exposes its actions by name. The factory runs once per
// request, so controllers may keep request state in their fields:
//
//	type Home struct{}
//
//	func NewHome() tela.Controller { return &Home{} }
//
//	func (h *Home) Actions() tela.Actions {
//	    return tela.Actions{"index": h.index}
//	}
//
//	func (h *Home) index(c tela.Context, _ tela.Args) error {
//	    return c.View(http.StatusOK, "home", view.Data{"activeLinks": []string{"home"}})
//	}
//
// Controller registers the generic routes of a resource, where the action is
// taken from the URL: "user/export" calls the "export" action and
// "user/42/show-card" calls "showCard" with 42 as its first parameter.
//
// # Roles
//
// Routes listing roles answer 403 unless the session user holds one of them.
// The super role set with WithSuperRole passes every check.
//
// # Errors
//
// Actions return errors. *HTTPError values carry their status; anything else
// is a 500. The error handler renders errors/<code>.html when the renderer
// has it, and server errors are recorded through WithErrorLog.
package tela
