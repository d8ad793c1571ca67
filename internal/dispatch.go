package internal

import (
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrymomot/tela/pkg/strutil"
)

const (
	defaultAction  = "index"
	actionParam    = "action"
	methodOverride = "_method"
)

// dispatch resolves the request against the route table and invokes the
// controller action.
func (a *App) dispatch(c Context) error {
	r := c.Request()
	if err := r.ParseForm(); err != nil {
		return ErrBadRequest("Malformed request payload", WithError(err))
	}

	m, ok := a.routes.Match(requestMethod(r), r.URL.Path)
	if !ok {
		return ErrNotFound("Page not found")
	}
	if rc, ok := c.(*requestContext); ok {
		rc.match = m
	}

	if !a.authorize(c, m.Route) {
		return ErrForbidden("You are not allowed to access this page")
	}

	params, names := m.Params, m.Names
	action := m.Route.Action
	if action == "" {
		if i := slices.Index(names, actionParam); i >= 0 {
			action = params[i]
			params = slices.Delete(slices.Clone(params), i, i+1)
		}
	}
	if action == "" {
		action = defaultAction
	}

	fn, ok := lookupAction(m.Route.Controller().Actions(), action)
	if !ok {
		c.LogDebug("unknown action", "controller", m.Route.ControllerName, "action", action)
		return ErrNotFound("Page not found")
	}

	return fn(c, Args{Params: params, Named: m.Named, Payload: r.Form})
}

// lookupAction converts a kebab-case action to camelCase and finds it.
// Action names match case-insensitively, like the route patterns.
func lookupAction(actions Actions, action string) (ActionFunc, bool) {
	if fn, ok := actions[strutil.Camel(action)]; ok {
		return fn, true
	}
	folded := strutil.Camel(strings.ToLower(action))
	for _, name := range slices.Sorted(maps.Keys(actions)) {
		if strings.EqualFold(name, folded) {
			return actions[name], true
		}
	}
	return nil, false
}

// authorize applies the route's role list. The super role passes everywhere.
func (a *App) authorize(c Context, rt *Route) bool {
	if len(rt.AllowedRoles) == 0 {
		return true
	}
	role, ok := c.Role()
	if ok && a.hasSuperRole && role == a.superRole {
		return true
	}
	return rt.Allows(role, ok)
}

// requestMethod applies the "_method" override carried by POST forms.
func requestMethod(r *http.Request) string {
	if r.Method != http.MethodPost {
		return r.Method
	}
	switch m := strings.ToUpper(r.PostForm.Get(methodOverride)); m {
	case http.MethodPut, http.MethodDelete:
		return m
	}
	return r.Method
}
