package internal

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"
)

// Route binds a method and URL pattern to a controller action.
type Route struct {
	Method         string
	Pattern        string
	Controller     ControllerFactory
	ControllerName string
	// Action is empty when the action comes from the URL.
	Action       string
	AllowedRoles []int

	re    *regexp.Regexp
	names []string
}

// RouteMatch is the result of a successful Match.
type RouteMatch struct {
	Route  *Route
	Params []string
	Names  []string // parallel to Params
	Named  map[string]string
}

// Router is an ordered route table. The first matching route wins.
// Routes are registered at startup; the table is read-only afterwards.
type Router struct {
	routes []*Route
}

// NewRouter creates an empty route table.
func NewRouter() *Router {
	return &Router{}
}

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)(?::([^}]+))?\}`)

// CompilePattern converts a URL pattern to an anchored, case-insensitive
// regular expression. "{name}" accepts [a-zA-Z0-9_-]*; "{name:regex}" uses
// the given expression. A trailing slash is optional.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	pattern = strings.Trim(pattern, "/")

	var b strings.Builder
	b.WriteString("(?i)^")
	last := 0
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(pattern, -1) {
		b.WriteString(regexp.QuoteMeta(pattern[last:m[0]]))
		name := pattern[m[2]:m[3]]
		expr := "[a-zA-Z0-9_-]*"
		if m[4] >= 0 {
			expr = pattern[m[4]:m[5]]
		}
		fmt.Fprintf(&b, "(?P<%s>%s)", name, expr)
		last = m[1]
	}
	b.WriteString(regexp.QuoteMeta(pattern[last:]))
	b.WriteString("/?$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidRoutePattern, pattern, err)
	}
	return re, nil
}

// Handle registers a route. An empty action takes it from the "action"
// parameter, falling back to "index".
func (r *Router) Handle(method, pattern, name string, factory ControllerFactory, action string, roles ...int) error {
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrNilController, name)
	}
	re, err := CompilePattern(pattern)
	if err != nil {
		return err
	}

	var names []string
	for _, n := range re.SubexpNames() {
		if n != "" {
			names = append(names, n)
		}
	}

	r.routes = append(r.routes, &Route{
		Method:         strings.ToUpper(method),
		Pattern:        strings.Trim(pattern, "/"),
		Controller:     factory,
		ControllerName: name,
		Action:         action,
		AllowedRoles:   slices.Clone(roles),
		re:             re,
		names:          names,
	})
	return nil
}

func (r *Router) Get(pattern, name string, factory ControllerFactory, action string, roles ...int) error {
	return r.Handle(http.MethodGet, pattern, name, factory, action, roles...)
}

func (r *Router) Post(pattern, name string, factory ControllerFactory, action string, roles ...int) error {
	return r.Handle(http.MethodPost, pattern, name, factory, action, roles...)
}

func (r *Router) Put(pattern, name string, factory ControllerFactory, action string, roles ...int) error {
	return r.Handle(http.MethodPut, pattern, name, factory, action, roles...)
}

func (r *Router) Delete(pattern, name string, factory ControllerFactory, action string, roles ...int) error {
	return r.Handle(http.MethodDelete, pattern, name, factory, action, roles...)
}

// Controller registers the generic routes of a resource:
//
//	GET  url               -> index
//	GET  url/{action}
//	GET  url/{id}/{action}
//	POST url/{action}
//	POST url/{id}/{action}
func (r *Router) Controller(url, name string, factory ControllerFactory, roles ...int) error {
	base := strings.Trim(url, "/")
	join := func(suffix string) string {
		if base == "" {
			return suffix
		}
		return base + "/" + suffix
	}
	return errors.Join(
		r.Get(base, name, factory, "index", roles...),
		r.Get(join("{action}"), name, factory, "", roles...),
		r.Get(join("{id}/{action}"), name, factory, "", roles...),
		r.Post(join("{action}"), name, factory, "", roles...),
		r.Post(join("{id}/{action}"), name, factory, "", roles...),
	)
}

// Routes returns the registered routes in order.
func (r *Router) Routes() []*Route {
	return slices.Clone(r.routes)
}

// Match returns the first route matching method and path.
func (r *Router) Match(method, path string) (*RouteMatch, bool) {
	path = strings.TrimPrefix(path, "/")
	method = strings.ToUpper(method)
	for _, rt := range r.routes {
		if rt.Method != method {
			continue
		}
		sub := rt.re.FindStringSubmatch(path)
		if sub == nil {
			continue
		}

		m := &RouteMatch{Route: rt, Named: make(map[string]string, len(rt.names))}
		for i, n := range rt.re.SubexpNames() {
			if n == "" || i >= len(sub) {
				continue
			}
			m.Params = append(m.Params, sub[i])
			m.Names = append(m.Names, n)
			m.Named[n] = sub[i]
		}
		return m, true
	}
	return nil, false
}

// Allows reports whether role may use the route. A route without roles is
// public; an anonymous user only reaches public routes.
func (rt *Route) Allows(role int, authenticated bool) bool {
	if len(rt.AllowedRoles) == 0 {
		return true
	}
	return authenticated && slices.Contains(rt.AllowedRoles, role)
}
