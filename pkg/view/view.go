// Package view renders server-side HTML pages with html/template.
//
// Templates live in an fs.FS with the following layout:
//
//	layout.html          page skeleton, executes {{template "content" .}}
//	components/*.html    shared fragments, each named after its file ("alerts")
//	pages/list.html      generic list page used by the index and list views
//	views/<name>.html    regular views
//	errors/<code>.html   error pages, errors/500.html is the fallback
//
// Results are templ.Component values, so they plug straight into Context.Render.
package view

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"maps"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

const (
	layoutName  = "layout"
	contentName = "content"
	listPage    = "pages/list.html"
)

// Data is the dictionary passed to a template.
type Data map[string]any

// Alert is a flash message shown once on the next rendered page.
type Alert struct {
	Message string
	Type    string // success, info, warning, danger
}

// Request carries the request-scoped values every page needs.
// The HTTP layer stores it on the context before rendering.
type Request struct {
	Auth      any
	Alerts    []Alert
	CSRFToken string
	Path      string
}

type requestKey struct{}

// WithRequest stores request values on ctx.
func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFrom returns the request values stored on ctx, or the zero Request.
func RequestFrom(ctx context.Context) Request {
	r, _ := ctx.Value(requestKey{}).(Request)
	return r
}

// Renderer parses and caches templates.
type Renderer struct {
	fsys     fs.FS
	appTitle string
	baseURL  string
	debug    bool
	global   Scripts
	modules  map[string]Scripts
	alias    func(resource, property string) string
	funcs    template.FuncMap

	cache map[string]*template.Template
	mu    sync.RWMutex
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithAppTitle sets the application title used by the title helper.
func WithAppTitle(title string) Option {
	return func(r *Renderer) { r.appTitle = title }
}

// WithBaseURL sets the prefix used by the url helper.
func WithBaseURL(u string) Option {
	return func(r *Renderer) { r.baseURL = strings.TrimSuffix(u, "/") }
}

// WithDebug disables the template cache so edits show up on reload.
func WithDebug(debug bool) Option {
	return func(r *Renderer) { r.debug = debug }
}

// WithScripts sets the scripts included on every page.
func WithScripts(s Scripts) Option {
	return func(r *Renderer) { r.global = s }
}

// WithModule registers a named group of scripts pages can opt into.
func WithModule(name string, s Scripts) Option {
	return func(r *Renderer) { r.modules[name] = s }
}

// WithAliases sets the resolver used by the alias helper.
func WithAliases(fn func(resource, property string) string) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.alias = fn
		}
	}
}

// WithFuncs adds template functions. They cannot override the built-in helpers.
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *Renderer) { maps.Copy(r.funcs, funcs) }
}

// New creates a Renderer over fsys.
func New(fsys fs.FS, opts ...Option) *Renderer {
	r := &Renderer{
		fsys:    fsys,
		modules: make(map[string]Scripts),
		alias:   func(_, property string) string { return property },
		funcs:   make(template.FuncMap),
		cache:   make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders a view inside the layout.
// The index and list views render the generic list page and need a "list" entry in data.
func (r *Renderer) Render(name string, data Data, extra Extra) (templ.Component, error) {
	page := "views/" + name + ".html"
	if name == "index" || name == "list" {
		if _, ok := data["list"]; !ok {
			return nil, ErrMissingList
		}
		page = listPage
	}

	scripts, err := r.resolve(extra)
	if err != nil {
		return nil, err
	}
	t, err := r.template(page, true)
	if err != nil {
		return nil, err
	}
	return r.component(t, layoutName, data, scripts), nil
}

// Partial renders a view without the layout, for ajax responses.
func (r *Renderer) Partial(name string, data Data) (templ.Component, error) {
	t, err := r.template("views/"+name+".html", false)
	if err != nil {
		return nil, err
	}
	return r.component(t, contentName, data, Scripts{}), nil
}

// Error renders the error page for code, falling back to the 500 page.
func (r *Renderer) Error(code int, withLayout bool) (templ.Component, error) {
	page := "errors/" + strconv.Itoa(code) + ".html"
	if _, err := fs.Stat(r.fsys, page); err != nil {
		code = http.StatusInternalServerError
		page = "errors/500.html"
	}

	var scripts Scripts
	if withLayout {
		s, err := r.resolve(Extra{})
		if err != nil {
			return nil, err
		}
		scripts = s
	}

	t, err := r.template(page, withLayout)
	if err != nil {
		return nil, err
	}
	entry := contentName
	if withLayout {
		entry = layoutName
	}
	data := Data{"code": code, "title": http.StatusText(code)}
	return r.component(t, entry, data, scripts), nil
}

func (r *Renderer) component(t *template.Template, entry string, data Data, scripts Scripts) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		req := RequestFrom(ctx)
		pageData := r.init(data, req, scripts)

		clone, err := t.Clone()
		if err != nil {
			return errors.Join(ErrRenderFailed, err)
		}
		clone.Funcs(r.helpers(pageData, req, scripts))
		if err := clone.ExecuteTemplate(w, entry, pageData); err != nil {
			return errors.Join(ErrRenderFailed, err)
		}
		return nil
	})
}

// init merges the values every page expects into a copy of data.
func (r *Renderer) init(data Data, req Request, scripts Scripts) Data {
	out := make(Data, len(data)+6)
	maps.Copy(out, data)
	if _, ok := out["title"]; !ok {
		out["title"] = ""
	}
	if _, ok := out["activeLinks"]; !ok {
		out["activeLinks"] = []string{}
	}
	if _, ok := out["alerts"]; !ok {
		out["alerts"] = req.Alerts
	}
	out["auth"] = req.Auth
	out["appTitle"] = r.appTitle
	out["scripts"] = scripts
	return out
}

// template returns the parsed set for page. Cached sets are never executed,
// only cloned.
func (r *Renderer) template(page string, withLayout bool) (*template.Template, error) {
	key := page
	if withLayout {
		key = layoutName + ":" + page
	}

	if !r.debug {
		r.mu.RLock()
		t, ok := r.cache[key]
		r.mu.RUnlock()
		if ok {
			return t, nil
		}
	}

	t, err := r.parse(page, withLayout)
	if err != nil {
		return nil, err
	}
	if r.debug {
		return t, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[key]; ok {
		return cached, nil
	}
	r.cache[key] = t
	return t, nil
}

func (r *Renderer) parse(page string, withLayout bool) (*template.Template, error) {
	t := template.New(contentName).Funcs(r.helpers(nil, Request{}, Scripts{}))
	if err := r.parseFile(t, page); err != nil {
		return nil, err
	}

	components, err := fs.Glob(r.fsys, "components/*.html")
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}
	for _, file := range components {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if err := r.parseFile(t.New(name), file); err != nil {
			return nil, err
		}
	}

	if withLayout {
		if err := r.parseFile(t.New(layoutName), "layout.html"); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (r *Renderer) parseFile(t *template.Template, file string) error {
	content, err := fs.ReadFile(r.fsys, file)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMissingView, file, err)
	}
	if _, err := t.Parse(string(content)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRenderFailed, file, err)
	}
	return nil
}
