package internal_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tela/internal"
	"github.com/dmitrymomot/tela/pkg/errlog"
	"github.com/dmitrymomot/tela/pkg/session"
	"github.com/dmitrymomot/tela/pkg/view"
)

const (
	roleUser  = 1
	roleAdmin = 2
	roleSuper = 9
)

type recorder struct {
	mu      sync.Mutex
	entries []errlog.Entry
}

func (r *recorder) Record(_ context.Context, e errlog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *recorder) Entries() []errlog.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]errlog.Entry(nil), r.entries...)
}

type brokenComponent struct{}

func (brokenComponent) Render(context.Context, io.Writer) error {
	return errors.New("template exploded")
}

func itemActions() stubController {
	return stubController{
		"index": func(c internal.Context, _ internal.Args) error {
			return c.String(http.StatusOK, "index")
		},
		"show": func(c internal.Context, a internal.Args) error {
			id, _ := a.ID()
			return c.String(http.StatusOK, fmt.Sprintf("show %d %v", id, a.Params))
		},
		"monAction": func(c internal.Context, a internal.Args) error {
			return c.String(http.StatusOK, "mon "+a.Value("q"))
		},
		"update": func(c internal.Context, _ internal.Args) error {
			return c.String(http.StatusOK, "update "+c.Param("id"))
		},
		"fail": func(c internal.Context, _ internal.Args) error {
			return errors.New("boom")
		},
		"login": func(c internal.Context, a internal.Args) error {
			role, _ := strconv.Atoi(a.Value("role"))
			if err := c.Login(&session.User{Matricule: "M001", Role: role}); err != nil {
				return err
			}
			return c.NoContent(http.StatusNoContent)
		},
		"logout": func(c internal.Context, _ internal.Args) error {
			if err := c.Logout(); err != nil {
				return err
			}
			return c.NoContent(http.StatusNoContent)
		},
		"notify": func(c internal.Context, _ internal.Args) error {
			c.AddAlert("Saved", "success")
			return c.Redirect(http.StatusFound, "/page")
		},
		"page": func(c internal.Context, _ internal.Args) error {
			return c.View(http.StatusOK, "page", view.Data{"title": "Page"})
		},
		"broken": func(c internal.Context, _ internal.Args) error {
			return c.Render(http.StatusOK, brokenComponent{})
		},
	}
}

func newTestApp(t *testing.T, opts ...internal.Option) *internal.App {
	t.Helper()

	store := session.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	factory := func() internal.Controller { return itemActions() }
	base := []internal.Option{
		internal.WithSession(store),
		internal.WithSuperRole(roleSuper),
		internal.WithRoutes(func(r *internal.Router) error {
			return errors.Join(
				r.Put("item/{id:[0-9]+}", "item", factory, "update"),
				r.Controller("item", "item", factory),
				r.Controller("admin", "admin", factory, roleAdmin),
				r.Post("login", "auth", factory, "login"),
				r.Post("logout", "auth", factory, "logout"),
				r.Get("notify", "page", factory, "notify"),
				r.Get("page", "page", factory, "page"),
				r.Get("broken", "page", factory, "broken"),
			)
		}),
	}
	return internal.New(append(base, opts...)...)
}

func serve(app *internal.App, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "__sid" {
			found = c
		}
	}
	require.NotNil(t, found, "session cookie not set")
	return found
}

func login(t *testing.T, app *internal.App, role int) *http.Cookie {
	t.Helper()
	form := url.Values{"role": {strconv.Itoa(role)}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(app, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	return sessionCookie(t, rec)
}

func TestApp_Dispatch(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	tests := []struct {
		name   string
		method string
		target string
		code   int
		body   string
	}{
		{"index action", http.MethodGet, "/item", http.StatusOK, "index"},
		{"case insensitive with slash", http.MethodGet, "/ITEM/", http.StatusOK, "index"},
		{"kebab action", http.MethodGet, "/item/mon-action?q=x", http.StatusOK, "mon x"},
		{"upper case action", http.MethodGet, "/item/42/SHOW", http.StatusOK, "show 42 [42]"},
		{"mixed case kebab action", http.MethodGet, "/ITEM/Mon-Action?q=y", http.StatusOK, "mon y"},
		{"action removed from params", http.MethodGet, "/item/42/show", http.StatusOK, "show 42 [42]"},
		{"unknown action", http.MethodGet, "/item/unknown", http.StatusNotFound, "Not Found"},
		{"no route", http.MethodGet, "/nothing/here/at/all", http.StatusNotFound, "Not Found"},
		{"route method mismatch", http.MethodDelete, "/item", http.StatusNotFound, "Not Found"},
		{"handler error", http.MethodGet, "/item/fail", http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(app, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestApp_MethodOverride(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	form := url.Values{"_method": {"put"}}
	req := httptest.NewRequest(http.MethodPost, "/item/7", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := serve(app, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "update 7", rec.Body.String())
}

func TestApp_Roles(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/admin", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("role not listed", func(t *testing.T) {
		t.Parallel()
		cookie := login(t, app, roleUser)
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/admin", nil), cookie)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("role listed", func(t *testing.T) {
		t.Parallel()
		cookie := login(t, app, roleAdmin)
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/admin", nil), cookie)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "index", rec.Body.String())
	})

	t.Run("super role", func(t *testing.T) {
		t.Parallel()
		cookie := login(t, app, roleSuper)
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/admin", nil), cookie)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("logout", func(t *testing.T) {
		t.Parallel()
		cookie := login(t, app, roleAdmin)
		rec := serve(app, httptest.NewRequest(http.MethodPost, "/logout", nil), cookie)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, -1, sessionCookie(t, rec).MaxAge)

		rec = serve(app, httptest.NewRequest(http.MethodGet, "/admin", nil), cookie)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestApp_ErrorLog(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	app := newTestApp(t, internal.WithErrorLog(rec))

	serve(app, httptest.NewRequest(http.MethodGet, "/item/unknown", nil))
	serve(app, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Empty(t, rec.Entries())

	req := httptest.NewRequest(http.MethodGet, "/item/fail", nil)
	req = req.WithContext(context.WithValue(req.Context(), internal.RequestIDKey{}, "req-1"))
	serve(app, req)

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, http.StatusInternalServerError, entries[0].Code)
	assert.Equal(t, "boom", entries[0].Message)
	assert.Equal(t, "/item/fail", entries[0].Path)
	assert.Equal(t, "req-1", entries[0].RequestID)
	assert.Empty(t, entries[0].User)
	assert.False(t, entries[0].Date.IsZero())
}

func TestApp_DebugErrors(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, internal.WithDebug(true))

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/item/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "500 Internal Server Error")
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestApp_AjaxErrors(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	rec := serve(app, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"You are not allowed to access this page"}`, rec.Body.String())
}

func viewFS() fstest.MapFS {
	return fstest.MapFS{
		"layout.html": {Data: []byte(
			`<title>{{title "head"}}</title>{{range .alerts}}<div class="alert-{{.Type}}">{{.Message}}</div>{{end}}` +
				`<main>{{template "content" .}}</main>`,
		)},
		"views/page.html": {Data: []byte(`<h1>{{title "body"}}</h1>{{csrfField}}`)},
		"errors/404.html": {Data: []byte(`<p>missing {{.code}}</p>`)},
		"errors/403.html": {Data: []byte(`<p>denied {{.code}}</p>`)},
		"errors/500.html": {Data: []byte(`<p>oops {{.code}}</p>`)},
	}
}

func TestApp_Views(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, internal.WithRenderer(view.New(viewFS(), view.WithAppTitle("Tela"))))

	t.Run("alerts survive a redirect once", func(t *testing.T) {
		t.Parallel()

		rec := serve(app, httptest.NewRequest(http.MethodGet, "/notify", nil))
		require.Equal(t, http.StatusFound, rec.Code)
		cookie := sessionCookie(t, rec)

		rec = serve(app, httptest.NewRequest(http.MethodGet, "/page", nil), cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "<title>Page | Tela</title>")
		assert.Contains(t, body, `<div class="alert-success">Saved</div>`)
		assert.Contains(t, body, `name="CSRFToken"`)

		rec = serve(app, httptest.NewRequest(http.MethodGet, "/page", nil), cookie)
		assert.NotContains(t, rec.Body.String(), "alert-success")
	})

	t.Run("alerts kept when rendering fails", func(t *testing.T) {
		t.Parallel()

		rec := serve(app, httptest.NewRequest(http.MethodGet, "/notify", nil))
		require.Equal(t, http.StatusFound, rec.Code)
		cookie := sessionCookie(t, rec)

		rec = serve(app, httptest.NewRequest(http.MethodGet, "/broken", nil), cookie)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "oops 500")

		rec = serve(app, httptest.NewRequest(http.MethodGet, "/page", nil), cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `<div class="alert-success">Saved</div>`)
	})

	t.Run("ajax renders the partial", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/page", nil)
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		rec := serve(app, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Body.String(), "<h1>Page</h1>"))
	})

	t.Run("error page with layout", func(t *testing.T) {
		t.Parallel()

		rec := serve(app, httptest.NewRequest(http.MethodGet, "/nowhere/at/all/really", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "<main><p>missing 404</p></main>")
	})

	t.Run("forbidden page without layout", func(t *testing.T) {
		t.Parallel()

		rec := serve(app, httptest.NewRequest(http.MethodGet, "/admin", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "<p>denied 403</p>", rec.Body.String())
	})
}

func TestApp_HealthAndMounts(t *testing.T) {
	t.Parallel()

	app := newTestApp(t,
		internal.WithHealthChecks(
			internal.WithReadinessCheck("db", func(context.Context) error { return nil }),
		),
		internal.WithMount("/metrics", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		})),
		internal.WithStaticFiles("/static/", fstest.MapFS{
			"public/app.css": {Data: []byte("body{}")},
		}, "public"),
	)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "metrics", rec.Body.String())

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/static/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApp_MiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) internal.Middleware {
		return func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	app := newTestApp(t, internal.WithMiddleware(mark("outer"), mark("inner")))
	rec := serve(app, httptest.NewRequest(http.MethodGet, "/item", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestNew_PanicsOnInvalidRoute(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		internal.New(internal.WithRoutes(func(r *internal.Router) error {
			return r.Get("{id:(}", "bad", stubFactory, "index")
		}))
	})
}
