package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tela"
	"github.com/dmitrymomot/tela/app"
	"github.com/dmitrymomot/tela/app/controllers"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/logger"
	"github.com/dmitrymomot/tela/pkg/session"
)

// goose keeps its settings in package globals.
var migrateMu sync.Mutex

const password = "s3cret!"

func testConfig() app.Config {
	return app.Config{
		AppTitle:  "Tela Test",
		Debug:     true,
		SuperRole: 2,
		Session:   app.SessionConfig{CookieName: "__sid", MaxAge: 3600},
		Search:    app.SearchConfig{MinLength: 3},
	}
}

func openDAO(t *testing.T) *db.DAO {
	t.Helper()
	ctx := context.Background()

	dao, err := db.Open(ctx, db.Config{
		Connection:    "sqlite",
		Database:      filepath.Join(t.TempDir(), "tela.db"),
		MaxOpenConns:  1,
		MaxIdleConns:  1,
		RetryAttempts: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = dao.Shutdown()(context.Background()) })

	migrateMu.Lock()
	err = db.Migrate(ctx, dao, app.Migrations(), "tela_migrations", logger.NewNope())
	migrateMu.Unlock()
	require.NoError(t, err)

	hash, err := controllers.HashPassword(password, 4)
	require.NoError(t, err)
	_, err = dao.DB().ExecContext(ctx, `INSERT INTO t_utilisateur
		(uti_matricule, uti_nom, uti_prenom, uti_mail, uti_password, uti_actif, uti_dro_id)
		VALUES
		('A001', 'Dupont', 'Jean', 'jean.dupont@example.com', ?, 1, 1),
		('ADM1', 'Martin', 'Claire', 'claire.martin@example.com', ?, 1, 2),
		('OLD1', 'Durand', 'Paul', '', ?, 0, 1)`, hash, hash, hash)
	require.NoError(t, err)
	return dao
}

func newApp(t *testing.T) *tela.App {
	t.Helper()
	store := session.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	a, err := app.New(context.Background(), testConfig(), app.Deps{
		DAO:      openDAO(t),
		Sessions: store,
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return a
}

func serve(a *tela.App, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func login(t *testing.T, a *tela.App, matricule string) *http.Cookie {
	t.Helper()
	rec := serve(a, postForm("/login", url.Values{"matricule": {matricule}, "password": {password}}))
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("Location"))
	for _, c := range rec.Result().Cookies() {
		if c.Name == "__sid" && c.Value != "" {
			return c
		}
	}
	require.FailNow(t, "session cookie not set")
	return nil
}

func TestNew_RequiresDAO(t *testing.T) {
	t.Parallel()

	_, err := app.New(context.Background(), testConfig(), app.Deps{})
	require.ErrorIs(t, err, app.ErrMissingDAO)
}

func TestHome(t *testing.T) {
	t.Parallel()

	a := newApp(t)
	rec := serve(a, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "Tela Test")
	assert.Contains(t, body, "/public/css/app.css")
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	a := newApp(t)
	rec := serve(a, httptest.NewRequest(http.MethodGet, "/no/such/page/here", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	a := newApp(t)

	tests := []struct {
		name     string
		query    url.Values
		contains []string
		excludes []string
	}{
		{
			name:     "empty form",
			query:    url.Values{},
			contains: []string{`name="search"`},
			excludes: []string{"alert-danger"},
		},
		{
			name:     "too short",
			query:    url.Values{"search": {"du"}},
			contains: []string{"alert-danger", "at least 3 characters"},
			excludes: []string{"Dupont"},
		},
		{
			name:     "unknown category",
			query:    url.Values{"search": {"dupont"}, "category": {"nothing"}},
			contains: []string{"alert-danger", "The category must be one of"},
		},
		{
			name:     "match in all categories",
			query:    url.Values{"search": {"  DUP  "}},
			contains: []string{"Dupont", "A001"},
			excludes: []string{"Martin", "$2a$"},
		},
		{
			name:     "match in one category",
			query:    url.Values{"search": {"claire"}, "category": {"user"}},
			contains: []string{"Martin", "ADM1"},
			excludes: []string{"Dupont"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(a, httptest.NewRequest(http.MethodGet, "/search?"+tt.query.Encode(), nil))
			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			for _, s := range tt.contains {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestSearch_Post(t *testing.T) {
	t.Parallel()

	a := newApp(t)
	rec := serve(a, postForm("/search", url.Values{"search": {"durand"}}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "OLD1")
}

func TestLogin(t *testing.T) {
	t.Parallel()

	a := newApp(t)

	t.Run("form", func(t *testing.T) {
		t.Parallel()
		rec := serve(a, httptest.NewRequest(http.MethodGet, "/login", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="matricule"`)
	})

	t.Run("lowercase matricule", func(t *testing.T) {
		t.Parallel()
		c := login(t, a, "a001")
		rec := serve(a, httptest.NewRequest(http.MethodGet, "/", nil), c)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "A001")
	})

	rejected := []struct {
		name string
		form url.Values
	}{
		{"wrong password", url.Values{"matricule": {"A001"}, "password": {"nope"}}},
		{"unknown matricule", url.Values{"matricule": {"ZZZ9"}, "password": {password}}},
		{"inactive user", url.Values{"matricule": {"OLD1"}, "password": {password}}},
		{"missing fields", url.Values{"matricule": {"A001"}}},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(a, postForm("/login", tt.form))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), "Unknown matricule or wrong password.")
		})
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()

	a := newApp(t)
	c := login(t, a, "A001")

	rec := serve(a, postForm("/logout", nil), c)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/user", nil), c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUser_Roles(t *testing.T) {
	t.Parallel()

	a := newApp(t)
	user := login(t, a, "A001")
	admin := login(t, a, "ADM1")

	tests := []struct {
		name   string
		target string
		cookie *http.Cookie
		code   int
	}{
		{"anonymous list", "/user", nil, http.StatusForbidden},
		{"user list", "/user", user, http.StatusOK},
		{"admin list through super role", "/user", admin, http.StatusOK},
		{"anonymous export", "/user/export", nil, http.StatusForbidden},
		{"user export", "/user/export", user, http.StatusForbidden},
		{"admin export", "/user/export", admin, http.StatusOK},
		{"unknown action", "/user/nothing", user, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}
			rec := serve(a, httptest.NewRequest(http.MethodGet, tt.target, nil), cookies...)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestUser_List(t *testing.T) {
	t.Parallel()

	a := newApp(t)
	c := login(t, a, "A001")

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/user", nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "<th scope=\"col\">Matricule</th>")
	assert.Contains(t, body, "<th scope=\"col\">Label</th>")
	assert.Contains(t, body, "Administrator")
	assert.Contains(t, body, "dataTables.min.js")
	assert.NotContains(t, body, "$2a$")

	assert.Less(t, strings.Index(body, "Dupont"), strings.Index(body, "Durand"))
	assert.Less(t, strings.Index(body, "Durand"), strings.Index(body, "Martin"))
}

func TestUser_Export(t *testing.T) {
	t.Parallel()

	a := newApp(t)
	c := login(t, a, "ADM1")

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/user/export", nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "utilisateurs.csv")

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "\ufeff"))
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "uti_matricule")
	assert.NotContains(t, lines[0], "uti_password")
	assert.Contains(t, body, `"=""A001"""`)
	assert.NotContains(t, body, "$2a$")
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	a := newApp(t)

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "db")

	serve(a, httptest.NewRequest(http.MethodGet, "/", nil))
	rec = serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tela_http_requests_total")
}

func TestStaticFiles(t *testing.T) {
	t.Parallel()

	a := newApp(t)

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/public/css/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/public/css/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCSRF_OutsideDebug(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Debug = false
	a, err := app.New(context.Background(), cfg, app.Deps{DAO: openDAO(t), Registry: prometheus.NewRegistry()})
	require.NoError(t, err)

	rec := serve(a, postForm("/login", url.Values{"matricule": {"A001"}, "password": {password}}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
