package internal_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tela/internal"
)

type stubController internal.Actions

func (s stubController) Actions() internal.Actions { return internal.Actions(s) }

func stubFactory() internal.Controller { return stubController{} }

func TestCompilePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		match   bool
	}{
		{"literal", "user", "user", true},
		{"trailing slash", "user", "user/", true},
		{"case insensitive", "user", "USER", true},
		{"anchored", "user", "users", false},
		{"param", "user/{id}", "user/42", true},
		{"param allows dash", "user/{action}", "user/mon-action", true},
		{"param rejects slash", "user/{id}", "user/1/2", false},
		{"custom regex", "user/{id:[0-9]+}", "user/42", true},
		{"custom regex mismatch", "user/{id:[0-9]+}", "user/abc", false},
		{"quoted literal", "file.csv", "fileXcsv", false},
		{"root", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re, err := internal.CompilePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.match, re.MatchString(tt.path))
		})
	}
}

func TestCompilePattern_Invalid(t *testing.T) {
	t.Parallel()

	_, err := internal.CompilePattern("user/{id:[0-9}")
	assert.ErrorIs(t, err, internal.ErrInvalidRoutePattern)
}

func TestRouter_Match(t *testing.T) {
	t.Parallel()

	r := internal.NewRouter()
	require.NoError(t, r.Get("user/export", "user", stubFactory, "export"))
	require.NoError(t, r.Get("user/{id}/{action}", "user", stubFactory, ""))
	require.NoError(t, r.Get("user/{action}", "user", stubFactory, ""))
	require.NoError(t, r.Put("user/{id:[0-9]+}", "user", stubFactory, "update"))

	t.Run("first match wins", func(t *testing.T) {
		t.Parallel()
		m, ok := r.Match(http.MethodGet, "/user/export")
		require.True(t, ok)
		assert.Equal(t, "export", m.Route.Action)
		assert.Empty(t, m.Params)
	})

	t.Run("params in pattern order", func(t *testing.T) {
		t.Parallel()
		m, ok := r.Match(http.MethodGet, "/user/7/edit")
		require.True(t, ok)
		assert.Equal(t, []string{"7", "edit"}, m.Params)
		assert.Equal(t, []string{"id", "action"}, m.Names)
		assert.Equal(t, map[string]string{"id": "7", "action": "edit"}, m.Named)
	})

	t.Run("method must match", func(t *testing.T) {
		t.Parallel()
		_, ok := r.Match(http.MethodPost, "/user/7")
		assert.False(t, ok)

		m, ok := r.Match("put", "/user/7")
		require.True(t, ok)
		assert.Equal(t, "update", m.Route.Action)
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()
		_, ok := r.Match(http.MethodGet, "/account/7/edit/now")
		assert.False(t, ok)
	})
}

func TestRouter_Controller(t *testing.T) {
	t.Parallel()

	r := internal.NewRouter()
	require.NoError(t, r.Controller("/user/", "user", stubFactory, 1, 2))

	routes := r.Routes()
	require.Len(t, routes, 5)

	want := []struct{ method, pattern, action string }{
		{http.MethodGet, "user", "index"},
		{http.MethodGet, "user/{action}", ""},
		{http.MethodGet, "user/{id}/{action}", ""},
		{http.MethodPost, "user/{action}", ""},
		{http.MethodPost, "user/{id}/{action}", ""},
	}
	for i, w := range want {
		assert.Equal(t, w.method, routes[i].Method)
		assert.Equal(t, w.pattern, routes[i].Pattern)
		assert.Equal(t, w.action, routes[i].Action)
		assert.Equal(t, "user", routes[i].ControllerName)
		assert.Equal(t, []int{1, 2}, routes[i].AllowedRoles)
	}
}

func TestRouter_HandleErrors(t *testing.T) {
	t.Parallel()

	r := internal.NewRouter()
	assert.ErrorIs(t, r.Get("user", "user", nil, "index"), internal.ErrNilController)
	assert.ErrorIs(t, r.Get("user/{id:(}", "user", stubFactory, "index"), internal.ErrInvalidRoutePattern)
	assert.Empty(t, r.Routes())
}

func TestRoute_Allows(t *testing.T) {
	t.Parallel()

	public := &internal.Route{}
	assert.True(t, public.Allows(0, false))

	restricted := &internal.Route{AllowedRoles: []int{2, 3}}
	assert.False(t, restricted.Allows(2, false))
	assert.False(t, restricted.Allows(1, true))
	assert.True(t, restricted.Allows(3, true))
}
