package middlewares_test

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tela/internal"
)

// baseContext aliases internal.Context so the embedded field does not
// collide with the interface's Context method.
type baseContext = internal.Context

// testContext implements the parts of internal.Context the middlewares use.
// Calling anything else panics on the nil embedded interface.
type testContext struct {
	baseContext
	response  *internal.ResponseWriter
	request   *http.Request
	values    map[any]any
	route     *internal.Route
	csrfToken string
	debug     bool
}

func newTestContext(w http.ResponseWriter, r *http.Request) *testContext {
	return &testContext{
		response: internal.NewResponseWriter(w),
		request:  r,
		values:   make(map[any]any),
	}
}

func (c *testContext) Request() *http.Request        { return c.request }
func (c *testContext) Response() http.ResponseWriter { return c.response }
func (c *testContext) Context() context.Context      { return c.request.Context() }
func (c *testContext) Route() *internal.Route        { return c.route }
func (c *testContext) Header(name string) string     { return c.request.Header.Get(name) }
func (c *testContext) SetHeader(name, value string)  { c.response.Header().Set(name, value) }
func (c *testContext) Query(name string) string      { return c.request.URL.Query().Get(name) }
func (c *testContext) Form(name string) string       { return c.request.FormValue(name) }
func (c *testContext) Param(string) string           { return "" }
func (c *testContext) Debug() bool                   { return c.debug }
func (c *testContext) Written() bool                 { return c.response.Written() }
func (c *testContext) Logger() *slog.Logger          { return slog.New(slog.DiscardHandler) }
func (c *testContext) LogDebug(string, ...any)       {}
func (c *testContext) LogInfo(string, ...any)        {}
func (c *testContext) LogWarn(string, ...any)        {}
func (c *testContext) LogError(string, ...any)       {}

func (c *testContext) String(code int, s string) error {
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *testContext) Set(key, value any) {
	c.values[key] = value
	// Also store in request context for context extractors
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *testContext) Get(key any) any {
	return c.values[key]
}

// CheckCSRF mirrors the session check: always true in debug mode, otherwise
// a one-time comparison.
func (c *testContext) CheckCSRF(token string) bool {
	if c.debug {
		return true
	}
	stored := c.csrfToken
	c.csrfToken = ""
	return stored != "" && stored == token
}

func (c *testContext) ResponseWriter() *internal.ResponseWriter {
	return c.response
}
