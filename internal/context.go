package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tela/pkg/job"
	"github.com/dmitrymomot/tela/pkg/session"
	"github.com/dmitrymomot/tela/pkg/storage"
	"github.com/dmitrymomot/tela/pkg/view"
)

// Component is the interface for renderable templates.
// This is compatible with templ.Component.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

// Enqueuer dispatches background tasks. *job.Manager satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any, opts ...job.EnqueueOption) error
}

// Context provides request/response access and helper methods.
// It also implements context.Context by delegating to the underlying request context.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the underlying http.ResponseWriter.
	Response() http.ResponseWriter

	// ResponseWriter returns the wrapped writer, for hooks and status inspection.
	ResponseWriter() *ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// Route returns the matched route, or nil outside controller dispatch.
	Route() *Route

	// Param returns a named route parameter.
	// Returns empty string if the parameter doesn't exist.
	Param(name string) string

	// Query returns the query parameter value by name.
	Query(name string) string

	// QueryDefault returns the query parameter value or a default.
	QueryDefault(name, defaultValue string) string

	// Form returns the form value by name.
	Form(name string) string

	// Payload returns the parsed query and form values.
	Payload() url.Values

	// Header returns the request header value by name.
	Header(name string) string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// IsAjax reports whether the request was sent with XMLHttpRequest.
	IsAjax() bool

	// Debug reports whether the app runs in debug mode.
	Debug() bool

	// JSON writes a JSON response with the given status code.
	JSON(code int, v any) error

	// String writes a plain text response with the given status code.
	String(code int, s string) error

	// NoContent writes a response with no body.
	NoContent(code int) error

	// Redirect redirects the request to the given URL.
	Redirect(code int, url string) error

	// Error creates an HTTPError with the given status code and message.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Render renders a component into a buffer and writes it with code.
	// Nothing is written when rendering fails.
	Render(code int, component Component) error

	// View renders a named view with the layout, or as a partial for ajax requests.
	View(code int, name string, data view.Data, extra ...view.Extra) error

	// Partial renders a named view without the layout.
	Partial(code int, name string, data view.Data) error

	// Written returns true if the response has been written.
	Written() bool

	// Logger returns the request-scoped logger.
	Logger() *slog.Logger

	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	Set(key, value any)

	// Get retrieves a value from the request context.
	Get(key any) any

	// Session returns the current session, creating one when none exists.
	// Returns session.ErrNotConfigured if sessions are disabled.
	Session() (*session.Session, error)

	// User returns the authenticated user, or nil.
	User() *session.User

	// IsAuthenticated reports whether the session carries a user.
	IsAuthenticated() bool

	// Role returns the authenticated user's role.
	Role() (int, bool)

	// Login attaches u to the session and rotates the session token.
	Login(u *session.User) error

	// Logout destroys the session and expires its cookie.
	Logout() error

	// AddAlert queues a flash message for the next rendered page.
	AddAlert(message, typ string)

	// CSRF returns the session's CSRF token.
	CSRF() (string, error)

	// CheckCSRF validates and consumes token. Always true in debug mode.
	CheckCSRF(token string) bool

	// Enqueue adds a background task.
	// Returns job.ErrNotConfigured if no enqueuer is configured.
	Enqueue(name string, payload any, opts ...job.EnqueueOption) error

	// Storage returns the configured storage.
	// Returns storage.ErrNotConfigured if no storage is configured.
	Storage() (storage.Storage, error)
}

// requestContext implements the Context interface.
type requestContext struct {
	request        *http.Request
	responseWriter *ResponseWriter
	app            *App
	match          *RouteMatch

	session               *session.Session
	sessionLoaded         bool
	sessionHookRegistered bool
}

// newContext creates a new context with the response wrapper.
func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	return &requestContext{
		request:        r,
		responseWriter: NewResponseWriter(w),
		app:            app,
	}
}

func (c *requestContext) Request() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	return c.responseWriter
}

func (c *requestContext) ResponseWriter() *ResponseWriter {
	return c.responseWriter
}

func (c *requestContext) Context() context.Context {
	return c.request.Context()
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Route() *Route {
	if c.match == nil {
		return nil
	}
	return c.match.Route
}

func (c *requestContext) Param(name string) string {
	if c.match != nil {
		if v, ok := c.match.Named[name]; ok {
			return v
		}
	}
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	v := c.request.URL.Query().Get(name)
	if v == "" {
		return defaultValue
	}
	return v
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) Payload() url.Values {
	if c.request.Form == nil {
		_ = c.request.ParseForm()
	}
	return c.request.Form
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.responseWriter.Header().Set(name, value)
}

func (c *requestContext) IsAjax() bool {
	return c.request.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

func (c *requestContext) Debug() bool {
	return c.app.debug
}

func (c *requestContext) JSON(code int, v any) error {
	c.responseWriter.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	return json.NewEncoder(c.responseWriter).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.responseWriter.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	_, err := c.responseWriter.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.responseWriter.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	http.Redirect(c.responseWriter, c.request, url, code)
	return nil
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	err := NewHTTPError(code, message)
	for _, opt := range opts {
		opt(err)
	}
	return err
}

func (c *requestContext) Render(code int, component Component) error {
	return c.render(code, component, true)
}

// render writes component with the view request. Pending alerts are
// cleared only once the component rendered, and only when consume is set.
func (c *requestContext) render(code int, component Component, consume bool) error {
	req, sess := c.viewRequest()
	ctx := view.WithRequest(c.request.Context(), req)

	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return err
	}
	if consume && sess != nil {
		sess.PopAlerts()
	}

	c.responseWriter.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	_, err := buf.WriteTo(c.responseWriter)
	return err
}

func (c *requestContext) View(code int, name string, data view.Data, extra ...view.Extra) error {
	if c.app.renderer == nil {
		return ErrNoRenderer
	}
	if c.IsAjax() {
		return c.Partial(code, name, data)
	}

	var ex view.Extra
	if len(extra) > 0 {
		ex = extra[0]
	}
	component, err := c.app.renderer.Render(name, data, ex)
	if err != nil {
		return err
	}
	return c.Render(code, component)
}

func (c *requestContext) Partial(code int, name string, data view.Data) error {
	if c.app.renderer == nil {
		return ErrNoRenderer
	}
	component, err := c.app.renderer.Partial(name, data)
	if err != nil {
		return err
	}
	return c.Render(code, component)
}

// viewRequest collects the values every page reads: the user, pending
// alerts and the CSRF token. Alerts are only read here; popping them marks
// the session dirty, so the flush hook persists the change before the page
// is written.
func (c *requestContext) viewRequest() (view.Request, *session.Session) {
	req := view.Request{Path: c.request.URL.Path}
	if c.app.sessionManager == nil {
		return req, nil
	}

	sess, err := c.Session()
	if err != nil {
		c.LogWarn("session unavailable while rendering", slog.Any("error", err))
		return req, nil
	}
	if sess.IsAuthenticated() {
		req.Auth = sess.User
	}
	for _, a := range sess.Alerts {
		req.Alerts = append(req.Alerts, view.Alert{Message: a.Message, Type: a.Type})
	}
	if token, err := sess.CSRF(); err == nil {
		req.CSRFToken = token
	}
	return req, sess
}

func (c *requestContext) Written() bool {
	return c.responseWriter.Written()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.app.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.app.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.app.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.app.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.app.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

// registerSessionHook ensures the session flush hook is registered once.
// It runs before the response is written to persist any session changes.
func (c *requestContext) registerSessionHook() {
	if c.sessionHookRegistered {
		return
	}
	c.sessionHookRegistered = true
	c.responseWriter.OnBeforeWrite(func() {
		if c.session == nil {
			return
		}
		// Best-effort save; the response is already on its way.
		if err := c.app.sessionManager.Persist(c.Context(), c.session); err != nil {
			c.LogError("failed to save session", slog.Any("error", err))
		}
	})
}

// loadSession returns the stored session without creating one.
func (c *requestContext) loadSession() (*session.Session, error) {
	if c.app.sessionManager == nil {
		return nil, session.ErrNotConfigured
	}
	c.registerSessionHook()

	if c.sessionLoaded {
		return c.session, nil
	}

	sess, err := c.app.sessionManager.LoadSession(c.Context(), c.request)
	if err != nil {
		return nil, err
	}
	c.session = sess
	c.sessionLoaded = true
	return sess, nil
}

func (c *requestContext) Session() (*session.Session, error) {
	sess, err := c.loadSession()
	if err != nil || sess != nil {
		return sess, err
	}

	sess, err = c.app.sessionManager.CreateSession(c.Context())
	if err != nil {
		return nil, err
	}
	c.app.sessionManager.WriteCookie(c.responseWriter, sess)
	c.session = sess
	return sess, nil
}

func (c *requestContext) User() *session.User {
	sess, err := c.loadSession()
	if err != nil || sess == nil || !sess.IsAuthenticated() {
		return nil
	}
	return sess.User
}

func (c *requestContext) IsAuthenticated() bool {
	return c.User() != nil
}

func (c *requestContext) Role() (int, bool) {
	sess, err := c.loadSession()
	if err != nil || sess == nil {
		return 0, false
	}
	return sess.Role()
}

func (c *requestContext) Login(u *session.User) error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	sess.SetUser(u)
	if err := c.app.sessionManager.RotateToken(c.Context(), sess); err != nil {
		return err
	}
	c.app.sessionManager.WriteCookie(c.responseWriter, sess)
	return nil
}

func (c *requestContext) Logout() error {
	sess, err := c.loadSession()
	if err != nil {
		return err
	}
	if sess != nil {
		if err := c.app.sessionManager.DestroySession(c.Context(), sess); err != nil {
			return err
		}
	}
	c.app.sessionManager.ClearCookie(c.responseWriter)
	c.session = nil
	return nil
}

func (c *requestContext) AddAlert(message, typ string) {
	sess, err := c.Session()
	if err != nil {
		c.LogWarn("alert dropped", slog.String("message", message), slog.Any("error", err))
		return
	}
	sess.AddAlert(message, typ)
}

func (c *requestContext) CSRF() (string, error) {
	sess, err := c.Session()
	if err != nil {
		return "", err
	}
	return sess.CSRF()
}

func (c *requestContext) CheckCSRF(token string) bool {
	if c.app.debug {
		return true
	}
	sess, err := c.loadSession()
	if err != nil || sess == nil {
		return false
	}
	return sess.CheckCSRF(token)
}

func (c *requestContext) Enqueue(name string, payload any, opts ...job.EnqueueOption) error {
	if c.app.jobs == nil {
		return job.ErrNotConfigured
	}
	return c.app.jobs.Enqueue(c.Context(), name, payload, opts...)
}

func (c *requestContext) Storage() (storage.Storage, error) {
	if c.app.storage == nil {
		return nil, storage.ErrNotConfigured
	}
	return c.app.storage, nil
}
