package internal

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tela/pkg/session"
)

const (
	defaultSessionCookieName = "__sid"
	defaultSessionMaxAge     = 30 * 24 * 60 * 60
)

// SessionManager ties session records in a store to the session cookie.
// The cookie holds an opaque token; the record holds the user, the alerts
// and the CSRF token.
type SessionManager struct {
	store  session.Store
	logger *slog.Logger
	cookie http.Cookie
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		cookie: http.Cookie{
			Name:     defaultSessionCookieName,
			Path:     "/",
			MaxAge:   defaultSessionMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookie.Name = name
		}
	}
}

// WithSessionMaxAge sets the cookie and record lifetime in seconds.
func WithSessionMaxAge(seconds int) SessionOption {
	return func(sm *SessionManager) {
		if seconds > 0 {
			sm.cookie.MaxAge = seconds
		}
	}
}

func WithSessionDomain(domain string) SessionOption {
	return func(sm *SessionManager) { sm.cookie.Domain = domain }
}

func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) { sm.cookie.Secure = secure }
}

func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return func(sm *SessionManager) { sm.cookie.SameSite = sameSite }
}

// SetLogger is called by New once the app logger is known.
func (sm *SessionManager) SetLogger(l *slog.Logger) {
	if l != nil {
		sm.logger = l
	}
}

func (sm *SessionManager) Store() session.Store { return sm.store }

// LoadSession returns the session named by the request cookie. A missing
// cookie, record or an expired record all yield nil without error.
func (sm *SessionManager) LoadSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(sm.cookie.Name)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	sess, err := sm.store.Get(ctx, c.Value)
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.ClearNew()
	sess.ClearDirty()
	return sess, nil
}

// CreateSession stores a new anonymous session.
func (sm *SessionManager) CreateSession(ctx context.Context) (*session.Session, error) {
	expires := time.Now().Add(time.Duration(sm.cookie.MaxAge) * time.Second)
	sess := session.New(uuid.NewString(), rand.Text(), expires)
	if err := sm.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	sess.ClearDirty()
	return sess, nil
}

// Persist saves sess when it changed since it was loaded.
func (sm *SessionManager) Persist(ctx context.Context, sess *session.Session) error {
	if sess == nil || !sess.IsDirty() {
		return nil
	}
	if err := sm.store.Save(ctx, sess); err != nil {
		return err
	}
	sess.ClearDirty()
	return nil
}

// RotateToken re-keys the session, on login and logout, so a token seen
// before the privilege change stops working.
func (sm *SessionManager) RotateToken(ctx context.Context, sess *session.Session) error {
	old := sess.Token
	sess.Token = rand.Text()
	sess.MarkDirty()
	if err := sm.store.Save(ctx, sess); err != nil {
		sess.Token = old
		return err
	}
	sess.ClearDirty()

	if err := sm.store.Delete(ctx, old); err != nil {
		sm.logger.WarnContext(ctx, "failed to delete rotated session", slog.Any("error", err))
	}
	return nil
}

// DestroySession removes the record of sess, if any.
func (sm *SessionManager) DestroySession(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	return sm.store.Delete(ctx, sess.Token)
}

// WriteCookie sends the session token to the client.
func (sm *SessionManager) WriteCookie(w http.ResponseWriter, sess *session.Session) {
	c := sm.cookie
	c.Value = sess.Token
	http.SetCookie(w, &c)
}

// ClearCookie expires the session cookie on the client.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	c := sm.cookie
	c.MaxAge = -1
	http.SetCookie(w, &c)
}
