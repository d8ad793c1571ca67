package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"time"
)

// User is the authenticated account attached to a session.
type User struct {
	Matricule string `json:"matricule"`
	Role      int    `json:"role"`
}

// Alert is a flash message shown on the next rendered page.
type Alert struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Session represents a user session with auth, flash alerts and arbitrary values.
type Session struct {
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	User      *User          `json:"user,omitempty"` // nil = anonymous session
	Values    map[string]any `json:"values,omitempty"`
	Alerts    []Alert        `json:"alerts,omitempty"`
	ID        string         `json:"id"`
	Token     string         `json:"token"` // Cookie token (different from ID)
	CSRFToken string         `json:"csrf_token,omitempty"`

	dirty bool
	isNew bool
}

// New creates a new session with the given ID and token.
func New(id, token string, expiresAt time.Time) *Session {
	return &Session{
		ID:        id,
		Token:     token,
		Values:    make(map[string]any),
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
		isNew:     true,
		dirty:     true,
	}
}

// IsAuthenticated returns true if the session has an associated user.
func (s *Session) IsAuthenticated() bool {
	return s.User != nil && s.User.Matricule != ""
}

// Role returns the role of the authenticated user.
func (s *Session) Role() (int, bool) {
	if !s.IsAuthenticated() {
		return 0, false
	}
	return s.User.Role, true
}

// SetUser attaches u to the session; nil logs the user out.
func (s *Session) SetUser(u *User) {
	s.User = u
	s.dirty = true
}

// SetValue stores a value in the session.
func (s *Session) SetValue(key string, val any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = val
	s.dirty = true
}

// GetValue retrieves a value from the session.
func (s *Session) GetValue(key string) (any, bool) {
	if s.Values == nil {
		return nil, false
	}
	val, ok := s.Values[key]
	return val, ok
}

// DeleteValue removes a value from the session.
// Marks the session as dirty only if the key existed.
func (s *Session) DeleteValue(key string) {
	if _, exists := s.Values[key]; exists {
		delete(s.Values, key)
		s.dirty = true
	}
}

// AddAlert queues a flash message.
func (s *Session) AddAlert(message, typ string) {
	s.Alerts = append(s.Alerts, Alert{Message: message, Type: typ})
	s.dirty = true
}

// PopAlerts returns the queued flash messages and clears them.
func (s *Session) PopAlerts() []Alert {
	alerts := s.Alerts
	if len(alerts) > 0 {
		s.Alerts = nil
		s.dirty = true
	}
	return alerts
}

// CSRF returns the session's CSRF token, generating one when missing.
func (s *Session) CSRF() (string, error) {
	if s.CSRFToken != "" {
		return s.CSRFToken, nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generate csrf token: %w", err)
	}
	s.CSRFToken = hex.EncodeToString(b)
	s.dirty = true
	return s.CSRFToken, nil
}

// CheckCSRF compares token with the session's token. The stored token is
// consumed whatever the result.
func (s *Session) CheckCSRF(token string) bool {
	stored := s.CSRFToken
	if stored == "" {
		return false
	}
	s.CSRFToken = ""
	s.dirty = true
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1
}

// IsDirty returns true if the session has unsaved changes.
func (s *Session) IsDirty() bool {
	return s.dirty
}

// ClearDirty marks the session as clean (saved).
func (s *Session) ClearDirty() {
	s.dirty = false
}

// MarkDirty marks the session as needing to be saved.
func (s *Session) MarkDirty() {
	s.dirty = true
}

// IsNew returns true if the session was just created.
func (s *Session) IsNew() bool {
	return s.isNew
}

// ClearNew marks the session as no longer new.
func (s *Session) ClearNew() {
	s.isNew = false
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Clone returns a copy safe to hand to another request.
func (s *Session) Clone() *Session {
	c := *s
	c.Values = maps.Clone(s.Values)
	c.Alerts = slices.Clone(s.Alerts)
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	return &c
}

// Value is a typed helper to retrieve session values.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}

	val, ok := s.GetValue(key)
	if !ok {
		return zero, ErrNotFound
	}

	typed, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrTypeMismatch, key)
	}
	return typed, nil
}

// ValueOr returns the value stored under key, or defaultVal.
func ValueOr[T any](s *Session, key string, defaultVal T) T {
	val, err := Value[T](s, key)
	if err != nil {
		return defaultVal
	}
	return val
}
