package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tela/pkg/session"
)

// failingStore rejects every write.
type failingStore struct {
	session.Store
}

func (failingStore) Save(context.Context, *session.Session) error {
	return errors.New("store down")
}

func newTestSessionManager(t *testing.T, opts ...SessionOption) *SessionManager {
	t.Helper()
	store := session.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	return NewSessionManager(store, opts...)
}

func TestSessionManager_CreateAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sm := newTestSessionManager(t, WithSessionCookieName("tela_sid"))

	sess, err := sm.CreateSession(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Len(t, sess.Token, 26)
	assert.False(t, sess.IsDirty())

	rec := httptest.NewRecorder()
	sm.WriteCookie(rec, sess)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "tela_sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	loaded, err := sm.LoadSession(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.False(t, loaded.IsNew())
}

func TestSessionManager_LoadMissing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sm := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.LoadSession(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, sess)

	req.AddCookie(&http.Cookie{Name: defaultSessionCookieName, Value: "unknown"})
	sess, err = sm.LoadSession(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSessionManager_RotateToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sm := newTestSessionManager(t)

	sess, err := sm.CreateSession(ctx)
	require.NoError(t, err)
	old := sess.Token

	sess.SetUser(&session.User{Matricule: "M001", Role: 1})
	require.NoError(t, sm.RotateToken(ctx, sess))
	assert.NotEqual(t, old, sess.Token)

	_, err = sm.Store().Get(ctx, old)
	assert.ErrorIs(t, err, session.ErrNotFound)

	stored, err := sm.Store().Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "M001", stored.User.Matricule)
}

func TestSessionManager_RotateTokenFailure(t *testing.T) {
	t.Parallel()

	sm := NewSessionManager(failingStore{})
	sess := session.New("id", "tok", time.Now().Add(time.Hour))

	err := sm.RotateToken(context.Background(), sess)
	require.Error(t, err)
	assert.Equal(t, "tok", sess.Token)
}

func TestSessionManager_Persist(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sm := newTestSessionManager(t)

	sess, err := sm.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, sm.Persist(ctx, nil))

	sess.AddAlert("Saved", "success")
	require.NoError(t, sm.Persist(ctx, sess))
	assert.False(t, sess.IsDirty())

	stored, err := sm.Store().Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Len(t, stored.Alerts, 1)

	require.NoError(t, sm.DestroySession(ctx, sess))
	_, err = sm.Store().Get(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionManager_ClearCookie(t *testing.T) {
	t.Parallel()

	sm := newTestSessionManager(t, WithSessionSecure(true))
	rec := httptest.NewRecorder()
	sm.ClearCookie(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.True(t, cookies[0].Secure)
}
