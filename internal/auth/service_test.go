package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/algotracker/internal/auth/jwt"
)

func newTestGate(secret string, sessions SessionStore) *Gate {
	tokens := jwt.NewManager(jwt.TokenConfig{Secret: []byte("test-signing-secret"), TTL: time.Hour})
	return NewGate(secret, tokens, sessions, zerolog.Nop())
}

func TestCheckPassword(t *testing.T) {
	assert.True(t, CheckPassword("open sesame", "open sesame"))
	assert.False(t, CheckPassword("open sesame ", "open sesame"), "exact equality, no trimming")
	assert.False(t, CheckPassword("Open Sesame", "open sesame"))
	assert.False(t, CheckPassword("", ""), "an unset secret never matches")
	assert.False(t, CheckPassword("anything", ""))
}

func TestGateLoginMismatchIsNotAnError(t *testing.T) {
	g := newTestGate("hunter2", NewMemorySessionStore())

	session, ok, err := g.Login(context.Background(), "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, session.Token)
}

func TestGateWithoutSecretAlwaysFails(t *testing.T) {
	g := newTestGate("", NewMemorySessionStore())

	assert.False(t, g.Configured())
	_, ok, err := g.Login(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGateSessionLifecycle(t *testing.T) {
	g := newTestGate("hunter2", NewMemorySessionStore())
	ctx := context.Background()

	assert.False(t, g.Authenticated(ctx, ""), "no marker means unauthenticated")

	session, ok, err := g.Login(ctx, "hunter2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, session.ID)
	assert.True(t, g.Authenticated(ctx, session.Token))

	require.NoError(t, g.Logout(ctx, session.Token))
	assert.False(t, g.Authenticated(ctx, session.Token), "revoked tokens stop working")

	assert.NoError(t, g.Logout(ctx, "garbage"))
}

func TestGateRejectsForeignTokens(t *testing.T) {
	g := newTestGate("hunter2", NewMemorySessionStore())
	other := jwt.NewManager(jwt.TokenConfig{Secret: []byte("another-secret")})

	token, _, err := other.GenerateSessionToken("sid")
	require.NoError(t, err)
	assert.False(t, g.Authenticated(context.Background(), token))
}

func TestRedisSessionStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisSessionStore(client, "algotracker")
	g := newTestGate("hunter2", store)
	ctx := context.Background()

	session, ok, err := g.Login(ctx, "hunter2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("algotracker:session:"+session.ID))
	assert.Equal(t, time.Hour, mr.TTL("algotracker:session:"+session.ID))
	assert.True(t, g.Authenticated(ctx, session.Token))

	mr.FastForward(2 * time.Hour)
	assert.False(t, g.Authenticated(ctx, session.Token))
}

func TestRedisSessionStoreOutageReadsAsLoggedOut(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	g := newTestGate("hunter2", NewRedisSessionStore(client, ""))
	session, ok, err := g.Login(context.Background(), "hunter2")
	require.NoError(t, err)
	require.True(t, ok)

	mr.Close()
	assert.False(t, g.Authenticated(context.Background(), session.Token))
	_, _, err = g.Login(context.Background(), "hunter2")
	assert.Error(t, err)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	s := NewMemorySessionStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "a", time.Minute))
	live, err := s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, live)

	now = now.Add(time.Minute)
	live, err = s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, live)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	m := jwt.NewManager(jwt.TokenConfig{Secret: []byte("s"), TTL: -time.Minute})
	token, _, err := m.GenerateSessionToken("sid")
	require.NoError(t, err)

	_, err = m.ValidateSessionToken(token)
	assert.ErrorIs(t, err, jwt.ErrExpiredToken)
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/algorithms/trie?token=q", nil)
	assert.Equal(t, "q", TokenFromRequest(req))

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "c"})
	assert.Equal(t, "c", TokenFromRequest(req))

	req.Header.Set("Authorization", "Bearer h")
	assert.Equal(t, "h", TokenFromRequest(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, TokenFromRequest(req))
}

func TestHandlersLoginSessionLogout(t *testing.T) {
	g := newTestGate("hunter2", NewMemorySessionStore())
	h := NewHTTPHandlers(g, false, zerolog.Nop())
	protected := RequireSession(g, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_denied"`)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"password":"hunter2"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/v1/algorithms/trie/questions", nil)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/algorithms/trie/questions", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/auth/session", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.Session(rec, req)
	assert.JSONEq(t, `{"authenticated":true}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.Logout(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/algorithms/trie/questions", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
