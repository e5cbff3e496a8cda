package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/session"
)

func TestIssue_CookieAttributes(t *testing.T) {
	m := session.New(session.DefaultOptions())

	rec := httptest.NewRecorder()
	m.Issue(rec, "tok", auth.ScopeUser)
	c := rec.Result().Cookies()[0]

	assert.Equal(t, "token", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 7*24*3600, c.MaxAge)

	rec = httptest.NewRecorder()
	m.Issue(rec, "tok", auth.ScopeAdmin)
	assert.Equal(t, 24*3600, rec.Result().Cookies()[0].MaxAge)
}

func TestClear(t *testing.T) {
	rec := httptest.NewRecorder()
	session.New(session.DefaultOptions()).Clear(rec)

	c := rec.Result().Cookies()[0]
	assert.Equal(t, "token", c.Name)
	assert.Empty(t, c.Value)
	assert.Less(t, c.MaxAge, 0)
}

func captureClaims(m *session.Manager, req *http.Request) (*auth.Claims, bool) {
	var (
		got *auth.Claims
		ok  bool
	)
	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = session.FromCtx(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestMiddleware_ResolvesCookieAndBearer(t *testing.T) {
	m := session.New(session.DefaultOptions())
	userTok, _, err := auth.IssueToken(auth.ScopeUser, 3, "u@x.io")
	require.NoError(t, err)
	adminTok, _, err := auth.IssueToken(auth.ScopeAdmin, 0, "ops@x.io")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: userTok})
	claims, ok := captureClaims(m, req)
	require.True(t, ok)
	assert.Equal(t, auth.ScopeUser, claims.Scope)
	assert.Equal(t, uint(3), claims.UserID)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminTok)
	claims, ok = captureClaims(m, req)
	require.True(t, ok)
	assert.Equal(t, auth.ScopeAdmin, claims.Scope)
}

func TestMiddleware_InvalidTokenIsAnonymous(t *testing.T) {
	m := session.New(session.DefaultOptions())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "garbage"})

	_, ok := captureClaims(m, req)
	assert.False(t, ok)
}

func TestRevoke(t *testing.T) {
	cache.Flush()
	m := session.New(session.DefaultOptions())
	tok, claims, err := auth.IssueToken(auth.ScopeUser, 9, "u@x.io")
	require.NoError(t, err)

	require.NoError(t, m.Revoke(context.Background(), claims))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})
	_, ok := captureClaims(m, req)
	assert.False(t, ok)
}
