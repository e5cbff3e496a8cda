// Package session carries the authenticated identity between requests in an
// HTTP-only cookie holding a scoped JWT.
//
//	sess := session.New(session.DefaultOptions())
//	r.Use(sess.Middleware)
//	...
//	sess.Issue(w, token, auth.ScopeUser)
//	claims, ok := session.FromCtx(r.Context())
package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Options configures the session cookie.
type Options struct {
	CookieName string
	HTTPOnly   bool
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

// DefaultOptions returns the cookie settings used by the storefront.
func DefaultOptions() Options {
	return Options{
		CookieName: "token",
		HTTPOnly:   true,
		Secure:     config.IsProduction(),
		SameSite:   http.SameSiteStrictMode,
		Path:       "/",
	}
}

// Manager issues, reads and clears the session cookie.
type Manager struct {
	opts Options
}

func New(opts Options) *Manager {
	return &Manager{opts: opts}
}

// Issue writes the cookie with a max-age equal to the scope's token TTL.
func (m *Manager) Issue(w http.ResponseWriter, token string, scope auth.Scope) {
	http.SetCookie(w, m.cookie(token, scope.TTL()))
}

// Clear expires the cookie. Safe to call without an active session.
func (m *Manager) Clear(w http.ResponseWriter) {
	c := m.cookie("", 0)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

func (m *Manager) cookie(value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     m.opts.Path,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: m.opts.HTTPOnly,
		Secure:   m.opts.Secure,
		SameSite: m.opts.SameSite,
	}
}

// Token returns the raw token from the cookie, or from an
// "Authorization: Bearer" header used by the admin console.
func (m *Manager) Token(r *http.Request) string {
	if c, err := r.Cookie(m.opts.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.Header.Get("token")
}

// Revoke blacklists the token id until the token would have expired anyway.
func (m *Manager) Revoke(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return cache.Set(ctx, revokedKey(claims.ID), true, ttl)
}

func revokedKey(jti string) string { return "session:revoked:" + jti }

// Middleware resolves the session token, if any, into claims on the request
// context. It never rejects a request; route guards do that.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := m.Token(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims := m.resolve(r.Context(), raw)
		if claims != nil {
			r = r.WithContext(WithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) resolve(ctx context.Context, raw string) *auth.Claims {
	for _, scope := range []auth.Scope{auth.ScopeUser, auth.ScopeAdmin} {
		claims, err := auth.ValidateToken(raw, scope)
		if err != nil {
			continue
		}
		if cache.Has(ctx, revokedKey(claims.ID)) {
			logger.WithCtx(ctx).Debug("session: revoked token presented", "jti", claims.ID)
			return nil
		}
		return claims
	}
	return nil
}

type ctxKey struct{}

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

// FromCtx returns the claims stored by Middleware.
func FromCtx(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*auth.Claims)
	return c, ok && c != nil
}
